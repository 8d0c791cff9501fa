package commands

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/beacon/internal/core/config"
)

// muteDays are the durations the server accepts; 0 is permanent.
var muteDays = []int{0, 1, 7, 30}

type MuteCmd struct {
	flags *Flags
	app   *App

	days   int
	status bool
}

// NewMuteCmd creates the mute and unmute commands
func NewMuteCmd(flags *Flags, app *App) *MuteCmd {
	return &MuteCmd{flags: flags, app: app}
}

// Register adds the mute and unmute commands to the application
func (cmd *MuteCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands,
		&cli.Command{
			Name:      "mute",
			Usage:     "Disable notifications about one object",
			UsageText: "beacon mute [<app> <model> <id>] [--days 1|7|30|0] [--status]",
			Description: `Without arguments the object from live.object in the config is used.

--days 0 mutes permanently. --status prints the current state and changes nothing.`,
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:        "days",
					Aliases:     []string{"d"},
					Usage:       "mute duration in days (1, 7, 30, or 0 for permanent)",
					Value:       0,
					Destination: &cmd.days,
				},
				&cli.BoolFlag{
					Name:        "status",
					Usage:       "print the mute state only",
					Destination: &cmd.status,
				},
			},
			Action: cmd.runMute,
		},
		&cli.Command{
			Name:      "unmute",
			Usage:     "Re-enable notifications about one object",
			UsageText: "beacon unmute [<app> <model> <id>]",
			Action:    cmd.runUnmute,
		},
	)
	return app
}

func (cmd *MuteCmd) object(c *cli.Command) (config.ObjectRef, error) {
	args := c.Args().Slice()
	switch len(args) {
	case 3:
		return config.ObjectRef{AppLabel: args[0], ModelName: args[1], ObjectID: args[2]}, nil
	case 0:
		if o := cmd.app.Config.Live.Object; o != nil {
			return *o, nil
		}
		return config.ObjectRef{}, fmt.Errorf("no object given and live.object is not configured")
	default:
		return config.ObjectRef{}, fmt.Errorf("expected <app> <model> <id>")
	}
}

func (cmd *MuteCmd) runMute(ctx context.Context, c *cli.Command) error {
	ref, err := cmd.object(c)
	if err != nil {
		return err
	}
	if !slices.Contains(muteDays, cmd.days) {
		return fmt.Errorf("--days must be one of 1, 7, 30 or 0, got %d", cmd.days)
	}

	ctx = cmd.app.Context(ctx)
	ctr, err := cmd.app.Center(ctx)
	if err != nil {
		return err
	}
	out := c.Root().Writer

	if cmd.status {
		s, err := ctr.ObjectMute(ctx, ref)
		if err != nil {
			return err
		}
		switch {
		case !s.Active(time.Now()):
			_, _ = fmt.Fprintf(out, "%s: notifications on\n", ref)
		case s.ValidTill == nil:
			_, _ = fmt.Fprintf(out, "%s: muted permanently\n", ref)
		default:
			_, _ = fmt.Fprintf(out, "%s: muted until %s\n", ref, s.ValidTill.Local().Format(time.DateTime))
		}
		return nil
	}

	if err := ctr.MuteObject(ctx, ref, cmd.days); err != nil {
		return err
	}
	if cmd.days == 0 {
		_, _ = fmt.Fprintf(out, "%s muted permanently\n", ref)
	} else {
		_, _ = fmt.Fprintf(out, "%s muted for %d day(s)\n", ref, cmd.days)
	}
	return nil
}

func (cmd *MuteCmd) runUnmute(ctx context.Context, c *cli.Command) error {
	ref, err := cmd.object(c)
	if err != nil {
		return err
	}

	ctx = cmd.app.Context(ctx)
	ctr, err := cmd.app.Center(ctx)
	if err != nil {
		return err
	}
	if err := ctr.UnmuteObject(ctx, ref); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(c.Root().Writer, "%s unmuted\n", ref)
	return nil
}
