package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/beacon/internal/core/notification"
)

type ReadCmd struct {
	flags *Flags
	app   *App

	all bool
}

// NewReadCmd creates a new read command
func NewReadCmd(flags *Flags, app *App) *ReadCmd {
	return &ReadCmd{flags: flags, app: app}
}

// Register adds the read command to the application
func (cmd *ReadCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:          "read",
		Usage:         "Mark notifications as read",
		UsageText:     "beacon read <id>... | beacon read --all",
		ShellComplete: UnreadIDCompleter(cmd.app),
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "all",
				Aliases:     []string{"a"},
				Usage:       "mark every notification as read",
				Destination: &cmd.all,
			},
		},
		Action: cmd.run,
	})
	return app
}

func (cmd *ReadCmd) run(ctx context.Context, c *cli.Command) error {
	args := c.Args().Slice()
	switch {
	case cmd.all && len(args) > 0:
		return fmt.Errorf("--all takes no ids")
	case !cmd.all && len(args) == 0:
		return fmt.Errorf("give at least one id, or --all")
	}

	ids := make([]notification.ID, 0, len(args))
	for _, a := range args {
		id, err := notification.ParseID(a)
		if err != nil {
			return err
		}
		ids = append(ids, id)
	}

	ctx = cmd.app.Context(ctx)
	ctr, err := cmd.app.Center(ctx)
	if err != nil {
		return err
	}

	out := c.Root().Writer
	if cmd.all {
		if err := ctr.MarkAllRead(ctx); err != nil {
			return fmt.Errorf("mark all read: %w", err)
		}
		_, _ = fmt.Fprintln(out, "All notifications marked as read")
		return nil
	}

	var errs []error
	for _, id := range ids {
		if err := ctr.MarkRead(ctx, id); err != nil {
			errs = append(errs, fmt.Errorf("mark %s read: %w", id, err))
			continue
		}
		_, _ = fmt.Fprintf(out, "%s marked as read\n", id)
	}
	return errors.Join(errs...)
}
