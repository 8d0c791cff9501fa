package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

type UnsubscribeCmd struct {
	flags *Flags
	app   *App

	resubscribe bool
}

// NewUnsubscribeCmd creates a new unsubscribe command
func NewUnsubscribeCmd(flags *Flags, app *App) *UnsubscribeCmd {
	return &UnsubscribeCmd{flags: flags, app: app}
}

// Register adds the unsubscribe command to the application
func (cmd *UnsubscribeCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:        "unsubscribe",
		Usage:       "Follow an unsubscribe link from a notification email",
		UsageText:   "beacon unsubscribe <link> [--resubscribe]",
		Description: "Posts to the link to stop the emails it came with. --resubscribe opts back in.",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "resubscribe",
				Usage:       "opt back in instead",
				Destination: &cmd.resubscribe,
			},
		},
		Action: cmd.run,
	})
	return app
}

func (cmd *UnsubscribeCmd) run(ctx context.Context, c *cli.Command) error {
	if c.Args().Len() != 1 {
		return fmt.Errorf("expected exactly one link")
	}
	client, err := cmd.app.API()
	if err != nil {
		return err
	}

	ok, err := client.Unsubscribe(cmd.app.Context(ctx), c.Args().First(), cmd.resubscribe)
	if err != nil {
		return fmt.Errorf("unsubscribe: %w", err)
	}
	if !ok {
		return fmt.Errorf("the server rejected the link")
	}

	if cmd.resubscribe {
		_, _ = fmt.Fprintln(c.Root().Writer, "Subscribed again")
	} else {
		_, _ = fmt.Fprintln(c.Root().Writer, "Unsubscribed")
	}
	return nil
}
