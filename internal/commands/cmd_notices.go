package commands

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/beacon/pkg/iojson"
)

type NoticesCmd struct {
	flags *Flags
	app   *App

	clear      bool
	jsonOutput bool
}

// NewNoticesCmd creates a new notices command
func NewNoticesCmd(flags *Flags, app *App) *NoticesCmd {
	return &NoticesCmd{flags: flags, app: app}
}

// Register adds the notices command to the application
func (cmd *NoticesCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:        "notices",
		Usage:       "Show the history of transient notices",
		UsageText:   "beacon notices [--clear] [--json]",
		Description: "Every toast shown by the TUI is kept when notices.persist is on. Newest first.",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "clear",
				Usage:       "delete the history",
				Destination: &cmd.clear,
			},
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "output as JSON lines",
				Destination: &cmd.jsonOutput,
			},
		},
		Action: cmd.run,
	})
	return app
}

func (cmd *NoticesCmd) run(ctx context.Context, c *cli.Command) error {
	notices, err := cmd.app.Notices()
	if err != nil {
		return err
	}
	out := c.Root().Writer

	if cmd.clear {
		if err := notices.Clear(ctx); err != nil {
			return fmt.Errorf("clear notices: %w", err)
		}
		_, _ = fmt.Fprintln(out, "Notice history cleared")
		return nil
	}

	list, err := notices.History(ctx)
	if err != nil {
		return fmt.Errorf("read notices: %w", err)
	}

	if cmd.jsonOutput {
		lw := iojson.NewLineWriter(out)
		for _, n := range list {
			if err := lw.Write(n); err != nil {
				return err
			}
		}
		return nil
	}

	if len(list) == 0 {
		_, _ = fmt.Fprintln(out, "No notices")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "TIME\tLEVEL\tMESSAGE")
	for _, n := range list {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", n.CreatedAt.Local().Format("2006-01-02 15:04:05"), n.Level, n.Message)
	}
	return w.Flush()
}
