package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/beacon/internal/core/notification"
	"github.com/colonyops/beacon/pkg/iojson"
)

type LsCmd struct {
	flags *Flags
	app   *App

	// flags
	unread     bool
	jsonOutput bool
	pages      int
}

// NewLsCmd creates a new ls command
func NewLsCmd(flags *Flags, app *App) *LsCmd {
	return &LsCmd{flags: flags, app: app}
}

// Register adds the ls command to the application
func (cmd *LsCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "ls",
		Usage:     "List notifications",
		UsageText: "beacon ls [--unread] [--json] [--pages N]",
		Description: `Prints the newest notifications, one page at a time up to --pages.

Use --json for one JSON document per notification.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "unread",
				Aliases:     []string{"u"},
				Usage:       "only unread notifications",
				Destination: &cmd.unread,
			},
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "output as JSON lines",
				Destination: &cmd.jsonOutput,
			},
			&cli.IntFlag{
				Name:        "pages",
				Usage:       "number of pages to fetch",
				Value:       1,
				Destination: &cmd.pages,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *LsCmd) run(ctx context.Context, c *cli.Command) error {
	if cmd.pages < 1 {
		return fmt.Errorf("--pages must be at least 1")
	}
	client, err := cmd.app.API()
	if err != nil {
		return err
	}
	ctx = cmd.app.Context(ctx)

	var all []notification.Notification
	next := client.NotificationsURL(cmd.unread)
	for range cmd.pages {
		page, err := client.FetchPage(ctx, next)
		if err != nil {
			return fmt.Errorf("fetch notifications: %w", err)
		}
		kept, errs := notification.Sanitize(page.Results)
		for _, e := range errs {
			log.Warn().Err(e).Msg("skipping malformed notification")
		}
		all = append(all, kept...)
		if !page.HasNext() {
			break
		}
		next = *page.Next
	}

	out := c.Root().Writer

	if cmd.jsonOutput {
		lw := iojson.NewLineWriter(out)
		for _, n := range all {
			if err := lw.Write(n); err != nil {
				return fmt.Errorf("encode notification: %w", err)
			}
		}
		return nil
	}

	if len(all) == 0 {
		fmt.Fprintf(os.Stderr, "No notifications\n")
		return nil
	}

	titleWidth := 60
	if w, ok := terminalWidth(out); ok {
		titleWidth = max(w-60, 20)
	}

	now := time.Now()
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tSTATE\tLEVEL\tAGE\tTITLE")
	for _, n := range all {
		state := "read"
		if n.Unread {
			state = "unread"
		}
		level := n.Level
		if level == "" {
			level = notification.LevelInfo
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", n.ID, state, level, age(now, n.Timestamp), clip(n.Title(), titleWidth))
	}
	return w.Flush()
}

func age(now, t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	d := now.Sub(t).Round(time.Minute)
	switch {
	case d < time.Minute:
		return "now"
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}
