package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

// UnreadIDCompleter returns a ShellCompleteFunc that suggests the ids of
// unread notifications on the first page as positional completions.
//
// When the user's last typed argument starts with "-", it falls back to the
// default flag completion behavior.
func UnreadIDCompleter(app *App) cli.ShellCompleteFunc {
	return func(ctx context.Context, cmd *cli.Command) {
		if args := cmd.Args(); args.Present() {
			last := args.Slice()[args.Len()-1]
			if len(last) > 0 && last[0] == '-' {
				cli.DefaultCompleteWithFlags(ctx, cmd)
				return
			}
		}

		client, err := app.API()
		if err != nil {
			return
		}
		page, err := client.FetchPage(ctx, client.NotificationsURL(true))
		if err != nil {
			return
		}

		w := cmd.Root().Writer
		for _, n := range page.Results {
			_, _ = fmt.Fprintln(w, n.ID)
		}
	}
}
