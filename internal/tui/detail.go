package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/rs/zerolog/log"

	"github.com/colonyops/beacon/internal/core/notification"
	"github.com/colonyops/beacon/internal/core/styles"
)

// detailMarkdown formats a notification for the detail pane. The message
// markup is reduced to text; nothing in it is interpreted.
func detailMarkdown(n notification.Notification) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n\n", n.Title())
	level := string(n.Level)
	if level == "" {
		level = string(notification.LevelInfo)
	}
	fmt.Fprintf(&b, "**%s**", level)
	if !n.Timestamp.IsZero() {
		fmt.Fprintf(&b, " · %s", n.Timestamp.Local().Format("2006-01-02 15:04"))
	}
	b.WriteString("\n\n")

	if msg := notification.StripMarkup(n.Message); msg != "" && msg != n.Title() {
		b.WriteString(msg)
		b.WriteString("\n\n")
	}
	if n.TargetURL != "" {
		fmt.Fprintf(&b, "[%s](%s)\n", n.TargetURL, n.TargetURL)
	}
	return b.String()
}

// renderDetail renders md for a pane of the given width. It falls back to
// the raw text when glamour fails.
func renderDetail(md string, width int) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithStyles(styles.GlamourStyle()),
		glamour.WithWordWrap(max(width-2, 20)),
	)
	if err != nil {
		log.Debug().Err(err).Msg("glamour renderer")
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		log.Debug().Err(err).Msg("glamour render")
		return md
	}
	return strings.TrimRight(out, "\n")
}
