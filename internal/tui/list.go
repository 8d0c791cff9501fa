package tui

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/colonyops/beacon/internal/core/notification"
	"github.com/colonyops/beacon/internal/core/styles"
)

// Scroll thresholds, as fractions of the rendered rows.
const (
	loadMoreAt = 0.9
	loadPrevAt = 0.1
)

// listState is the selection and viewport over the rendered window. The
// selection follows the selected id when the window changes.
type listState struct {
	items    []notification.Notification
	selected int
	offset   int
	height   int
}

func (l *listState) SetItems(items []notification.Notification) {
	var keep notification.ID
	if n, ok := l.Selected(); ok {
		keep = n.ID
	}

	l.items = items
	if i := slices.IndexFunc(items, func(n notification.Notification) bool { return n.ID == keep }); keep != "" && i >= 0 {
		l.selected = i
	}
	l.clamp()
}

func (l *listState) SetHeight(h int) {
	l.height = max(h, 1)
	l.clamp()
}

func (l *listState) Move(delta int) {
	l.selected += delta
	l.clamp()
}

func (l *listState) Top() {
	l.selected = 0
	l.clamp()
}

func (l *listState) clamp() {
	l.selected = min(max(l.selected, 0), max(len(l.items)-1, 0))
	if l.height <= 0 {
		return
	}
	if l.selected < l.offset {
		l.offset = l.selected
	}
	if l.selected >= l.offset+l.height {
		l.offset = l.selected - l.height + 1
	}
	l.offset = min(max(l.offset, 0), max(len(l.items)-l.height, 0))
}

func (l *listState) Selected() (notification.Notification, bool) {
	if l.selected < 0 || l.selected >= len(l.items) {
		return notification.Notification{}, false
	}
	return l.items[l.selected], true
}

// Visible returns the rows inside the viewport.
func (l *listState) Visible() []notification.Notification {
	if len(l.items) == 0 {
		return nil
	}
	end := min(l.offset+max(l.height, 1), len(l.items))
	return l.items[l.offset:end]
}

// NearEnd reports whether the selection entered the bottom tenth of the
// rendered rows.
func (l *listState) NearEnd() bool {
	if len(l.items) == 0 {
		return true
	}
	return float64(l.selected+1) >= float64(len(l.items))*loadMoreAt
}

// NearStart reports whether the selection entered the top tenth.
func (l *listState) NearStart() bool {
	return float64(l.selected) < float64(len(l.items))*loadPrevAt
}

// renderRow draws one list row: unread marker, level icon, title and age.
func renderRow(n notification.Notification, state notification.ReadState, selected, focused bool, width int, now time.Time) string {
	marker := styles.IconRead
	titleStyle := styles.RowTitleStyle
	if state == notification.StateUnread {
		marker = styles.UnreadMarkerStyle.Render(styles.IconUnread)
		titleStyle = styles.RowTitleUnreadStyle
	}

	age := styles.RowTimeStyle.Render(relativeTime(now, n.Timestamp))
	prefix := marker + " " + styles.LevelIcon(n.Level) + " "
	avail := width - lipgloss.Width(prefix) - lipgloss.Width(age) - 3
	title := titleStyle.Render(truncate(n.Title(), avail))
	gap := max(width-3-lipgloss.Width(prefix)-lipgloss.Width(title)-lipgloss.Width(age), 1)

	border := "  "
	if selected && focused {
		border = styles.SelectedBorderStyle.Render("┃") + " "
	}
	return border + prefix + title + strings.Repeat(" ", gap) + age
}

func relativeTime(now, t time.Time) string {
	if t.IsZero() {
		return ""
	}
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "now"
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	case d < 30*24*time.Hour:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	default:
		return t.Format("2006-01-02")
	}
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}
