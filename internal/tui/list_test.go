package tui

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/beacon/internal/core/notification"
)

func items(n int) []notification.Notification {
	out := make([]notification.Notification, n)
	for i := range out {
		out[i] = notification.Notification{ID: notification.ID(fmt.Sprint(i + 1)), Message: fmt.Sprintf("n%d", i+1)}
	}
	return out
}

func TestListState_SetItems_keeps_selected_id(t *testing.T) {
	var l listState
	l.SetHeight(5)
	l.SetItems(items(10))
	l.Move(3)

	sel, ok := l.Selected()
	require.True(t, ok)
	require.Equal(t, notification.ID("4"), sel.ID)

	// a page prepended in front shifts the row down
	l.SetItems(append(items(10)[5:], items(10)...))

	sel, ok = l.Selected()
	require.True(t, ok)
	assert.Equal(t, notification.ID("4"), sel.ID)
	assert.Equal(t, 8, l.selected)
}

func TestListState_Move_clamps(t *testing.T) {
	var l listState
	l.SetHeight(3)
	l.SetItems(items(5))

	l.Move(-4)
	assert.Equal(t, 0, l.selected)

	l.Move(100)
	assert.Equal(t, 4, l.selected)
	assert.Equal(t, 2, l.offset)

	vis := l.Visible()
	require.Len(t, vis, 3)
	assert.Equal(t, notification.ID("3"), vis[0].ID)

	l.Top()
	assert.Equal(t, 0, l.selected)
	assert.Equal(t, 0, l.offset)
}

func TestListState_Empty(t *testing.T) {
	var l listState
	l.SetHeight(10)

	_, ok := l.Selected()
	assert.False(t, ok)
	assert.Nil(t, l.Visible())
	assert.True(t, l.NearEnd())
}

func TestListState_Thresholds(t *testing.T) {
	var l listState
	l.SetHeight(5)
	l.SetItems(items(20))

	assert.True(t, l.NearStart())
	assert.False(t, l.NearEnd())

	l.Move(17)
	assert.True(t, l.NearEnd())
	assert.False(t, l.NearStart())
}

func TestRelativeTime(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		t    time.Time
		want string
	}{
		{"zero", time.Time{}, ""},
		{"seconds", now.Add(-20 * time.Second), "now"},
		{"minutes", now.Add(-5 * time.Minute), "5m"},
		{"hours", now.Add(-3 * time.Hour), "3h"},
		{"days", now.Add(-50 * time.Hour), "2d"},
		{"old", now.AddDate(0, -3, 0), "2024-02-10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, relativeTime(now, tt.t))
		})
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "hello", truncate("hello", 10))
	assert.Equal(t, "hel...", truncate("hello world", 6))
	assert.Equal(t, "he", truncate("hello", 2))
	assert.Equal(t, "", truncate("hello", 0))
	assert.Equal(t, "a b", truncate("a\nb", 10))
}

func TestRenderRow_unread_marker(t *testing.T) {
	n := notification.Notification{ID: "1", Message: "Deploy done", Timestamp: time.Now()}

	unread := renderRow(n, notification.StateUnread, false, true, 60, time.Now())
	read := renderRow(n, notification.StateRead, false, true, 60, time.Now())

	assert.Contains(t, unread, "Deploy done")
	assert.Contains(t, unread, "●")
	assert.NotContains(t, read, "●")
}
