package alert

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/colonyops/beacon/internal/core/config"
	"github.com/colonyops/beacon/internal/core/notification"
	"github.com/colonyops/beacon/pkg/clock"
	"github.com/colonyops/beacon/pkg/executil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

func n(id string) notification.Notification {
	return notification.Notification{ID: notification.ID(id), Message: "<b>" + id + "</b>", Level: notification.LevelInfo, Unread: true}
}

func TestTray_ExpiresAtDeadline(t *testing.T) {
	fake := clock.NewFake(epoch)
	tray := NewTray(4*time.Second, fake)

	tray.Push(n("a"))
	fake.Advance(2 * time.Second)
	tray.Push(n("b"))

	fake.Advance(2 * time.Second)
	expired := tray.Expire()
	require.Len(t, expired, 1)
	assert.Equal(t, notification.ID("a"), expired[0].Notification.ID)

	active := tray.Active()
	require.Len(t, active, 1)
	assert.Equal(t, notification.ID("b"), active[0].Notification.ID)
}

func TestTray_DismissAndReplace(t *testing.T) {
	tray := NewTray(time.Minute, clock.NewFake(epoch))

	tray.Push(n("a"))
	tray.Push(n("a"))
	assert.Len(t, tray.Active(), 1, "same id replaces")

	_, ok := tray.Dismiss("a")
	assert.True(t, ok)
	_, ok = tray.Dismiss("a")
	assert.False(t, ok)

	_, ok = tray.Newest()
	assert.False(t, ok)
}

func TestTray_CapEvictsOldest(t *testing.T) {
	tray := NewTray(time.Minute, clock.NewFake(epoch))
	for _, id := range []string{"1", "2", "3", "4", "5"} {
		_, evicted := tray.Push(n(id))
		assert.Empty(t, evicted)
	}

	_, evicted := tray.Push(n("6"))
	require.Len(t, evicted, 1)
	assert.Equal(t, notification.ID("1"), evicted[0].Notification.ID)

	newest, ok := tray.Newest()
	require.True(t, ok)
	assert.Equal(t, notification.ID("6"), newest.Notification.ID)
}

func held(v bool, err error) HeldFunc {
	return func(context.Context) (bool, error) { return v, err }
}

func TestPlayer_OnlyLeaseHolderPlays(t *testing.T) {
	ctx := context.Background()
	var out bytes.Buffer

	p := NewPlayer(config.AudioConfig{Enabled: true}, nil, &out, held(false, nil))
	played, err := p.Play(ctx, n("a"))
	require.NoError(t, err)
	assert.False(t, played)
	assert.Empty(t, out.String())

	p = NewPlayer(config.AudioConfig{Enabled: true}, nil, &out, held(true, nil))
	played, err = p.Play(ctx, n("a"))
	require.NoError(t, err)
	assert.True(t, played)
	assert.Equal(t, "\a", out.String())
}

func TestPlayer_Disabled(t *testing.T) {
	var out bytes.Buffer
	p := NewPlayer(config.AudioConfig{Enabled: false}, nil, &out, held(true, nil))

	played, err := p.Play(context.Background(), n("a"))
	require.NoError(t, err)
	assert.False(t, played)

	p.Configure(config.AudioConfig{Enabled: true})
	played, err = p.Play(context.Background(), n("a"))
	require.NoError(t, err)
	assert.True(t, played)
}

func TestPlayer_LeaseError(t *testing.T) {
	p := NewPlayer(config.AudioConfig{Enabled: true}, nil, nil, held(false, errors.New("redis down")))
	_, err := p.Play(context.Background(), n("a"))
	assert.ErrorContains(t, err, "audio lease")
}

func TestPlayer_Command(t *testing.T) {
	runner := &executil.RecordingRunner{}
	p := NewPlayer(config.AudioConfig{Enabled: true, Command: "play {{ .Level }} {{ .Title | shq }}"}, runner, nil, held(true, nil))

	played, err := p.Play(context.Background(), n("a"))
	require.NoError(t, err)
	assert.True(t, played)
	assert.Equal(t, []string{"play info 'a'"}, runner.Recorded())
}

func TestNavigator_Open(t *testing.T) {
	ctx := context.Background()
	runner := &executil.RecordingRunner{}
	nav := NewNavigator("", runner)

	item := n("a")
	assert.ErrorIs(t, nav.Open(ctx, item), ErrNoTarget)

	item.TargetURL = "https://x.example/a"
	assert.ErrorIs(t, nav.Open(ctx, item), ErrNoOpener)

	nav.SetCommand("xdg-open {{ .URL | shq }}")
	require.NoError(t, nav.Open(ctx, item))
	assert.Equal(t, []string{"xdg-open 'https://x.example/a'"}, runner.Recorded())

	runner.Err = errors.New("exit 1")
	assert.Error(t, nav.Open(ctx, item))
}

func TestDwell(t *testing.T) {
	fake := clock.NewFake(epoch)
	d := NewDwell(time.Second, fake)

	d.Observe([]notification.ID{"a", "b"})
	fake.Advance(500 * time.Millisecond)
	assert.Empty(t, d.Due())

	// b scrolls out before the threshold and comes back.
	d.Observe([]notification.ID{"a"})
	d.Observe([]notification.ID{"a", "b"})
	fake.Advance(500 * time.Millisecond)

	assert.Equal(t, []notification.ID{"a"}, d.Due())
	assert.Empty(t, d.Due(), "fires once while visible")

	fake.Advance(500 * time.Millisecond)
	assert.Equal(t, []notification.ID{"b"}, d.Due())

	d.Reset()
	fake.Advance(time.Hour)
	assert.Empty(t, d.Due())
}
