package eventbus_test

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/colonyops/beacon/internal/core/eventbus"
	"github.com/colonyops/beacon/internal/core/eventbus/testbus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNoticer struct {
	mu   sync.Mutex
	msgs []string
}

func (r *recordingNoticer) Infof(format string, args ...any) {
	r.add("info: " + fmt.Sprintf(format, args...))
}
func (r *recordingNoticer) Warnf(format string, args ...any) {
	r.add("warn: " + fmt.Sprintf(format, args...))
}

func (r *recordingNoticer) add(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, s)
}

func (r *recordingNoticer) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.msgs...)
}

func TestNotificationRouter_LiveStatus(t *testing.T) {
	tb := testbus.New(t)
	n := &recordingNoticer{}
	eventbus.NewNotificationRouter(tb.EventBus, n).Register()

	tb.PublishLiveStatus(eventbus.LiveStatusPayload{Connected: true})
	tb.PublishLiveStatus(eventbus.LiveStatusPayload{Connected: false})
	tb.PublishLiveStatus(eventbus.LiveStatusPayload{Connected: false})
	tb.PublishLiveStatus(eventbus.LiveStatusPayload{Connected: true})

	require.Eventually(t, func() bool { return len(n.all()) == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{
		"warn: Live updates disconnected, reconnecting",
		"info: Live updates restored",
	}, n.all())
}

func TestNotificationRouter_ObjectMuted(t *testing.T) {
	tb := testbus.New(t)
	n := &recordingNoticer{}
	eventbus.NewNotificationRouter(tb.EventBus, n).Register()

	tb.PublishObjectMuted(eventbus.ObjectMutedPayload{Object: "blog.post/1", Muted: true})
	tb.PublishObjectMuted(eventbus.ObjectMutedPayload{Object: "blog.post/1", Muted: false})

	require.Eventually(t, func() bool { return len(n.all()) == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "info: Notifications for blog.post/1 disabled permanently", n.all()[0])
	assert.Equal(t, "info: Notifications for blog.post/1 enabled", n.all()[1])
}

func TestNotificationRouter_NilSafe(t *testing.T) {
	var r *eventbus.NotificationRouter
	assert.NotPanics(t, r.Register)
}
