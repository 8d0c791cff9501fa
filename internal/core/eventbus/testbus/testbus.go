// Package testbus runs a real EventBus in tests and records what passes
// through it.
package testbus

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/colonyops/beacon/internal/core/eventbus"
)

// Record is one delivered event.
type Record struct {
	Event   eventbus.Event
	Payload any
}

// Bus is a started EventBus that records every delivered event.
type Bus struct {
	*eventbus.EventBus

	mu      sync.Mutex
	records []Record
	changed chan struct{}
}

// New starts a bus for the duration of t.
func New(t *testing.T) *Bus {
	t.Helper()

	tb := &Bus{
		EventBus: eventbus.New(64),
		changed:  make(chan struct{}),
	}
	tb.recordAll()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go tb.Start(ctx)

	return tb
}

func (tb *Bus) recordAll() {
	tap := func(e eventbus.Event) func(any) { return func(p any) { tb.add(e, p) } }

	tb.SubscribeAlertDismissed(func(p eventbus.AlertDismissedPayload) { tap(eventbus.EventAlertDismissed)(p) })
	tb.SubscribeAlertPushed(func(p eventbus.AlertPushedPayload) { tap(eventbus.EventAlertPushed)(p) })
	tb.SubscribeBadgeChanged(func(p eventbus.BadgeChangedPayload) { tap(eventbus.EventBadgeChanged)(p) })
	tb.SubscribeConfigReloaded(func(p eventbus.ConfigReloadedPayload) { tap(eventbus.EventConfigReloaded)(p) })
	tb.SubscribeLeaseChanged(func(p eventbus.LeaseChangedPayload) { tap(eventbus.EventLeaseChanged)(p) })
	tb.SubscribeListChanged(func(p eventbus.ListChangedPayload) { tap(eventbus.EventListChanged)(p) })
	tb.SubscribeLiveStatus(func(p eventbus.LiveStatusPayload) { tap(eventbus.EventLiveStatus)(p) })
	tb.SubscribeNoticePublished(func(p eventbus.NoticePublishedPayload) { tap(eventbus.EventNoticePublished)(p) })
	tb.SubscribeObjectMuted(func(p eventbus.ObjectMutedPayload) { tap(eventbus.EventObjectMuted)(p) })
	tb.SubscribePreferencesChanged(func(p eventbus.PreferencesChangedPayload) { tap(eventbus.EventPreferencesChanged)(p) })
	tb.SubscribeReadChanged(func(p eventbus.ReadChangedPayload) { tap(eventbus.EventReadChanged)(p) })
	tb.SubscribeTuiStarted(func(p eventbus.TUIStartedPayload) { tap(eventbus.EventTuiStarted)(p) })
	tb.SubscribeTuiStopped(func(p eventbus.TUIStoppedPayload) { tap(eventbus.EventTuiStopped)(p) })
}

func (tb *Bus) add(e eventbus.Event, p any) {
	tb.mu.Lock()
	tb.records = append(tb.records, Record{Event: e, Payload: p})
	close(tb.changed)
	tb.changed = make(chan struct{})
	tb.mu.Unlock()
}

// Events returns everything delivered so far, oldest first.
func (tb *Bus) Events() []Record {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return append([]Record(nil), tb.records...)
}

// Payloads returns the delivered payloads of one event, oldest first.
func (tb *Bus) Payloads(event eventbus.Event) []any {
	var out []any
	for _, r := range tb.Events() {
		if r.Event == event {
			out = append(out, r.Payload)
		}
	}
	return out
}

// WaitFor reports whether event is delivered before timeout.
func (tb *Bus) WaitFor(event eventbus.Event, timeout time.Duration) bool {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for {
		tb.mu.Lock()
		changed := tb.changed
		seen := tb.seenLocked(event)
		tb.mu.Unlock()
		if seen {
			return true
		}

		select {
		case <-changed:
		case <-deadline.C:
			return false
		}
	}
}

func (tb *Bus) seenLocked(event eventbus.Event) bool {
	for _, r := range tb.records {
		if r.Event == event {
			return true
		}
	}
	return false
}

// AssertPublished fails t unless event is delivered within 500ms.
func (tb *Bus) AssertPublished(t *testing.T, event eventbus.Event) {
	t.Helper()
	if !tb.WaitFor(event, 500*time.Millisecond) {
		t.Errorf("event %q was not delivered", event)
	}
}

// AssertNotPublished fails t if event is delivered within wait.
func (tb *Bus) AssertNotPublished(t *testing.T, event eventbus.Event, wait time.Duration) {
	t.Helper()
	if tb.WaitFor(event, wait) {
		t.Errorf("event %q was delivered", event)
	}
}
