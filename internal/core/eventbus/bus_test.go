package eventbus_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/colonyops/beacon/internal/core/eventbus"
	"github.com/colonyops/beacon/internal/core/eventbus/testbus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_DropsWhenFull(t *testing.T) {
	bus := eventbus.New(1)

	var dropped atomic.Int32
	bus.OnDrop(func(eventbus.Event, any) { dropped.Add(1) })

	// Not started: the second publish has nowhere to go.
	bus.PublishLeaseChanged(eventbus.LeaseChangedPayload{Held: true})
	bus.PublishLeaseChanged(eventbus.LeaseChangedPayload{Held: false})

	assert.Equal(t, int32(1), dropped.Load())
}

func TestBus_PanickingSubscriberDoesNotStopDispatch(t *testing.T) {
	bus := eventbus.New(8)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var panics, delivered atomic.Int32
	bus.OnPanic(func(eventbus.Event, any, any) { panics.Add(1) })
	bus.SubscribeLeaseChanged(func(eventbus.LeaseChangedPayload) { panic("boom") })
	bus.SubscribeLeaseChanged(func(eventbus.LeaseChangedPayload) { delivered.Add(1) })

	go bus.Start(ctx)
	bus.PublishLeaseChanged(eventbus.LeaseChangedPayload{Held: true})

	require.Eventually(t, func() bool { return delivered.Load() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(1), panics.Load())
}

func TestTestbus_Payloads(t *testing.T) {
	tb := testbus.New(t)

	tb.PublishReadChanged(eventbus.ReadChangedPayload{IDs: nil})
	tb.PublishReadChanged(eventbus.ReadChangedPayload{IDs: nil})

	require.Eventually(t, func() bool { return len(tb.Payloads(eventbus.EventReadChanged)) == 2 }, time.Second, 5*time.Millisecond)
	tb.AssertNotPublished(t, eventbus.EventAlertPushed, 20*time.Millisecond)
}
