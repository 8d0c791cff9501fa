package eventbus

import (
	"context"
	"sync"
)

// Event names one kind of bus message.
type Event string

type envelope struct {
	event   Event
	payload any
}

// EventBus is an asynchronous fan-out bus. Publish never blocks: when the
// buffer is full the event is dropped and OnDrop hooks run. Subscribers run
// on the Start goroutine in registration order.
type EventBus struct {
	ch    chan envelope
	hooks hooks

	mu   sync.RWMutex
	subs map[Event][]func(any)
}

// New creates a bus with the given buffer size.
func New(buffer int) *EventBus {
	if buffer < 1 {
		buffer = 1
	}
	return &EventBus{
		ch:   make(chan envelope, buffer),
		subs: make(map[Event][]func(any)),
	}
}

// Start dispatches events until ctx is cancelled.
func (bus *EventBus) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case env := <-bus.ch:
			bus.dispatch(env)
		}
	}
}

func (bus *EventBus) subscribe(event Event, fn func(any)) {
	bus.mu.Lock()
	bus.subs[event] = append(bus.subs[event], fn)
	bus.mu.Unlock()

	bus.hooks.mu.RLock()
	hooks := make([]func(Event), len(bus.hooks.onSubscribe))
	copy(hooks, bus.hooks.onSubscribe)
	bus.hooks.mu.RUnlock()
	for _, h := range hooks {
		h(event)
	}
}

func (bus *EventBus) dispatch(env envelope) {
	bus.mu.RLock()
	subs := make([]func(any), len(bus.subs[env.event]))
	copy(subs, bus.subs[env.event])
	bus.mu.RUnlock()

	for _, fn := range subs {
		bus.call(env, fn)
	}
}

func (bus *EventBus) call(env envelope, fn func(any)) {
	defer func() {
		if r := recover(); r != nil {
			bus.runOnPanic(env.event, env.payload, r)
		}
	}()
	fn(env.payload)
}
