package live

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/colonyops/beacon/internal/core/notification"
)

// Fields is a frame decoded one level deep.
type Fields map[string]json.RawMessage

// has reports whether key is present and not null.
func (f Fields) has(key string) bool {
	raw, ok := f[key]
	return ok && string(raw) != "null"
}

// Route maps one message kind to the frame fields it needs. Decode may
// return a nil Message to skip the frame.
type Route struct {
	Kind     Kind
	Frame    string
	Requires []string
	Decode   func(Fields) (Message, error)
}

// DefaultRoutes is the table for the notification websocket. Order matters:
// routes matching the same frame are dispatched in table order.
func DefaultRoutes() []Route {
	return []Route{
		{
			Kind:     KindCountUpdate,
			Frame:    FrameNotification,
			Requires: []string{"notification_count"},
			Decode: func(f Fields) (Message, error) {
				var c Count
				if err := json.Unmarshal(f["notification_count"], &c); err != nil {
					return nil, err
				}
				return CountUpdate{Count: c}, nil
			},
		},
		{
			Kind:     KindReloadSignal,
			Frame:    FrameNotification,
			Requires: []string{"reload_widget"},
			Decode: func(f Fields) (Message, error) {
				var reload bool
				if err := json.Unmarshal(f["reload_widget"], &reload); err != nil {
					return nil, fmt.Errorf("decode reload_widget: %w", err)
				}
				if !reload {
					return nil, nil
				}
				return ReloadSignal{}, nil
			},
		},
		{
			Kind:     KindPush,
			Frame:    FrameNotification,
			Requires: []string{"notification"},
			Decode: func(f Fields) (Message, error) {
				var n notification.Notification
				if err := json.Unmarshal(f["notification"], &n); err != nil {
					return nil, fmt.Errorf("decode notification: %w", err)
				}
				if err := notification.Validate(n); err != nil {
					return nil, err
				}
				return PushNotification{Notification: n}, nil
			},
		},
		{
			Kind:  KindObjectAck,
			Frame: FrameObject,
			// valid_till is required to be present but may be null
			Decode: func(f Fields) (Message, error) {
				raw, ok := f["valid_till"]
				if !ok {
					return nil, nil
				}
				var ack ObjectAck
				if err := json.Unmarshal(raw, &ack.ValidTill); err != nil {
					return nil, fmt.Errorf("decode valid_till: %w", err)
				}
				return ack, nil
			},
		},
	}
}

// Handler consumes a decoded message.
type Handler func(ctx context.Context, m Message)

// Dispatcher decodes frames through its route table and invokes the
// handlers registered for each resulting kind.
type Dispatcher struct {
	routes []Route

	mu       sync.RWMutex
	handlers map[Kind][]Handler
}

// NewDispatcher creates a dispatcher over routes, or DefaultRoutes when none
// are given.
func NewDispatcher(routes ...Route) *Dispatcher {
	if len(routes) == 0 {
		routes = DefaultRoutes()
	}
	return &Dispatcher{
		routes:   routes,
		handlers: map[Kind][]Handler{},
	}
}

// Handle registers h for kind.
func (d *Dispatcher) Handle(kind Kind, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[kind] = append(d.handlers[kind], h)
}

// On registers a typed handler for messages of type T.
func On[T Message](d *Dispatcher, fn func(ctx context.Context, m T)) {
	var zero T
	d.Handle(zero.Kind(), func(ctx context.Context, m Message) {
		if typed, ok := m.(T); ok {
			fn(ctx, typed)
		}
	})
}

// Decode turns a raw frame into messages. Only invalid JSON is an error;
// routes whose fields are missing or malformed are skipped and logged.
func (d *Dispatcher) Decode(raw []byte) ([]Message, error) {
	var fields Fields
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}

	frame := FrameNotification
	if fields.has("type") {
		if err := json.Unmarshal(fields["type"], &frame); err != nil {
			return nil, fmt.Errorf("decode frame type: %w", err)
		}
	}

	var out []Message
	for _, r := range d.routes {
		if r.Frame != frame || !requiresMet(fields, r.Requires) {
			continue
		}

		msg, err := r.Decode(fields)
		if err != nil {
			log.Warn().Err(err).Str("kind", string(r.Kind)).Msg("skipping malformed live message")
			continue
		}
		if msg != nil {
			out = append(out, msg)
		}
	}
	return out, nil
}

func requiresMet(f Fields, keys []string) bool {
	for _, k := range keys {
		if !f.has(k) {
			return false
		}
	}
	return true
}

// Dispatch decodes raw and delivers each message to its handlers in order.
func (d *Dispatcher) Dispatch(ctx context.Context, raw []byte) error {
	msgs, err := d.Decode(raw)
	if err != nil {
		return err
	}

	for _, m := range msgs {
		d.mu.RLock()
		handlers := d.handlers[m.Kind()]
		d.mu.RUnlock()

		if len(handlers) == 0 {
			log.Debug().Str("kind", string(m.Kind())).Msg("no handler for live message")
			continue
		}
		for _, h := range handlers {
			h(ctx, m)
		}
	}
	return nil
}
