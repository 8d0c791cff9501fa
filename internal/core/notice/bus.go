package notice

import (
	"context"
	"fmt"
	"sync"

	"github.com/colonyops/beacon/internal/core/mutation"
	"github.com/colonyops/beacon/pkg/clock"
	"github.com/rs/zerolog/log"
)

// HistoryLimit caps History results.
const HistoryLimit = 200

// Subscriber is invoked for every published notice.
type Subscriber func(Notice)

// Bus fans notices out to subscribers and optionally persists them.
type Bus struct {
	store Store
	clock clock.Clocker

	mu          sync.Mutex
	subscribers []Subscriber
}

var _ mutation.Notifier = (*Bus)(nil)

// NewBus creates a bus. A nil store disables persistence and a nil clock
// uses wall time.
func NewBus(store Store, c clock.Clocker) *Bus {
	if c == nil {
		c = clock.Real{}
	}
	return &Bus{store: store, clock: c}
}

func (b *Bus) Subscribe(fn Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers = append(b.subscribers, fn)
}

// Publish persists n (so subscribers see its ID) and dispatches it inline.
func (b *Bus) Publish(n Notice) {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = b.clock.Now()
	}

	if b.store != nil {
		id, err := b.store.Save(context.Background(), n)
		if err != nil {
			log.Error().Err(err).Str("message", n.Message).Msg("failed to persist notice")
		} else {
			n.ID = id
		}
	}

	b.mu.Lock()
	subs := make([]Subscriber, len(b.subscribers))
	copy(subs, b.subscribers)
	b.mu.Unlock()

	for _, fn := range subs {
		fn(n)
	}
}

func (b *Bus) publishf(level Level, format string, args ...any) {
	b.Publish(Notice{Level: level, Message: fmt.Sprintf(format, args...)})
}

func (b *Bus) Errorf(format string, args ...any)   { b.publishf(LevelError, format, args...) }
func (b *Bus) Warnf(format string, args ...any)    { b.publishf(LevelWarning, format, args...) }
func (b *Bus) Infof(format string, args ...any)    { b.publishf(LevelInfo, format, args...) }
func (b *Bus) Successf(format string, args ...any) { b.publishf(LevelSuccess, format, args...) }

// Success implements mutation.Notifier.
func (b *Bus) Success(msg string) {
	b.Publish(Notice{Level: LevelSuccess, Message: msg})
}

// Failure implements mutation.Notifier. The error goes to the log, not to
// the user-facing message.
func (b *Bus) Failure(msg string, err error) {
	if err != nil {
		log.Warn().Err(err).Str("notice", msg).Msg("mutation failed")
	}
	b.Publish(Notice{Level: LevelError, Message: msg})
}

// History returns persisted notices, newest first. Without a store it
// returns nil.
func (b *Bus) History(ctx context.Context) ([]Notice, error) {
	if b.store == nil {
		return nil, nil
	}
	return b.store.List(ctx, HistoryLimit)
}

// Clear deletes persisted notices.
func (b *Bus) Clear(ctx context.Context) error {
	if b.store == nil {
		return nil
	}
	return b.store.Clear(ctx)
}
