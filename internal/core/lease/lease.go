// Package lease implements the cross-process authority used to decide which
// running client plays the audible alert.
//
// A client claims the lease when it gains focus (stealing it from whoever
// held it), releases it on exit, and re-claims it whenever it observes the
// lease absent. Claims carry a TTL so a client that dies without releasing
// does not hold the lease forever.
package lease

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultKey is the storage key shared by every client of one account.
const DefaultKey = "beacon:audio-lease"

// Storage is the shared medium the lease lives in.
type Storage interface {
	// Claim sets holder unconditionally.
	Claim(ctx context.Context, key, holder string, ttl time.Duration) error
	// ClaimIfAbsent sets holder only when no live claim exists.
	ClaimIfAbsent(ctx context.Context, key, holder string, ttl time.Duration) (bool, error)
	// Renew extends the claim when holder still owns it.
	Renew(ctx context.Context, key, holder string, ttl time.Duration) (bool, error)
	// Holder returns the live holder, or "" when the lease is absent.
	Holder(ctx context.Context, key string) (string, error)
	// ReleaseIf removes the claim when holder owns it.
	ReleaseIf(ctx context.Context, key, holder string) (bool, error)
}

// Watcher is implemented by storages that push change notifications. Other
// storages are polled.
type Watcher interface {
	Watch(ctx context.Context, key string) (<-chan struct{}, error)
}

// Option configures a Lease.
type Option func(*Lease)

// WithTTL sets the claim lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(l *Lease) {
		if ttl > 0 {
			l.ttl = ttl
		}
	}
}

// WithKey overrides DefaultKey.
func WithKey(key string) Option {
	return func(l *Lease) {
		if key != "" {
			l.key = key
		}
	}
}

// WithPollInterval sets how often storages without Watch are checked.
func WithPollInterval(d time.Duration) Option {
	return func(l *Lease) {
		if d > 0 {
			l.poll = d
		}
	}
}

// Lease is one client's handle on the shared lease.
type Lease struct {
	storage Storage
	key     string
	holder  string
	ttl     time.Duration
	poll    time.Duration

	mu       sync.Mutex
	onChange []func(held bool)
	lastHeld bool
}

// New creates a lease handle for holder.
func New(storage Storage, holder string, opts ...Option) *Lease {
	l := &Lease{
		storage: storage,
		key:     DefaultKey,
		holder:  holder,
		ttl:     30 * time.Second,
		poll:    2 * time.Second,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Holder returns this handle's holder id.
func (l *Lease) Holder() string { return l.holder }

// Key returns the storage key.
func (l *Lease) Key() string { return l.key }

// Subscribe registers fn to be called whenever this client gains or loses
// the lease as observed by Run.
func (l *Lease) Subscribe(fn func(held bool)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onChange = append(l.onChange, fn)
}

// Acquire claims the lease, taking it from any other holder.
func (l *Lease) Acquire(ctx context.Context) error {
	if err := l.storage.Claim(ctx, l.key, l.holder, l.ttl); err != nil {
		return fmt.Errorf("acquire lease: %w", err)
	}
	log.Debug().Str("holder", l.holder).Msg("audio lease acquired")
	l.observe(true)
	return nil
}

// Release gives the lease up if this client holds it.
func (l *Lease) Release(ctx context.Context) error {
	released, err := l.storage.ReleaseIf(ctx, l.key, l.holder)
	if err != nil {
		return fmt.Errorf("release lease: %w", err)
	}
	if released {
		log.Debug().Str("holder", l.holder).Msg("audio lease released")
	}
	l.observe(false)
	return nil
}

// IsHeld reports whether this client currently holds the lease.
func (l *Lease) IsHeld(ctx context.Context) (bool, error) {
	h, err := l.storage.Holder(ctx, l.key)
	if err != nil {
		return false, fmt.Errorf("read lease: %w", err)
	}
	return h == l.holder, nil
}

// OnChange handles a storage change event: if the lease is absent this
// client claims it. It reports whether this client holds the lease after.
func (l *Lease) OnChange(ctx context.Context) (bool, error) {
	claimed, err := l.storage.ClaimIfAbsent(ctx, l.key, l.holder, l.ttl)
	if err != nil {
		return false, fmt.Errorf("reclaim lease: %w", err)
	}
	if claimed {
		log.Debug().Str("holder", l.holder).Msg("audio lease reclaimed")
		l.observe(true)
		return true, nil
	}

	held, err := l.IsHeld(ctx)
	if err != nil {
		return false, err
	}
	l.observe(held)
	return held, nil
}

// Run keeps the lease alive while held and reacts to changes until ctx is
// cancelled.
func (l *Lease) Run(ctx context.Context) error {
	renew := time.NewTicker(max(l.ttl/3, 10*time.Millisecond))
	defer renew.Stop()

	var changes <-chan struct{}
	var poll <-chan time.Time
	if w, ok := l.storage.(Watcher); ok {
		ch, err := w.Watch(ctx, l.key)
		if err != nil {
			return fmt.Errorf("watch lease: %w", err)
		}
		changes = ch
	} else {
		t := time.NewTicker(l.poll)
		defer t.Stop()
		poll = t.C
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-renew.C:
			held, err := l.storage.Renew(ctx, l.key, l.holder, l.ttl)
			if err != nil {
				log.Warn().Err(err).Msg("renew audio lease")
				continue
			}
			if !held {
				l.check(ctx)
				continue
			}
			l.observe(true)
		case _, ok := <-changes:
			if !ok {
				return nil
			}
			l.check(ctx)
		case <-poll:
			l.check(ctx)
		}
	}
}

func (l *Lease) check(ctx context.Context) {
	if _, err := l.OnChange(ctx); err != nil && ctx.Err() == nil {
		log.Warn().Err(err).Msg("check audio lease")
	}
}

func (l *Lease) observe(held bool) {
	l.mu.Lock()
	if held == l.lastHeld {
		l.mu.Unlock()
		return
	}
	l.lastHeld = held
	subs := append([]func(bool){}, l.onChange...)
	l.mu.Unlock()

	for _, fn := range subs {
		fn(held)
	}
}
