// Package mutation runs optimistic state changes: apply locally, confirm
// remotely, roll back on failure.
package mutation

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ErrConflict is returned by TryRun when a conflicting mutation is in flight.
var ErrConflict = errors.New("conflicting mutation in flight")

// Notifier receives the transient notice for each finished mutation.
type Notifier interface {
	Success(msg string)
	Failure(msg string, err error)
}

// Mutation is one optimistic change.
type Mutation struct {
	// Key is the affected resource; conflicting keys are serialized.
	Key Key
	// Name is used in logs.
	Name string
	// Apply computes and applies the new state synchronously and returns the
	// rollback restoring exactly what it changed. A nil rollback means there
	// was nothing to change and Commit is skipped.
	Apply func() (rollback func(), err error)
	// Commit confirms the change remotely.
	Commit func(ctx context.Context) error
	// OnSuccess runs after a successful commit.
	OnSuccess func()
	// SuccessMsg and FailureMsg are passed to the Notifier. Empty messages
	// are not published.
	SuccessMsg string
	FailureMsg string
}

// Executor runs mutations. Non-conflicting mutations run concurrently.
type Executor struct {
	notifier Notifier

	mu       sync.Mutex
	inflight map[string]*slot
}

type slot struct {
	id   string
	key  Key
	done chan struct{}
}

// NewExecutor creates an executor publishing notices to n. n may be nil.
func NewExecutor(n Notifier) *Executor {
	return &Executor{
		notifier: n,
		inflight: map[string]*slot{},
	}
}

// Run waits for conflicting mutations to finish, then executes m.
func (e *Executor) Run(ctx context.Context, m Mutation) error {
	s, err := e.acquire(ctx, m.Key, true)
	if err != nil {
		return fmt.Errorf("%s: %w", m.Name, err)
	}
	return e.execute(ctx, s, m)
}

// TryRun executes m immediately or returns ErrConflict.
func (e *Executor) TryRun(ctx context.Context, m Mutation) error {
	s, err := e.acquire(ctx, m.Key, false)
	if err != nil {
		return fmt.Errorf("%s: %w", m.Name, err)
	}
	return e.execute(ctx, s, m)
}

// InFlight reports whether a mutation conflicting with k is running.
func (e *Executor) InFlight(k Key) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.conflictLocked(k) != nil
}

func (e *Executor) conflictLocked(k Key) *slot {
	for _, s := range e.inflight {
		if s.key.Conflicts(k) {
			return s
		}
	}
	return nil
}

func (e *Executor) acquire(ctx context.Context, k Key, wait bool) (*slot, error) {
	for {
		e.mu.Lock()
		blocking := e.conflictLocked(k)
		if blocking == nil {
			s := &slot{id: uuid.NewString(), key: k, done: make(chan struct{})}
			e.inflight[s.id] = s
			e.mu.Unlock()
			return s, nil
		}
		e.mu.Unlock()

		if !wait {
			return nil, ErrConflict
		}

		select {
		case <-blocking.done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (e *Executor) release(s *slot) {
	e.mu.Lock()
	delete(e.inflight, s.id)
	e.mu.Unlock()
	close(s.done)
}

func (e *Executor) execute(ctx context.Context, s *slot, m Mutation) error {
	defer e.release(s)

	logger := log.With().
		Str("mutation", m.Name).
		Str("key", string(m.Key)).
		Str("request_id", s.id).
		Logger()

	rollback, err := m.Apply()
	if err != nil {
		e.failure(m, err)
		return fmt.Errorf("%s: apply: %w", m.Name, err)
	}
	if rollback == nil {
		logger.Debug().Msg("nothing to change")
		return nil
	}

	if err := m.Commit(ctx); err != nil {
		rollback()
		logger.Warn().Err(err).Msg("mutation failed, rolled back")
		e.failure(m, err)
		return fmt.Errorf("%s: %w", m.Name, err)
	}

	logger.Debug().Msg("mutation confirmed")
	if m.OnSuccess != nil {
		m.OnSuccess()
	}
	if e.notifier != nil && m.SuccessMsg != "" {
		e.notifier.Success(m.SuccessMsg)
	}
	return nil
}

func (e *Executor) failure(m Mutation, err error) {
	if e.notifier != nil && m.FailureMsg != "" {
		e.notifier.Failure(m.FailureMsg, err)
	}
}
