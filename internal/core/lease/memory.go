package lease

import (
	"context"
	"sync"
	"time"

	"github.com/colonyops/beacon/pkg/clock"
)

type claim struct {
	holder  string
	expires time.Time
}

// MemoryStorage is an in-process Storage. Several Lease handles sharing one
// MemoryStorage behave like several clients sharing one store.
type MemoryStorage struct {
	clock clock.Clocker

	mu       sync.Mutex
	claims   map[string]claim
	watchers map[string][]chan struct{}
}

var (
	_ Storage = (*MemoryStorage)(nil)
	_ Watcher = (*MemoryStorage)(nil)
)

// NewMemoryStorage creates an empty storage. A nil clock uses real time.
func NewMemoryStorage(c clock.Clocker) *MemoryStorage {
	if c == nil {
		c = clock.Real{}
	}
	return &MemoryStorage{
		clock:    c,
		claims:   map[string]claim{},
		watchers: map[string][]chan struct{}{},
	}
}

func (m *MemoryStorage) liveLocked(key string) (claim, bool) {
	c, ok := m.claims[key]
	if !ok {
		return claim{}, false
	}
	if !m.clock.Now().Before(c.expires) {
		delete(m.claims, key)
		return claim{}, false
	}
	return c, true
}

func (m *MemoryStorage) Claim(_ context.Context, key, holder string, ttl time.Duration) error {
	m.mu.Lock()
	m.claims[key] = claim{holder: holder, expires: m.clock.Now().Add(ttl)}
	m.mu.Unlock()
	m.notify(key)
	return nil
}

func (m *MemoryStorage) ClaimIfAbsent(_ context.Context, key, holder string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	if _, ok := m.liveLocked(key); ok {
		m.mu.Unlock()
		return false, nil
	}
	m.claims[key] = claim{holder: holder, expires: m.clock.Now().Add(ttl)}
	m.mu.Unlock()
	m.notify(key)
	return true, nil
}

func (m *MemoryStorage) Renew(_ context.Context, key, holder string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.liveLocked(key)
	if !ok || c.holder != holder {
		return false, nil
	}
	m.claims[key] = claim{holder: holder, expires: m.clock.Now().Add(ttl)}
	return true, nil
}

func (m *MemoryStorage) Holder(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, _ := m.liveLocked(key)
	return c.holder, nil
}

func (m *MemoryStorage) ReleaseIf(_ context.Context, key, holder string) (bool, error) {
	m.mu.Lock()
	c, ok := m.liveLocked(key)
	if !ok || c.holder != holder {
		m.mu.Unlock()
		return false, nil
	}
	delete(m.claims, key)
	m.mu.Unlock()
	m.notify(key)
	return true, nil
}

// Watch delivers a signal after every claim or release of key. Signals are
// coalesced when the receiver is slow.
func (m *MemoryStorage) Watch(ctx context.Context, key string) (<-chan struct{}, error) {
	ch := make(chan struct{}, 1)

	m.mu.Lock()
	m.watchers[key] = append(m.watchers[key], ch)
	m.mu.Unlock()

	go func() {
		<-ctx.Done()
		m.mu.Lock()
		defer m.mu.Unlock()
		subs := m.watchers[key]
		for i, c := range subs {
			if c == ch {
				m.watchers[key] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
		close(ch)
	}()

	return ch, nil
}

func (m *MemoryStorage) notify(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ch := range m.watchers[key] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
