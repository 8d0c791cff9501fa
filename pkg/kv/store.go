// Package kv provides a generic thread-safe key-value store.
package kv

import "sync"

// Store is a thread-safe generic key-value store.
type Store[K comparable, V any] struct {
	mu   sync.RWMutex
	data map[K]V
}

// New creates a new key-value store.
func New[K comparable, V any]() *Store[K, V] {
	return &Store[K, V]{
		data: make(map[K]V),
	}
}

// Get retrieves a value by key.
func (s *Store[K, V]) Get(key K) (V, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	val, ok := s.data[key]
	return val, ok
}

// Set stores a value by key.
func (s *Store[K, V]) Set(key K, value V) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
}

// SetIfAbsent stores value only when key has no entry. It returns the value
// held after the call and whether this call stored it.
func (s *Store[K, V]) SetIfAbsent(key K, value V) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.data[key]; ok {
		return cur, false
	}
	s.data[key] = value
	return value, true
}

// Update replaces the value for key with fn(current, exists). If fn returns
// false as its second value the entry is left untouched.
func (s *Store[K, V]) Update(key K, fn func(cur V, ok bool) (V, bool)) V {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.data[key]
	next, write := fn(cur, ok)
	if !write {
		return cur
	}
	s.data[key] = next
	return next
}

// Delete removes a key from the store.
func (s *Store[K, V]) Delete(key K) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
}

// Snapshot returns a copy of every entry.
func (s *Store[K, V]) Snapshot() map[K]V {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[K]V, len(s.data))
	for k, v := range s.data {
		out[k] = v
	}
	return out
}

// Clear removes all entries from the store.
func (s *Store[K, V]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = make(map[K]V)
}

// Len returns the number of items in the store.
func (s *Store[K, V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}
