package live

import "sync"

// Badge is the unread counter shown next to the notification bell. A zero
// count removes it; any other count creates or updates it.
type Badge struct {
	mu      sync.RWMutex
	visible bool
	count   Count
}

// Apply updates the badge from a count update and reports whether the
// displayed state changed.
func (b *Badge) Apply(u CountUpdate) bool {
	return b.Set(u.Count)
}

// Set replaces the count.
func (b *Badge) Set(c Count) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	visible := !c.Zero()
	if visible == b.visible && c == b.count {
		return false
	}
	b.visible = visible
	if visible {
		b.count = c
	} else {
		b.count = Count{}
	}
	return true
}

// Visible reports whether the badge is shown.
func (b *Badge) Visible() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.visible
}

// Count returns the current count.
func (b *Badge) Count() Count {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.count
}

// Text returns the badge label, empty when hidden.
func (b *Badge) Text() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.visible {
		return ""
	}
	return b.count.String()
}
