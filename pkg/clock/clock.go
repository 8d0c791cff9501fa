// Package clock abstracts time so callers can swap in a fake in tests.
package clock

import (
	"sync"
	"time"
)

// Clocker returns the current time.
type Clocker interface {
	Now() time.Time
}

// Real reads the system clock.
type Real struct{}

// Now implements Clocker.
func (Real) Now() time.Time { return time.Now() }

// Fake is a manually advanced clock. Safe for concurrent use.
type Fake struct {
	mu  sync.Mutex
	now time.Time
}

// NewFake returns a fake clock set to t.
func NewFake(t time.Time) *Fake { return &Fake{now: t} }

// Now implements Clocker.
func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Advance moves the clock forward by d.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

// Set moves the clock to t.
func (f *Fake) Set(t time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = t
}
