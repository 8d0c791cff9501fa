package tui

import (
	"time"

	"github.com/colonyops/beacon/internal/core/notice"
)

const (
	defaultToastTTL   = 4 * time.Second
	defaultMaxToasts  = 5
	toastTickInterval = 250 * time.Millisecond
	toastWidth        = 50
)

type toast struct {
	notice    notice.Notice
	remaining time.Duration
}

// ToastController manages the lifecycle of transient notices shown as
// toasts. Push alerts from the live channel live in the center's tray.
type ToastController struct {
	ttl    time.Duration
	toasts []toast
}

func NewToastController(ttl time.Duration) *ToastController {
	if ttl <= 0 {
		ttl = defaultToastTTL
	}
	return &ToastController{ttl: ttl}
}

// SetTTL changes the lifetime of toasts pushed from now on.
func (c *ToastController) SetTTL(ttl time.Duration) {
	if ttl > 0 {
		c.ttl = ttl
	}
}

// Push adds a notice to the stack. If the stack exceeds defaultMaxToasts,
// the oldest toast is evicted.
func (c *ToastController) Push(n notice.Notice) {
	c.toasts = append(c.toasts, toast{notice: n, remaining: c.ttl})
	if len(c.toasts) > defaultMaxToasts {
		c.toasts = c.toasts[len(c.toasts)-defaultMaxToasts:]
	}
}

// Tick decrements the remaining TTL on all toasts by d and removes
// any that have expired.
func (c *ToastController) Tick(d time.Duration) {
	alive := c.toasts[:0]
	for _, t := range c.toasts {
		t.remaining -= d
		if t.remaining > 0 {
			alive = append(alive, t)
		}
	}
	c.toasts = alive
}

// Dismiss removes the newest (bottom-most) toast.
func (c *ToastController) Dismiss() {
	if len(c.toasts) > 0 {
		c.toasts = c.toasts[:len(c.toasts)-1]
	}
}

func (c *ToastController) HasToasts() bool {
	return len(c.toasts) > 0
}

func (c *ToastController) Toasts() []toast {
	return c.toasts
}
