// Package kv defines the small persistent key-value surface used for widget
// state that should survive restarts (the unread-only toggle, cached object
// mute windows).
package kv

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Get for missing or expired keys.
var ErrNotFound = errors.New("kv: key not found")

// KV is a string-keyed store of JSON values with optional expiry.
type KV interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any) error
	SetTTL(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Has(ctx context.Context, key string) (bool, error)
	ListKeys(ctx context.Context) ([]string, error)
}
