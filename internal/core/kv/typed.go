package kv

import (
	"context"
	"errors"
	"strings"
	"time"
)

// TypedKV namespaces a KV and fixes its value type.
type TypedKV[T any] struct {
	store  KV
	prefix string
}

// Scoped returns a TypedKV[T] whose keys are stored as "namespace:key".
func Scoped[T any](store KV, namespace string) *TypedKV[T] {
	return &TypedKV[T]{store: store, prefix: namespace + ":"}
}

func (t *TypedKV[T]) Get(ctx context.Context, key string) (T, error) {
	var v T
	err := t.store.Get(ctx, t.prefix+key, &v)
	return v, err
}

// GetOr returns fallback when key is missing. Other errors are returned.
func (t *TypedKV[T]) GetOr(ctx context.Context, key string, fallback T) (T, error) {
	v, err := t.Get(ctx, key)
	if err == nil {
		return v, nil
	}
	if errors.Is(err, ErrNotFound) {
		return fallback, nil
	}
	return fallback, err
}

func (t *TypedKV[T]) Set(ctx context.Context, key string, value T) error {
	return t.store.Set(ctx, t.prefix+key, value)
}

// SetTTL stores value until ttl elapses. A non-positive ttl stores forever.
func (t *TypedKV[T]) SetTTL(ctx context.Context, key string, value T, ttl time.Duration) error {
	if ttl <= 0 {
		return t.Set(ctx, key, value)
	}
	return t.store.SetTTL(ctx, t.prefix+key, value, ttl)
}

func (t *TypedKV[T]) Delete(ctx context.Context, key string) error {
	return t.store.Delete(ctx, t.prefix+key)
}

func (t *TypedKV[T]) Has(ctx context.Context, key string) (bool, error) {
	return t.store.Has(ctx, t.prefix+key)
}

// Keys lists the live keys in this namespace with the prefix stripped.
func (t *TypedKV[T]) Keys(ctx context.Context) ([]string, error) {
	all, err := t.store.ListKeys(ctx)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, k := range all {
		if rest, ok := strings.CutPrefix(k, t.prefix); ok {
			out = append(out, rest)
		}
	}
	return out, nil
}
