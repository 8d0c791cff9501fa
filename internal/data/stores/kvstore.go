package stores

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/colonyops/beacon/internal/core/kv"
	"github.com/colonyops/beacon/internal/data/db"
	"github.com/colonyops/beacon/pkg/clock"
)

// KVStore implements kv.KV on the kv_store table.
type KVStore struct {
	db    *db.DB
	clock clock.Clocker
}

var _ kv.KV = (*KVStore)(nil)

// NewKVStore creates a SQLite-backed KV store. A nil clock uses wall time.
func NewKVStore(database *db.DB, c clock.Clocker) *KVStore {
	if c == nil {
		c = clock.Real{}
	}
	return &KVStore{db: database, clock: c}
}

// Get decodes the value at key into dest. Missing and expired keys return
// an error wrapping kv.ErrNotFound; expired rows are removed on the way.
func (s *KVStore) Get(ctx context.Context, key string, dest any) error {
	row, err := s.live(ctx, key)
	if err != nil {
		return fmt.Errorf("kv get %q: %w", key, err)
	}
	if err := json.Unmarshal(row.Value, dest); err != nil {
		return fmt.Errorf("kv get %q unmarshal: %w", key, err)
	}
	return nil
}

func (s *KVStore) Set(ctx context.Context, key string, value any) error {
	return s.set(ctx, key, value, sql.NullInt64{})
}

func (s *KVStore) SetTTL(ctx context.Context, key string, value any, ttl time.Duration) error {
	expiresAt := s.clock.Now().Add(ttl).UnixNano()
	return s.set(ctx, key, value, sql.NullInt64{Int64: expiresAt, Valid: true})
}

func (s *KVStore) Delete(ctx context.Context, key string) error {
	if err := s.db.Queries().KVDelete(ctx, key); err != nil {
		return fmt.Errorf("kv delete %q: %w", key, err)
	}
	return nil
}

func (s *KVStore) Has(ctx context.Context, key string) (bool, error) {
	_, err := s.live(ctx, key)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, kv.ErrNotFound):
		return false, nil
	default:
		return false, fmt.Errorf("kv has %q: %w", key, err)
	}
}

// ListKeys returns the unexpired keys in sorted order.
func (s *KVStore) ListKeys(ctx context.Context) ([]string, error) {
	keys, err := s.db.Queries().KVListKeys(ctx, s.clock.Now().UnixNano())
	if err != nil {
		return nil, fmt.Errorf("kv list keys: %w", err)
	}
	return keys, nil
}

// SweepExpired deletes every row whose TTL has passed.
func (s *KVStore) SweepExpired(ctx context.Context) error {
	if err := s.db.Queries().KVSweepExpired(ctx, s.clock.Now().UnixNano()); err != nil {
		return fmt.Errorf("kv sweep expired: %w", err)
	}
	return nil
}

func (s *KVStore) live(ctx context.Context, key string) (db.KVRow, error) {
	row, err := s.db.Queries().KVGet(ctx, key)
	if err != nil {
		if IsNotFoundError(err) {
			return row, kv.ErrNotFound
		}
		return row, err
	}
	if expired(row, s.clock.Now()) {
		_ = s.db.Queries().KVDelete(ctx, key)
		return row, kv.ErrNotFound
	}
	return row, nil
}

func (s *KVStore) set(ctx context.Context, key string, value any, expiresAt sql.NullInt64) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("kv set %q marshal: %w", key, err)
	}

	if err := s.db.Queries().KVSet(ctx, db.KVSetParams{
		Key:       key,
		Value:     data,
		ExpiresAt: expiresAt,
		Now:       s.clock.Now().UnixNano(),
	}); err != nil {
		return fmt.Errorf("kv set %q: %w", key, err)
	}
	return nil
}

func expired(row db.KVRow, now time.Time) bool {
	return row.ExpiresAt.Valid && row.ExpiresAt.Int64 <= now.UnixNano()
}
