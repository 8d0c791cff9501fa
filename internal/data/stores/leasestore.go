package stores

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/colonyops/beacon/internal/core/lease"
	"github.com/colonyops/beacon/internal/data/db"
	"github.com/colonyops/beacon/pkg/clock"
)

// LeaseStore implements lease.Storage on the kv_store table so clients on
// one machine share the audio lease through the database file. It has no
// change feed; lease.Lease polls it.
type LeaseStore struct {
	db    *db.DB
	clock clock.Clocker
}

var _ lease.Storage = (*LeaseStore)(nil)

// NewLeaseStore creates a SQLite-backed lease storage. A nil clock uses wall time.
func NewLeaseStore(database *db.DB, c clock.Clocker) *LeaseStore {
	if c == nil {
		c = clock.Real{}
	}
	return &LeaseStore{db: database, clock: c}
}

func (s *LeaseStore) params(key, holder string, ttl time.Duration) db.KVSetParams {
	now := s.clock.Now()
	return db.KVSetParams{
		Key:       key,
		Value:     []byte(holder),
		ExpiresAt: sql.NullInt64{Int64: now.Add(ttl).UnixNano(), Valid: true},
		Now:       now.UnixNano(),
	}
}

func (s *LeaseStore) Claim(ctx context.Context, key, holder string, ttl time.Duration) error {
	if err := s.db.Queries().KVSet(ctx, s.params(key, holder, ttl)); err != nil {
		return fmt.Errorf("claim %q: %w", key, err)
	}
	return nil
}

func (s *LeaseStore) ClaimIfAbsent(ctx context.Context, key, holder string, ttl time.Duration) (bool, error) {
	ok, err := s.db.Queries().KVSetIfAbsent(ctx, s.params(key, holder, ttl))
	if err != nil {
		// another tab holds the write lock; it is claiming too
		if IsBusyError(err) {
			return false, nil
		}
		return false, fmt.Errorf("claim %q if absent: %w", key, err)
	}
	return ok, nil
}

func (s *LeaseStore) Renew(ctx context.Context, key, holder string, ttl time.Duration) (bool, error) {
	ok, err := s.db.Queries().KVUpdateIfValue(ctx, s.params(key, holder, ttl))
	if err != nil {
		return false, fmt.Errorf("renew %q: %w", key, err)
	}
	return ok, nil
}

func (s *LeaseStore) Holder(ctx context.Context, key string) (string, error) {
	row, err := s.db.Queries().KVGet(ctx, key)
	if err != nil {
		if IsNotFoundError(err) {
			return "", nil
		}
		return "", fmt.Errorf("read %q: %w", key, err)
	}
	if expired(row, s.clock.Now()) {
		return "", nil
	}
	return string(row.Value), nil
}

func (s *LeaseStore) ReleaseIf(ctx context.Context, key, holder string) (bool, error) {
	ok, err := s.db.Queries().KVDeleteIfValue(ctx, key, []byte(holder))
	if err != nil {
		return false, fmt.Errorf("release %q: %w", key, err)
	}
	return ok, nil
}
