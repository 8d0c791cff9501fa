package stores

import (
	"context"
	"testing"
	"time"

	"github.com/colonyops/beacon/internal/core/lease"
	"github.com/colonyops/beacon/pkg/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLeaseStore_ClaimAndRelease(t *testing.T) {
	ctx := context.Background()
	fake := clock.NewFake(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	store := NewLeaseStore(openTestDB(t), fake)

	ok, err := store.ClaimIfAbsent(ctx, "k", "tab-a", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.ClaimIfAbsent(ctx, "k", "tab-b", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "live claim blocks")

	holder, err := store.Holder(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "tab-a", holder)

	released, err := store.ReleaseIf(ctx, "k", "tab-b")
	require.NoError(t, err)
	assert.False(t, released, "only the holder releases")

	released, err = store.ReleaseIf(ctx, "k", "tab-a")
	require.NoError(t, err)
	assert.True(t, released)

	holder, err = store.Holder(ctx, "k")
	require.NoError(t, err)
	assert.Empty(t, holder)
}

func TestLeaseStore_ClaimSteals(t *testing.T) {
	ctx := context.Background()
	store := NewLeaseStore(openTestDB(t), nil)

	require.NoError(t, store.Claim(ctx, "k", "tab-a", time.Minute))
	require.NoError(t, store.Claim(ctx, "k", "tab-b", time.Minute))

	holder, err := store.Holder(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "tab-b", holder)

	renewed, err := store.Renew(ctx, "k", "tab-a", time.Minute)
	require.NoError(t, err)
	assert.False(t, renewed)
}

func TestLeaseStore_ExpiredClaimIsAbsent(t *testing.T) {
	ctx := context.Background()
	fake := clock.NewFake(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	store := NewLeaseStore(openTestDB(t), fake)

	require.NoError(t, store.Claim(ctx, "k", "tab-a", 10*time.Second))

	fake.Advance(5 * time.Second)
	renewed, err := store.Renew(ctx, "k", "tab-a", 10*time.Second)
	require.NoError(t, err)
	assert.True(t, renewed)

	fake.Advance(11 * time.Second)
	holder, err := store.Holder(ctx, "k")
	require.NoError(t, err)
	assert.Empty(t, holder)

	ok, err := store.ClaimIfAbsent(ctx, "k", "tab-b", 10*time.Second)
	require.NoError(t, err)
	assert.True(t, ok, "expired claim is replaced")
}

func TestLeaseStore_TwoClientsShareOneLease(t *testing.T) {
	ctx := context.Background()
	store := NewLeaseStore(openTestDB(t), nil)

	a := lease.New(store, "tab-a", lease.WithKey("beacon:test"))
	b := lease.New(store, "tab-b", lease.WithKey("beacon:test"))

	require.NoError(t, a.Acquire(ctx))
	require.NoError(t, b.Acquire(ctx))

	heldA, err := a.IsHeld(ctx)
	require.NoError(t, err)
	heldB, err := b.IsHeld(ctx)
	require.NoError(t, err)
	assert.False(t, heldA)
	assert.True(t, heldB)

	require.NoError(t, b.Release(ctx))

	held, err := a.OnChange(ctx)
	require.NoError(t, err)
	assert.True(t, held, "a reclaims the absent lease")
}
