package notice

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/colonyops/beacon/pkg/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	items  []Notice
	nextID int64
	err    error
}

func (m *memStore) Save(_ context.Context, n Notice) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	m.nextID++
	n.ID = m.nextID
	m.items = append(m.items, n)
	return n.ID, nil
}

func (m *memStore) List(_ context.Context, limit int) ([]Notice, error) {
	out := make([]Notice, 0, len(m.items))
	for i := len(m.items) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.items[i])
	}
	return out, nil
}

func (m *memStore) Clear(_ context.Context) error {
	m.items = nil
	return nil
}

func (m *memStore) Count(_ context.Context) (int64, error) {
	return int64(len(m.items)), nil
}

func TestBus_PublishAssignsIDBeforeDispatch(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	bus := NewBus(&memStore{}, clock.NewFake(now))

	var got []Notice
	bus.Subscribe(func(n Notice) { got = append(got, n) })

	bus.Infof("hello %s", "world")

	require.Len(t, got, 1)
	assert.Equal(t, int64(1), got[0].ID)
	assert.Equal(t, LevelInfo, got[0].Level)
	assert.Equal(t, "hello world", got[0].Message)
	assert.Equal(t, now, got[0].CreatedAt)
}

func TestBus_StoreFailureStillDispatches(t *testing.T) {
	bus := NewBus(&memStore{err: errors.New("disk full")}, nil)

	var got []Notice
	bus.Subscribe(func(n Notice) { got = append(got, n) })
	bus.Errorf("boom")

	require.Len(t, got, 1)
	assert.Zero(t, got[0].ID)
	assert.Equal(t, LevelError, got[0].Level)
}

func TestBus_MutationNotifier(t *testing.T) {
	bus := NewBus(nil, nil)

	var got []Notice
	bus.Subscribe(func(n Notice) { got = append(got, n) })

	bus.Success("Preferences updated")
	bus.Failure("Could not update preferences", errors.New("500"))

	require.Len(t, got, 2)
	assert.Equal(t, LevelSuccess, got[0].Level)
	assert.Equal(t, LevelError, got[1].Level)
	assert.Equal(t, "Could not update preferences", got[1].Message)
}

func TestBus_HistoryAndClear(t *testing.T) {
	ctx := context.Background()
	store := &memStore{}
	bus := NewBus(store, nil)

	bus.Infof("first")
	bus.Warnf("second")
	bus.Successf("third")

	history, err := bus.History(ctx)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "third", history[0].Message)
	assert.Equal(t, "first", history[2].Message)

	require.NoError(t, bus.Clear(ctx))
	history, err = bus.History(ctx)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestBus_NoStore(t *testing.T) {
	bus := NewBus(nil, nil)
	bus.Infof("x")

	history, err := bus.History(context.Background())
	require.NoError(t, err)
	assert.Nil(t, history)
	assert.NoError(t, bus.Clear(context.Background()))
}
