package kv

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStore_GetSet(t *testing.T) {
	s := New[string, int]()

	s.Set("n1", 42)
	val, ok := s.Get("n1")
	assert.True(t, ok)
	assert.Equal(t, 42, val)

	_, ok = s.Get("n2")
	assert.False(t, ok)
}

func TestStore_SetIfAbsent(t *testing.T) {
	s := New[string, string]()

	got, stored := s.SetIfAbsent("n1", "unread")
	assert.True(t, stored)
	assert.Equal(t, "unread", got)

	got, stored = s.SetIfAbsent("n1", "read")
	assert.False(t, stored)
	assert.Equal(t, "unread", got)
}

func TestStore_Update(t *testing.T) {
	s := New[string, int]()

	s.Update("a", func(cur int, ok bool) (int, bool) {
		assert.False(t, ok)
		return cur + 1, true
	})
	s.Update("a", func(cur int, ok bool) (int, bool) {
		return 0, false
	})

	val, _ := s.Get("a")
	assert.Equal(t, 1, val)
}

func TestStore_SnapshotIsCopy(t *testing.T) {
	s := New[string, int]()
	s.Set("a", 1)
	s.Set("b", 2)

	snap := s.Snapshot()
	s.Delete("a")

	assert.Len(t, snap, 2)
	assert.Equal(t, 1, s.Len())
}

func TestStore_Clear(t *testing.T) {
	s := New[string, int]()
	s.Set("a", 1)
	s.Set("b", 2)

	s.Clear()

	assert.Equal(t, 0, s.Len())
	assert.Empty(t, s.Snapshot())
}

func TestStore_Concurrent(t *testing.T) {
	s := New[int, int]()
	var wg sync.WaitGroup

	for i := range 50 {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			s.Update(0, func(cur int, _ bool) (int, bool) { return cur + 1, true })
			s.Set(n, n)
		}(i)
	}
	wg.Wait()

	total, _ := s.Get(0)
	assert.Equal(t, 50, total)
}
