package notification

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReadStatusCache_SeedOnce(t *testing.T) {
	c := NewReadStatusCache()

	assert.Equal(t, StateUnknown, c.Get("n1"))
	assert.Equal(t, StateUnread, c.Seed(Notification{ID: "n1", Unread: true}))

	c.Set("n1", StateRead)

	// a second render of the same notification must not re-seed it
	assert.Equal(t, StateRead, c.Seed(Notification{ID: "n1", Unread: true}))
	assert.Equal(t, StateRead, c.Get("n1"))
}

func TestReadStatusCache_LastWriteWins(t *testing.T) {
	c := NewReadStatusCache()

	c.Set("n1", StateRead)
	c.Set("n1", StateUnread)

	assert.Equal(t, StateUnread, c.Get("n1"))
}

func TestReadStatusCache_ConfirmedNeverUnread(t *testing.T) {
	c := NewReadStatusCache()
	c.Seed(Notification{ID: "n1", Unread: true})

	c.Set("n1", StateRead)
	c.Confirm("n1")

	assert.False(t, c.Set("n1", StateUnread))
	c.Revert("n1", StateUnread)

	assert.Equal(t, StateRead, c.Get("n1"))
}

func TestReadStatusCache_RevertRestoresPrevious(t *testing.T) {
	c := NewReadStatusCache()
	c.Seed(Notification{ID: "n1", Unread: true})
	before := c.Snapshot()

	c.Set("n1", StateRead)
	c.Set("n2", StateRead)
	c.Revert("n1", StateUnread)
	c.Revert("n2", StateUnknown)

	assert.Equal(t, before, c.Snapshot())
}

func TestReadStatusCache_ClearResetsConfirmations(t *testing.T) {
	c := NewReadStatusCache()
	c.Confirm("n1")

	c.Clear()

	assert.Equal(t, 0, c.Len())
	assert.Equal(t, StateUnread, c.Seed(Notification{ID: "n1", Unread: true}))
}

func TestReadStatusCache_Unread(t *testing.T) {
	c := NewReadStatusCache()
	c.Seed(Notification{ID: "a", Unread: true})
	c.Seed(Notification{ID: "b", Unread: false})
	c.Seed(Notification{ID: "c", Unread: true})
	c.Set("c", StateRead)

	assert.ElementsMatch(t, []ID{"a"}, c.Unread())
}
