package notification

import "github.com/colonyops/beacon/pkg/kv"

// ReadState is the cached read status of a notification.
type ReadState uint8

const (
	StateUnknown ReadState = iota
	StateUnread
	StateRead
)

func (s ReadState) String() string {
	switch s {
	case StateUnread:
		return "unread"
	case StateRead:
		return "read"
	default:
		return "unknown"
	}
}

func stateOf(unread bool) ReadState {
	if unread {
		return StateUnread
	}
	return StateRead
}

type entry struct {
	state     ReadState
	confirmed bool
}

// ReadStatusCache maps notification ids to their read state. It is the only
// source consulted when deciding whether a mark-read request is needed.
//
// An id whose read state was confirmed by the server never reports unread
// again until the cache is cleared.
type ReadStatusCache struct {
	entries *kv.Store[ID, entry]
}

// NewReadStatusCache returns an empty cache.
func NewReadStatusCache() *ReadStatusCache {
	return &ReadStatusCache{entries: kv.New[ID, entry]()}
}

// Get returns the cached state, or StateUnknown when id was never seen.
func (c *ReadStatusCache) Get(id ID) ReadState {
	e, ok := c.entries.Get(id)
	if !ok {
		return StateUnknown
	}
	return e.state
}

// Set stores state for id, last write wins. Setting a confirmed id back to
// unread is ignored; the return value reports whether the write happened.
func (c *ReadStatusCache) Set(id ID, state ReadState) bool {
	applied := false
	c.entries.Update(id, func(cur entry, _ bool) (entry, bool) {
		if cur.confirmed && state != StateRead {
			return cur, false
		}
		applied = true
		return entry{state: state, confirmed: cur.confirmed}, true
	})
	return applied
}

// Seed records the server-provided unread flag the first time n is
// observed and returns the state held afterwards.
func (c *ReadStatusCache) Seed(n Notification) ReadState {
	e, _ := c.entries.SetIfAbsent(n.ID, entry{state: stateOf(n.Unread)})
	return e.state
}

// Confirm marks id read as acknowledged by the server.
func (c *ReadStatusCache) Confirm(id ID) {
	c.entries.Set(id, entry{state: StateRead, confirmed: true})
}

// Revert restores prev for a failed mutation. Confirmed ids are left alone,
// and restoring StateUnknown removes the entry.
func (c *ReadStatusCache) Revert(id ID, prev ReadState) {
	cur, ok := c.entries.Get(id)
	if ok && cur.confirmed {
		return
	}
	if prev == StateUnknown {
		c.entries.Delete(id)
		return
	}
	c.entries.Set(id, entry{state: prev})
}

// Unread returns the ids currently cached as unread.
func (c *ReadStatusCache) Unread() []ID {
	var ids []ID
	for id, e := range c.entries.Snapshot() {
		if e.state == StateUnread {
			ids = append(ids, id)
		}
	}
	return ids
}

// Snapshot returns the state of every cached id.
func (c *ReadStatusCache) Snapshot() map[ID]ReadState {
	snap := c.entries.Snapshot()
	out := make(map[ID]ReadState, len(snap))
	for id, e := range snap {
		out[id] = e.state
	}
	return out
}

// Len returns the number of cached ids.
func (c *ReadStatusCache) Len() int { return c.entries.Len() }

// Clear drops every entry, confirmations included. Call it whenever the
// list is replaced wholesale.
func (c *ReadStatusCache) Clear() { c.entries.Clear() }
