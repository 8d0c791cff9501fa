package center

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/colonyops/beacon/internal/core/cursor"
	"github.com/colonyops/beacon/internal/core/eventbus"
	"github.com/colonyops/beacon/internal/core/mutation"
	"github.com/colonyops/beacon/internal/core/notification"
)

const keyUnreadOnly = "unread_only"

// Load restores the persisted filter and renders the first page.
func (c *Center) Load(ctx context.Context) (cursor.Transition, error) {
	if c.widget != nil {
		v, err := c.widget.GetOr(ctx, keyUnreadOnly, c.unreadOnly.Load())
		if err != nil {
			log.Ctx(ctx).Warn().Err(err).Msg("read widget state")
		}
		c.unreadOnly.Store(v)
	}
	return c.Refresh(ctx)
}

// Refresh replaces the whole list: the cursor restarts, the read cache and
// dwell timers are cleared and the first page is fetched.
func (c *Center) Refresh(ctx context.Context) (cursor.Transition, error) {
	gen := c.cursor.Refresh(c.api.NotificationsURL(c.unreadOnly.Load()))
	c.generation.Store(gen)
	c.cache.Clear()
	c.dwell.Reset()
	c.bus.PublishListChanged(eventbus.ListChangedPayload{Kind: cursor.KindNone, Generation: gen})

	return c.ScrollDown(ctx)
}

// Generation returns the generation of the current list.
func (c *Center) Generation() uint64 { return c.generation.Load() }

// ScrollDown renders the next page. A failure is reported as a notice and
// returned; the window is left as it was.
func (c *Center) ScrollDown(ctx context.Context) (cursor.Transition, error) {
	t, err := c.cursor.ScrollDown(ctx)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			c.notices.Errorf("Could not load notifications")
		}
		return t, fmt.Errorf("scroll down: %w", err)
	}
	c.rendered(t)
	return t, nil
}

// ScrollUp renders the page before the window from the buffer.
func (c *Center) ScrollUp() cursor.Transition {
	t := c.cursor.ScrollUp()
	c.rendered(t)
	return t
}

func (c *Center) rendered(t cursor.Transition) {
	if !t.Changed() {
		return
	}
	for _, n := range t.Notifications {
		c.cache.Seed(n)
	}
	c.bus.PublishListChanged(eventbus.ListChangedPayload{Kind: t.Kind, Generation: t.Generation})
}

// Window returns the rendered pages.
func (c *Center) Window() cursor.Window { return c.cursor.Window() }

// Busy reports whether a scroll is in flight.
func (c *Center) Busy() bool { return c.cursor.Busy() }

// Empty reports whether the collection turned out to have no notifications.
func (c *Center) Empty() bool { return c.cursor.Empty() }

// ReadState returns the cached read state of id.
func (c *Center) ReadState(id notification.ID) notification.ReadState {
	return c.cache.Get(id)
}

// UnreadOnly reports whether the list is filtered to unread notifications.
func (c *Center) UnreadOnly() bool { return c.unreadOnly.Load() }

// SetUnreadOnly switches the filter, persists it and reloads the list.
func (c *Center) SetUnreadOnly(ctx context.Context, v bool) (cursor.Transition, error) {
	c.unreadOnly.Store(v)
	if c.widget != nil {
		if err := c.widget.Set(ctx, keyUnreadOnly, v); err != nil {
			log.Ctx(ctx).Warn().Err(err).Msg("persist unread filter")
		}
	}
	return c.Refresh(ctx)
}

// MarkRead marks one notification read. Ids already read locally issue no
// request. On failure the previous state is restored.
func (c *Center) MarkRead(ctx context.Context, id notification.ID) error {
	var (
		prev notification.ReadState
		gen  uint64
	)

	return c.exec.Run(ctx, mutation.Mutation{
		Key:  mutation.NotificationKey(id.String()),
		Name: "mark-read",
		Apply: func() (func(), error) {
			gen = c.generation.Load()
			prev = c.cache.Get(id)
			if prev == notification.StateRead {
				return nil, nil
			}
			c.cache.Set(id, notification.StateRead)
			c.publishRead([]notification.ID{id}, notification.StateRead)

			return func() {
				if c.stale(ctx, gen, "mark-read rollback") {
					return
				}
				c.cache.Revert(id, prev)
				c.publishRead([]notification.ID{id}, c.cache.Get(id))
			}, nil
		},
		Commit: func(ctx context.Context) error {
			return c.api.MarkRead(ctx, id)
		},
		OnSuccess: func() {
			if c.stale(ctx, gen, "mark-read confirm") {
				return
			}
			c.cache.Confirm(id)
		},
		FailureMsg: "Could not mark notification as read",
	})
}

// MarkAllRead marks every notification read on the server and every cached
// unread notification read locally.
func (c *Center) MarkAllRead(ctx context.Context) error {
	var (
		ids []notification.ID
		gen uint64
	)

	return c.exec.Run(ctx, mutation.Mutation{
		Key:  mutation.KeyNotifications,
		Name: "mark-all-read",
		Apply: func() (func(), error) {
			gen = c.generation.Load()
			ids = c.cache.Unread()
			for _, id := range ids {
				c.cache.Set(id, notification.StateRead)
			}
			c.publishRead(ids, notification.StateRead)

			return func() {
				if c.stale(ctx, gen, "mark-all-read rollback") {
					return
				}
				for _, id := range ids {
					c.cache.Revert(id, notification.StateUnread)
				}
				c.publishRead(ids, notification.StateUnread)
			}, nil
		},
		Commit: func(ctx context.Context) error {
			return c.api.MarkAllRead(ctx)
		},
		OnSuccess: func() {
			if c.stale(ctx, gen, "mark-all-read confirm") {
				return
			}
			for _, id := range ids {
				c.cache.Confirm(id)
			}
		},
		SuccessMsg: "All notifications marked as read",
		FailureMsg: "Could not mark all notifications as read",
	})
}

// stale reports whether the list was replaced since gen. The cache then
// holds the new list's server state and must not be touched.
func (c *Center) stale(ctx context.Context, gen uint64, what string) bool {
	cur := c.generation.Load()
	if cur == gen {
		return false
	}
	log.Ctx(ctx).Debug().
		Uint64("generation", gen).
		Uint64("current", cur).
		Msg("discarding stale " + what)
	return true
}

func (c *Center) publishRead(ids []notification.ID, state notification.ReadState) {
	if len(ids) == 0 {
		return
	}
	c.bus.PublishReadChanged(eventbus.ReadChangedPayload{IDs: ids, State: state})
}

// Observe records which rows are on screen for dwell auto-read.
func (c *Center) Observe(visible []notification.ID) {
	c.dwell.Observe(visible)
}

// DwellTick marks read every unread row that has stayed visible long
// enough. It returns the ids it tried to mark.
func (c *Center) DwellTick(ctx context.Context) []notification.ID {
	var marked []notification.ID
	for _, id := range c.dwell.Due() {
		if c.cache.Get(id) != notification.StateUnread {
			continue
		}
		marked = append(marked, id)
		if err := c.MarkRead(ctx, id); err != nil {
			log.Ctx(ctx).Debug().Err(err).Str("id", id.String()).Msg("dwell mark read")
		}
	}
	return marked
}
