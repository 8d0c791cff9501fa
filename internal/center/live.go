package center

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/colonyops/beacon/internal/core/alert"
	"github.com/colonyops/beacon/internal/core/eventbus"
	"github.com/colonyops/beacon/internal/core/live"
	"github.com/colonyops/beacon/internal/core/notification"
	"github.com/colonyops/beacon/internal/transport/ws"
)

func (c *Center) registerLiveHandlers() {
	live.On(c.live, func(ctx context.Context, m live.CountUpdate) {
		if c.badge.Apply(m) {
			c.bus.PublishBadgeChanged(eventbus.BadgeChangedPayload{Count: m.Count})
		}
	})

	live.On(c.live, func(ctx context.Context, _ live.ReloadSignal) {
		if _, err := c.Refresh(ctx); err != nil {
			log.Ctx(ctx).Warn().Err(err).Msg("reload after server signal")
		}
	})

	live.On(c.live, func(ctx context.Context, m live.PushNotification) {
		c.PushAlert(ctx, m.Notification)
	})

	live.On(c.live, func(ctx context.Context, m live.ObjectAck) {
		ref := c.Config().Live.Object
		if ref == nil {
			return
		}
		s := MuteState{Muted: true, ValidTill: m.ValidTill}
		c.rememberMute(ctx, *ref, s)
		c.publishMute(*ref, s)
	})
}

// Dispatcher exposes the live dispatch table so callers can add handlers.
func (c *Center) Dispatcher() *live.Dispatcher { return c.live }

// HandleFrame decodes one live frame and applies it. Malformed frames are
// logged and ignored.
func (c *Center) HandleFrame(ctx context.Context, frame []byte) {
	if err := c.live.Dispatch(ctx, frame); err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("ignoring live frame")
	}
}

// RunLive attaches the center to a live channel client and runs it until
// ctx is done. The configured object subscription is sent on every
// connect.
func (c *Center) RunLive(ctx context.Context, client *ws.Client) error {
	client.OnOpen(func(ctx context.Context, cl *ws.Client) {
		ref := c.Config().Live.Object
		if ref == nil {
			return
		}
		if err := cl.Send(live.NewObjectSubscribe(ref.AppLabel, ref.ModelName, ref.ObjectID)); err != nil {
			log.Ctx(ctx).Warn().Err(err).Str("object", ref.String()).Msg("subscribe to object")
		}
	})
	client.OnStatus(func(connected bool) {
		c.bus.PublishLiveStatus(eventbus.LiveStatusPayload{Connected: connected})
	})
	return client.Run(ctx, c.HandleFrame)
}

// Badge returns the unread badge.
func (c *Center) Badge() live.Count { return c.badge.Count() }

// BadgeVisible reports whether the badge is shown.
func (c *Center) BadgeVisible() bool { return c.badge.Visible() }

// PushAlert shows n as a toast and plays the alert sound when this process
// holds the audio lease.
func (c *Center) PushAlert(ctx context.Context, n notification.Notification) alert.Alert {
	a, evicted := c.tray.Push(n)
	c.cache.Seed(n)
	for _, e := range evicted {
		c.bus.PublishAlertDismissed(eventbus.AlertDismissedPayload{ID: e.Notification.ID})
	}

	audible, err := c.player.Play(ctx, n)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("id", n.ID.String()).Msg("play alert sound")
	}
	c.bus.PublishAlertPushed(eventbus.AlertPushedPayload{Notification: n, Audible: audible})
	return a
}

// Alerts returns the open toasts, oldest first.
func (c *Center) Alerts() []alert.Alert { return c.tray.Active() }

// DismissAlert closes the toast for id without acting on it.
func (c *Center) DismissAlert(id notification.ID) bool {
	if _, ok := c.tray.Dismiss(id); !ok {
		return false
	}
	c.bus.PublishAlertDismissed(eventbus.AlertDismissedPayload{ID: id})
	return true
}

// ExpireAlerts closes toasts past their deadline.
func (c *Center) ExpireAlerts() []alert.Alert {
	expired := c.tray.Expire()
	for _, a := range expired {
		c.bus.PublishAlertDismissed(eventbus.AlertDismissedPayload{ID: a.Notification.ID})
	}
	return expired
}

// ClickAlert closes the toast, marks its notification read and opens its
// target.
func (c *Center) ClickAlert(ctx context.Context, id notification.ID) error {
	a, ok := c.tray.Dismiss(id)
	if !ok {
		return nil
	}
	c.bus.PublishAlertDismissed(eventbus.AlertDismissedPayload{ID: id, Clicked: true})
	return c.Open(ctx, a.Notification)
}

// Open marks n read and navigates to its target. A failed mark-read does
// not block navigation.
func (c *Center) Open(ctx context.Context, n notification.Notification) error {
	if err := c.MarkRead(ctx, n.ID); err != nil {
		log.Ctx(ctx).Debug().Err(err).Str("id", n.ID.String()).Msg("mark read before open")
	}

	err := c.nav.Open(ctx, n)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, alert.ErrNoTarget):
		return nil
	default:
		c.notices.Warnf("Could not open %s", n.TargetURL)
		return err
	}
}
