package eventbus

import (
	"sync"
)

// Noticer is the subset of notice.Bus the router needs.
type Noticer interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
}

// NotificationRouter turns bus events into user-facing notices.
type NotificationRouter struct {
	bus     *EventBus
	notices Noticer

	mu         sync.Mutex
	wasOffline bool
}

func NewNotificationRouter(bus *EventBus, notices Noticer) *NotificationRouter {
	return &NotificationRouter{bus: bus, notices: notices}
}

// Register subscribes all supported event mappings.
func (r *NotificationRouter) Register() {
	if r == nil || r.bus == nil || r.notices == nil {
		return
	}

	r.bus.SubscribeLiveStatus(func(p LiveStatusPayload) {
		r.mu.Lock()
		defer r.mu.Unlock()

		switch {
		case !p.Connected && !r.wasOffline:
			r.wasOffline = true
			r.notices.Warnf("Live updates disconnected, reconnecting")
		case p.Connected && r.wasOffline:
			r.wasOffline = false
			r.notices.Infof("Live updates restored")
		}
	})

	r.bus.SubscribeObjectMuted(func(p ObjectMutedPayload) {
		switch {
		case !p.Muted:
			r.notices.Infof("Notifications for %s enabled", p.Object)
		case p.ValidTill == nil:
			r.notices.Infof("Notifications for %s disabled permanently", p.Object)
		default:
			r.notices.Infof("Notifications for %s disabled until %s", p.Object, p.ValidTill.Local().Format("Jan 2 15:04"))
		}
	})

	r.bus.SubscribeConfigReloaded(func(ConfigReloadedPayload) {
		r.notices.Infof("Configuration reloaded")
	})
}
