// Package eventbus provides a typed publish/subscribe event bus for
// cross-component communication within beacon.
package eventbus

import (
	"time"

	"github.com/colonyops/beacon/internal/core/config"
	"github.com/colonyops/beacon/internal/core/cursor"
	"github.com/colonyops/beacon/internal/core/live"
	"github.com/colonyops/beacon/internal/core/notice"
	"github.com/colonyops/beacon/internal/core/notification"
	"github.com/colonyops/beacon/internal/core/prefs"
)

// Keep list sorted A-Z
const (
	EventAlertDismissed     Event = "alert.dismissed"
	EventAlertPushed        Event = "alert.pushed"
	EventBadgeChanged       Event = "badge.changed"
	EventConfigReloaded     Event = "config.reloaded"
	EventLeaseChanged       Event = "lease.changed"
	EventListChanged        Event = "list.changed"
	EventLiveStatus         Event = "live.status"
	EventNoticePublished    Event = "notice.published"
	EventObjectMuted        Event = "object.muted"
	EventPreferencesChanged Event = "preferences.changed"
	EventReadChanged        Event = "read.changed"
	EventTuiStarted         Event = "tui.started"
	EventTuiStopped         Event = "tui.stopped"
)

// AlertPushedPayload is emitted when a push notification becomes a toast.
type AlertPushedPayload struct {
	Notification notification.Notification
	Audible      bool
}

// AlertDismissedPayload is emitted when a toast closes.
type AlertDismissedPayload struct {
	ID      notification.ID
	Clicked bool
}

// BadgeChangedPayload is emitted when the unread badge changes.
type BadgeChangedPayload struct {
	Count live.Count
}

type ConfigReloadedPayload struct {
	Config *config.Config
}

// LeaseChangedPayload is emitted when this client gains or loses the
// audio lease.
type LeaseChangedPayload struct {
	Held bool
}

// ListChangedPayload is emitted when the rendered window changes.
type ListChangedPayload struct {
	Kind       cursor.Kind
	Generation uint64
}

type LiveStatusPayload struct {
	Connected bool
}

type NoticePublishedPayload struct {
	Notice notice.Notice
}

// ObjectMutedPayload reports the mute state of the configured object.
// ValidTill nil with Muted true is a permanent mute.
type ObjectMutedPayload struct {
	Object    string
	Muted     bool
	ValidTill *time.Time
}

// PreferencesChangedPayload is emitted after the matrix changes, including
// rollbacks.
type PreferencesChangedPayload struct {
	Scope      prefs.Scope
	RolledBack bool
}

// ReadChangedPayload is emitted when read states change locally.
type ReadChangedPayload struct {
	IDs   []notification.ID
	State notification.ReadState
}

type TUIStartedPayload struct{}

type TUIStoppedPayload struct{}
