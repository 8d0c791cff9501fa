package eventbus

// Typed Publish/Subscribe pairs, one per event in events.go.

func (bus *EventBus) PublishAlertDismissed(p AlertDismissedPayload) { bus.send(EventAlertDismissed, p) }

func (bus *EventBus) SubscribeAlertDismissed(fn func(AlertDismissedPayload)) {
	bus.subscribe(EventAlertDismissed, func(v any) { fn(v.(AlertDismissedPayload)) })
}

func (bus *EventBus) PublishAlertPushed(p AlertPushedPayload) { bus.send(EventAlertPushed, p) }

func (bus *EventBus) SubscribeAlertPushed(fn func(AlertPushedPayload)) {
	bus.subscribe(EventAlertPushed, func(v any) { fn(v.(AlertPushedPayload)) })
}

func (bus *EventBus) PublishBadgeChanged(p BadgeChangedPayload) { bus.send(EventBadgeChanged, p) }

func (bus *EventBus) SubscribeBadgeChanged(fn func(BadgeChangedPayload)) {
	bus.subscribe(EventBadgeChanged, func(v any) { fn(v.(BadgeChangedPayload)) })
}

func (bus *EventBus) PublishConfigReloaded(p ConfigReloadedPayload) { bus.send(EventConfigReloaded, p) }

func (bus *EventBus) SubscribeConfigReloaded(fn func(ConfigReloadedPayload)) {
	bus.subscribe(EventConfigReloaded, func(v any) { fn(v.(ConfigReloadedPayload)) })
}

func (bus *EventBus) PublishLeaseChanged(p LeaseChangedPayload) { bus.send(EventLeaseChanged, p) }

func (bus *EventBus) SubscribeLeaseChanged(fn func(LeaseChangedPayload)) {
	bus.subscribe(EventLeaseChanged, func(v any) { fn(v.(LeaseChangedPayload)) })
}

func (bus *EventBus) PublishListChanged(p ListChangedPayload) { bus.send(EventListChanged, p) }

func (bus *EventBus) SubscribeListChanged(fn func(ListChangedPayload)) {
	bus.subscribe(EventListChanged, func(v any) { fn(v.(ListChangedPayload)) })
}

func (bus *EventBus) PublishLiveStatus(p LiveStatusPayload) { bus.send(EventLiveStatus, p) }

func (bus *EventBus) SubscribeLiveStatus(fn func(LiveStatusPayload)) {
	bus.subscribe(EventLiveStatus, func(v any) { fn(v.(LiveStatusPayload)) })
}

func (bus *EventBus) PublishNoticePublished(p NoticePublishedPayload) {
	bus.send(EventNoticePublished, p)
}

func (bus *EventBus) SubscribeNoticePublished(fn func(NoticePublishedPayload)) {
	bus.subscribe(EventNoticePublished, func(v any) { fn(v.(NoticePublishedPayload)) })
}

func (bus *EventBus) PublishObjectMuted(p ObjectMutedPayload) { bus.send(EventObjectMuted, p) }

func (bus *EventBus) SubscribeObjectMuted(fn func(ObjectMutedPayload)) {
	bus.subscribe(EventObjectMuted, func(v any) { fn(v.(ObjectMutedPayload)) })
}

func (bus *EventBus) PublishPreferencesChanged(p PreferencesChangedPayload) {
	bus.send(EventPreferencesChanged, p)
}

func (bus *EventBus) SubscribePreferencesChanged(fn func(PreferencesChangedPayload)) {
	bus.subscribe(EventPreferencesChanged, func(v any) { fn(v.(PreferencesChangedPayload)) })
}

func (bus *EventBus) PublishReadChanged(p ReadChangedPayload) { bus.send(EventReadChanged, p) }

func (bus *EventBus) SubscribeReadChanged(fn func(ReadChangedPayload)) {
	bus.subscribe(EventReadChanged, func(v any) { fn(v.(ReadChangedPayload)) })
}

func (bus *EventBus) PublishTuiStarted(p TUIStartedPayload) { bus.send(EventTuiStarted, p) }

func (bus *EventBus) SubscribeTuiStarted(fn func(TUIStartedPayload)) {
	bus.subscribe(EventTuiStarted, func(v any) { fn(v.(TUIStartedPayload)) })
}

func (bus *EventBus) PublishTuiStopped(p TUIStoppedPayload) { bus.send(EventTuiStopped, p) }

func (bus *EventBus) SubscribeTuiStopped(fn func(TUIStoppedPayload)) {
	bus.subscribe(EventTuiStopped, func(v any) { fn(v.(TUIStoppedPayload)) })
}
