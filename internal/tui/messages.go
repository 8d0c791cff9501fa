package tui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"

	"github.com/colonyops/beacon/internal/core/alert"
	"github.com/colonyops/beacon/internal/core/config"
	"github.com/colonyops/beacon/internal/core/cursor"
	"github.com/colonyops/beacon/internal/core/eventbus"
	"github.com/colonyops/beacon/internal/core/mutation"
	"github.com/colonyops/beacon/internal/core/notice"
	"github.com/colonyops/beacon/internal/core/notification"
	"github.com/colonyops/beacon/internal/core/prefs"
)

type (
	// windowMsg reports a finished scroll or refresh.
	windowMsg struct {
		t   cursor.Transition
		err error
	}
	prefsMsg struct {
		matrix *prefs.Matrix
		err    error
	}
	historyMsg struct {
		notices []notice.Notice
		err     error
	}
	alertsMsg []alert.Alert
	configMsg *config.Config
	actionMsg struct{ err error }
	muteMsg   struct{ muted bool }
	dwellMsg  []notification.ID
)

// subscribe forwards bus events into the program's message channel.
// Sends never block: a full channel drops the event, and the next event
// or tick re-syncs from the center.
func (m *Model) subscribe(bus *eventbus.EventBus) {
	bus.SubscribeListChanged(func(p eventbus.ListChangedPayload) { m.send(p) })
	bus.SubscribeReadChanged(func(p eventbus.ReadChangedPayload) { m.send(p) })
	bus.SubscribeBadgeChanged(func(p eventbus.BadgeChangedPayload) { m.send(p) })
	bus.SubscribeAlertPushed(func(p eventbus.AlertPushedPayload) { m.send(p) })
	bus.SubscribeAlertDismissed(func(p eventbus.AlertDismissedPayload) { m.send(p) })
	bus.SubscribePreferencesChanged(func(p eventbus.PreferencesChangedPayload) { m.send(p) })
	bus.SubscribeLiveStatus(func(p eventbus.LiveStatusPayload) { m.send(p) })
	bus.SubscribeLeaseChanged(func(p eventbus.LeaseChangedPayload) { m.send(p) })
	bus.SubscribeObjectMuted(func(p eventbus.ObjectMutedPayload) { m.send(p) })
	bus.SubscribeNoticePublished(func(p eventbus.NoticePublishedPayload) { m.send(p) })
}

func (m *Model) send(msg tea.Msg) {
	select {
	case m.inbox <- msg:
	default:
		log.Debug().Msg("tui inbox full, dropping event")
	}
}

func waitForMsg(ch <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return nil
		}
		return msg
	}
}

func waitForReload(ch <-chan *config.Config) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		cfg, ok := <-ch
		if !ok {
			return nil
		}
		return configMsg(cfg)
	}
}

func (m *Model) loadCmd() tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		if err := m.center.Focus(ctx); err != nil {
			log.Warn().Err(err).Msg("claim audio lease")
		}
		t, err := m.center.Load(ctx)
		return windowMsg{t: t, err: err}
	}
}

func (m *Model) scrollDownCmd() tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		t, err := m.center.ScrollDown(ctx)
		return windowMsg{t: t, err: err}
	}
}

func (m *Model) scrollUpCmd() tea.Cmd {
	return func() tea.Msg {
		return windowMsg{t: m.center.ScrollUp()}
	}
}

func (m *Model) refreshCmd() tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		t, err := m.center.Refresh(ctx)
		return windowMsg{t: t, err: err}
	}
}

func (m *Model) unreadOnlyCmd(v bool) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		t, err := m.center.SetUnreadOnly(ctx, v)
		return windowMsg{t: t, err: err}
	}
}

// action runs fn against the center and reports only its error.
func (m *Model) action(fn func(ctx context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return actionMsg{err: fn(ctx)}
	}
}

func (m *Model) loadPrefsCmd() tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		mx, err := m.center.LoadPreferences(ctx)
		return prefsMsg{matrix: mx, err: err}
	}
}

func (m *Model) historyCmd() tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		list, err := m.center.Notices().History(ctx)
		return historyMsg{notices: list, err: err}
	}
}

func (m *Model) clearHistoryCmd() tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		if err := m.center.Notices().Clear(ctx); err != nil {
			return historyMsg{err: err}
		}
		return historyMsg{}
	}
}

func (m *Model) expireAlertsCmd() tea.Cmd {
	return func() tea.Msg {
		if len(m.center.ExpireAlerts()) == 0 {
			return nil
		}
		return alertsMsg(m.center.Alerts())
	}
}

// dwellCmd feeds the rows on screen to the dwell tracker and marks read the
// ones that stayed long enough.
func (m *Model) dwellCmd(visible []notification.ID) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		m.center.Observe(visible)
		marked := m.center.DwellTick(ctx)
		if len(marked) == 0 {
			return nil
		}
		return dwellMsg(marked)
	}
}

func (m *Model) reconfigureCmd(cfg *config.Config) tea.Cmd {
	return func() tea.Msg {
		m.center.Reconfigure(cfg)
		return nil
	}
}

func (m *Model) muteStateCmd() tea.Cmd {
	ref := m.center.Config().Live.Object
	if ref == nil {
		return nil
	}
	ctx := m.ctx
	return func() tea.Msg {
		s, err := m.center.ObjectMute(ctx, *ref)
		if err != nil {
			log.Debug().Err(err).Msg("read object mute")
			return nil
		}
		return muteMsg{muted: s.Active(m.now())}
	}
}

func (m *Model) closeCmd() tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		if err := m.center.Close(ctx); err != nil {
			log.Warn().Err(err).Msg("release audio lease")
		}
		m.bus.PublishTuiStopped(eventbus.TUIStoppedPayload{})
		return nil
	}
}

func ignorable(err error) bool {
	return err == nil || errors.Is(err, mutation.ErrConflict) || errors.Is(err, context.Canceled)
}
