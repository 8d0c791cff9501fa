// Package tui is the terminal projection of the notification center: a
// paginated list with a detail pane, the preferences matrix, the notice
// history, and toasts for live alerts.
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/rs/zerolog/log"

	"github.com/colonyops/beacon/internal/center"
	"github.com/colonyops/beacon/internal/core/alert"
	"github.com/colonyops/beacon/internal/core/config"
	"github.com/colonyops/beacon/internal/core/cursor"
	"github.com/colonyops/beacon/internal/core/eventbus"
	"github.com/colonyops/beacon/internal/core/live"
	"github.com/colonyops/beacon/internal/core/notice"
	"github.com/colonyops/beacon/internal/core/notification"
	"github.com/colonyops/beacon/internal/core/prefs"
	"github.com/colonyops/beacon/internal/core/styles"
)

type viewKind int

const (
	viewList viewKind = iota
	viewPrefs
	viewHistory
)

var viewNames = []string{"Notifications", "Preferences", "History"}

// splitWidth is the terminal width from which the detail pane is shown
// beside the list.
const splitWidth = 100

// Options configures the model.
type Options struct {
	Center *center.Center
	Bus    *eventbus.EventBus
	// Reloads delivers hot-reloaded configuration. Optional.
	Reloads <-chan *config.Config
	Now     func() time.Time
}

// Model is the root Bubble Tea model.
type Model struct {
	ctx     context.Context
	center  *center.Center
	bus     *eventbus.EventBus
	inbox   chan tea.Msg
	reloads <-chan *config.Config
	now     func() time.Time

	keys      keyMap
	help      help.Model
	spinner   spinner.Model
	detail    viewport.Model
	toasts    *ToastController
	toastView *ToastView

	view          viewKind
	width, height int
	list          listState
	showDetail    bool
	detailKey     string

	alerts       []alert.Alert
	badge        live.Count
	badgeVisible bool
	connected    bool
	leaseHeld    bool
	muted        bool

	prefLines []prefLine
	prefSel   int
	prefsErr  error

	history    []notice.Notice
	historyErr error

	confirm       *huh.Form
	confirmOK     bool
	pendingGlobal *globalToggle
}

type globalToggle struct {
	channel prefs.Channel
	value   bool
}

// New creates the model and subscribes it to the bus.
func New(ctx context.Context, opts Options) *Model {
	cfg := opts.Center.Config()
	styles.ApplyTheme(cfg.Widget.Theme)

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = styles.MutedStyle

	toasts := NewToastController(cfg.Widget.ToastTimeout)
	m := &Model{
		ctx:       ctx,
		center:    opts.Center,
		bus:       opts.Bus,
		inbox:     make(chan tea.Msg, 128),
		reloads:   opts.Reloads,
		now:       now,
		keys:      defaultKeyMap(),
		help:      help.New(),
		spinner:   sp,
		detail:    viewport.New(0, 0),
		toasts:    toasts,
		toastView: NewToastView(toasts),
	}
	m.subscribe(opts.Bus)
	return m
}

func (m *Model) Init() tea.Cmd {
	m.bus.PublishTuiStarted(eventbus.TUIStartedPayload{})
	return tea.Batch(
		waitForMsg(m.inbox),
		waitForReload(m.reloads),
		scheduleToastTick(),
		m.spinner.Tick,
		m.loadCmd(),
		m.muteStateCmd(),
	)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.confirm != nil {
		if cmd, handled := m.updateConfirm(msg); handled {
			return m, cmd
		}
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.layout()
		return m, nil

	case tea.FocusMsg:
		return m, m.action(m.center.Focus)

	case tea.KeyMsg:
		return m, m.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case toastTickMsg:
		m.toasts.Tick(toastTickInterval)
		cmds := []tea.Cmd{scheduleToastTick(), m.expireAlertsCmd()}
		if m.view == viewList {
			cmds = append(cmds, m.dwellCmd(m.visibleUnread()))
		}
		return m, tea.Batch(cmds...)

	case windowMsg:
		m.syncList()
		// keep loading until the screen is filled
		if msg.err == nil && msg.t.Changed() && len(m.list.items) <= m.list.height {
			return m, m.maybeScroll()
		}
		return m, nil

	case prefsMsg:
		m.prefsErr = msg.err
		if msg.matrix != nil {
			m.prefLines = buildPrefLines(msg.matrix)
			m.prefSel = min(m.prefSel, max(len(m.prefLines)-1, 0))
		}
		return m, nil

	case historyMsg:
		m.history, m.historyErr = msg.notices, msg.err
		return m, nil

	case alertsMsg:
		m.alerts = msg
		return m, nil

	case muteMsg:
		m.muted = msg.muted
		return m, nil

	case dwellMsg:
		return m, nil

	case actionMsg:
		if !ignorable(msg.err) {
			log.Debug().Err(msg.err).Msg("tui action failed")
		}
		return m, nil

	case configMsg:
		cfg := (*config.Config)(msg)
		styles.ApplyTheme(cfg.Widget.Theme)
		m.toasts.SetTTL(cfg.Widget.ToastTimeout)
		m.detailKey = ""
		m.layout()
		return m, tea.Batch(m.reconfigureCmd(cfg), waitForReload(m.reloads))
	}

	if m.handleEvent(msg) {
		return m, waitForMsg(m.inbox)
	}
	return m, nil
}

// handleEvent applies a bus event and reports whether msg was one. Every
// handled event re-arms the inbox.
func (m *Model) handleEvent(msg tea.Msg) bool {
	switch msg := msg.(type) {
	case eventbus.ListChangedPayload:
		m.syncList()
	case eventbus.ReadChangedPayload:
		// states are read at render time
	case eventbus.BadgeChangedPayload:
		m.badge = msg.Count
		m.badgeVisible = !msg.Count.Zero()
	case eventbus.AlertPushedPayload, eventbus.AlertDismissedPayload:
		m.alerts = m.center.Alerts()
	case eventbus.PreferencesChangedPayload:
		m.prefLines = buildPrefLines(m.center.Preferences())
	case eventbus.LiveStatusPayload:
		m.connected = msg.Connected
	case eventbus.LeaseChangedPayload:
		m.leaseHeld = msg.Held
	case eventbus.ObjectMutedPayload:
		m.muted = msg.Muted && (msg.ValidTill == nil || m.now().Before(*msg.ValidTill))
	case eventbus.NoticePublishedPayload:
		m.toasts.Push(msg.Notice)
		if m.view == viewHistory {
			m.history = append([]notice.Notice{msg.Notice}, m.history...)
		}
	default:
		return false
	}
	return true
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Sequence(m.closeCmd(), tea.Quit)
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.layout()
		return nil
	case key.Matches(msg, m.keys.NextView):
		return m.switchView((m.view + 1) % viewKind(len(viewNames)))
	case key.Matches(msg, m.keys.OpenAlert):
		if len(m.alerts) == 0 {
			return nil
		}
		id := m.alerts[len(m.alerts)-1].Notification.ID
		return m.action(func(ctx context.Context) error { return m.center.ClickAlert(ctx, id) })
	case key.Matches(msg, m.keys.Dismiss):
		if len(m.alerts) > 0 {
			id := m.alerts[len(m.alerts)-1].Notification.ID
			return m.action(func(context.Context) error {
				m.center.DismissAlert(id)
				return nil
			})
		}
		m.toasts.Dismiss()
		return nil
	}

	switch m.view {
	case viewPrefs:
		return m.handlePrefsKey(msg)
	case viewHistory:
		if key.Matches(msg, m.keys.ClearLog) {
			return m.clearHistoryCmd()
		}
		return nil
	default:
		return m.handleListKey(msg)
	}
}

func (m *Model) switchView(v viewKind) tea.Cmd {
	m.view = v
	m.layout()
	switch v {
	case viewPrefs:
		if m.prefLines == nil {
			return m.loadPrefsCmd()
		}
	case viewHistory:
		return m.historyCmd()
	}
	return nil
}

func (m *Model) handleListKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Down):
		m.list.Move(1)
		return m.maybeScroll()
	case key.Matches(msg, m.keys.Up):
		m.list.Move(-1)
		return m.maybeScroll()
	case key.Matches(msg, m.keys.Top):
		m.list.Top()
		return m.maybeScroll()
	case key.Matches(msg, m.keys.Open):
		n, ok := m.list.Selected()
		if !ok {
			return nil
		}
		return m.action(func(ctx context.Context) error { return m.center.Open(ctx, n) })
	case key.Matches(msg, m.keys.MarkRead):
		n, ok := m.list.Selected()
		if !ok {
			return nil
		}
		return m.action(func(ctx context.Context) error { return m.center.MarkRead(ctx, n.ID) })
	case key.Matches(msg, m.keys.MarkAllRead):
		return m.action(m.center.MarkAllRead)
	case key.Matches(msg, m.keys.UnreadOnly):
		return m.unreadOnlyCmd(!m.center.UnreadOnly())
	case key.Matches(msg, m.keys.Refresh):
		return m.refreshCmd()
	case key.Matches(msg, m.keys.Detail):
		m.showDetail = !m.showDetail
		m.layout()
		return nil
	case key.Matches(msg, m.keys.Mute):
		return m.toggleMute()
	}
	return nil
}

// maybeScroll loads the next page when the selection nears the end of the
// window, or renders the previous one near the start.
func (m *Model) maybeScroll() tea.Cmd {
	if m.center.Busy() {
		return nil
	}
	w := m.center.Window()
	switch {
	case m.list.NearEnd() && w.State != cursor.StateExhausted:
		return m.scrollDownCmd()
	case m.list.NearStart() && w.FirstPage > 1:
		return m.scrollUpCmd()
	}
	return nil
}

func (m *Model) toggleMute() tea.Cmd {
	ref := m.center.Config().Live.Object
	if ref == nil {
		return nil
	}
	r := *ref
	if m.muted {
		return m.action(func(ctx context.Context) error { return m.center.UnmuteObject(ctx, r) })
	}
	return m.action(func(ctx context.Context) error { return m.center.MuteObject(ctx, r, 0) })
}

func (m *Model) handlePrefsKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Down):
		m.prefSel = min(m.prefSel+1, max(len(m.prefLines)-1, 0))
	case key.Matches(msg, m.keys.Up):
		m.prefSel = max(m.prefSel-1, 0)
	case key.Matches(msg, m.keys.Top):
		m.prefSel = 0
	case key.Matches(msg, m.keys.Refresh):
		return m.loadPrefsCmd()
	case key.Matches(msg, m.keys.ToggleWeb):
		return m.togglePref(prefs.ChannelWeb)
	case key.Matches(msg, m.keys.ToggleEmail):
		return m.togglePref(prefs.ChannelEmail)
	}
	return nil
}

func (m *Model) togglePref(ch prefs.Channel) tea.Cmd {
	if m.prefSel >= len(m.prefLines) {
		return nil
	}
	l := m.prefLines[m.prefSel]
	v := !l.pair.Get(ch)

	switch l.kind {
	case prefGlobal:
		return m.askGlobal(globalToggle{channel: ch, value: v})
	case prefOrg:
		return m.action(func(ctx context.Context) error { return m.center.SetOrgPreference(ctx, l.orgID, ch, v) })
	default:
		return m.action(func(ctx context.Context) error { return m.center.SetPreference(ctx, l.settingID, ch, v) })
	}
}

func (m *Model) askGlobal(g globalToggle) tea.Cmd {
	m.pendingGlobal = &g
	m.confirmOK = false

	state := "off"
	if g.value {
		state = "on"
	}
	m.confirm = huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title("Turn " + string(g.channel) + " notifications " + state + " everywhere?").
			Description("This changes every organization and type.").
			Affirmative("Yes").
			Negative("No").
			Value(&m.confirmOK),
	)).WithShowHelp(false)
	return m.confirm.Init()
}

// updateConfirm routes messages to the open confirmation form. Non-input
// messages fall through so ticks and events keep flowing.
func (m *Model) updateConfirm(msg tea.Msg) (tea.Cmd, bool) {
	switch msg.(type) {
	case tea.KeyMsg:
	default:
		return nil, false
	}

	if k, ok := msg.(tea.KeyMsg); ok && k.String() == "esc" {
		m.confirm, m.pendingGlobal = nil, nil
		return nil, true
	}

	model, cmd := m.confirm.Update(msg)
	if f, ok := model.(*huh.Form); ok {
		m.confirm = f
	}

	switch m.confirm.State {
	case huh.StateCompleted:
		g := m.pendingGlobal
		ok := m.confirmOK
		m.confirm, m.pendingGlobal = nil, nil
		if !ok || g == nil {
			return nil, true
		}
		return m.action(func(ctx context.Context) error {
			return m.center.SetGlobalPreference(ctx, g.channel, g.value)
		}), true
	case huh.StateAborted:
		m.confirm, m.pendingGlobal = nil, nil
		return nil, true
	}
	return cmd, true
}

// syncList re-reads the rendered window from the center.
func (m *Model) syncList() {
	m.list.SetItems(m.center.Window().Notifications())
}

func (m *Model) visibleUnread() []notification.ID {
	var ids []notification.ID
	for _, n := range m.list.Visible() {
		if m.center.ReadState(n.ID) == notification.StateUnread {
			ids = append(ids, n.ID)
		}
	}
	return ids
}
