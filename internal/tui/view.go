package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/colonyops/beacon/internal/core/notification"
	"github.com/colonyops/beacon/internal/core/styles"
)

// header, divider and status bar
const chromeHeight = 3

func (m *Model) layout() {
	if m.width == 0 || m.height == 0 {
		return
	}

	helpHeight := 1
	if m.help.ShowAll {
		helpHeight = lipgloss.Height(m.help.View(m.keys))
	}
	body := max(m.height-chromeHeight-helpHeight, 1)
	m.list.SetHeight(body)

	switch {
	case m.width >= splitWidth:
		m.detail.Width = m.width - m.listWidth() - 1
		m.detail.Height = body
	case m.showDetail:
		m.detail.Width = m.width
		m.detail.Height = body
	default:
		m.detail.Width, m.detail.Height = 0, 0
	}
	m.detailKey = ""
}

func (m *Model) listWidth() int {
	if m.width >= splitWidth {
		return m.width * 11 / 20
	}
	return m.width
}

func (m *Model) View() string {
	if m.width == 0 {
		return ""
	}

	sections := []string{
		m.headerView(),
		styles.DividerStyle.Render(strings.Repeat("─", m.width)),
		m.bodyView(),
		m.statusView(),
		m.help.View(m.keys),
	}
	out := lipgloss.JoinVertical(lipgloss.Left, sections...)
	out = m.toastView.Overlay(out, m.alerts, m.width, m.height)

	if m.confirm != nil {
		modal := styles.ModalStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
			styles.ModalTitleStyle.Render("Confirm"),
			m.confirm.View(),
			styles.ModalHelpStyle.Render("enter confirm · esc cancel"),
		))
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal)
	}
	return out
}

func (m *Model) headerView() string {
	tabs := make([]string, 0, len(viewNames))
	for i, name := range viewNames {
		if viewKind(i) == m.view {
			tabs = append(tabs, styles.TabActiveStyle.Render(name))
		} else {
			tabs = append(tabs, styles.TabInactiveStyle.Render(name))
		}
	}
	left := strings.Join(tabs, " ")
	if m.badgeVisible {
		left += " " + styles.BadgeStyle.Render(m.badge.String())
	}

	var flags []string
	if m.center.UnreadOnly() {
		flags = append(flags, styles.MutedStyle.Render("unread only"))
	}
	if m.muted {
		flags = append(flags, styles.MutedStyle.Render(styles.IconBellOff+" muted"))
	}
	if m.leaseHeld {
		flags = append(flags, styles.OnStyle.Render(styles.IconBell))
	} else {
		flags = append(flags, styles.MutedStyle.Render(styles.IconBellOff))
	}
	if m.connected {
		flags = append(flags, styles.OnStyle.Render(styles.IconConnected))
	} else {
		flags = append(flags, styles.OffStyle.Render(styles.IconOffline))
	}
	right := strings.Join(flags, " ")

	gap := max(m.width-lipgloss.Width(left)-lipgloss.Width(right), 1)
	return left + strings.Repeat(" ", gap) + right
}

func (m *Model) bodyView() string {
	var body string
	switch m.view {
	case viewPrefs:
		body = m.prefsView()
	case viewHistory:
		body = m.historyView()
	default:
		body = m.listView()
	}
	return lipgloss.NewStyle().Height(m.list.height).MaxHeight(m.list.height).Render(body)
}

func (m *Model) listView() string {
	if m.width < splitWidth && m.showDetail {
		return m.detailView()
	}

	lw := m.listWidth()
	var rows []string
	if len(m.list.items) == 0 {
		msg := "No notifications"
		if m.center.Busy() {
			msg = "Loading notifications..."
		}
		rows = append(rows, styles.MutedStyle.Render("  "+msg))
	} else {
		now := m.now()
		sel, _ := m.list.Selected()
		for _, n := range m.list.Visible() {
			rows = append(rows, renderRow(n, m.center.ReadState(n.ID), n.ID == sel.ID, true, lw, now))
		}
	}
	list := lipgloss.NewStyle().Width(lw).Render(strings.Join(rows, "\n"))

	if m.width < splitWidth {
		return list
	}
	sep := styles.DividerStyle.Render(strings.Repeat("│\n", max(m.list.height-1, 0)) + "│")
	return lipgloss.JoinHorizontal(lipgloss.Top, list, sep, m.detailView())
}

func (m *Model) detailView() string {
	n, ok := m.list.Selected()
	if !ok {
		return ""
	}
	key := fmt.Sprintf("%s:%d", n.ID, m.detail.Width)
	if key != m.detailKey {
		m.detailKey = key
		m.detail.SetContent(renderDetail(detailMarkdown(n), m.detail.Width))
		m.detail.GotoTop()
	}
	return m.detail.View()
}

func (m *Model) prefsView() string {
	if m.prefsErr != nil && len(m.prefLines) == 0 {
		return styles.MutedStyle.Render("  Preferences unavailable: " + m.prefsErr.Error())
	}
	if len(m.prefLines) == 0 {
		return styles.MutedStyle.Render("  Loading preferences...")
	}

	// keep the selection on screen
	h := max(m.list.height, 1)
	start := 0
	if m.prefSel >= h {
		start = m.prefSel - h + 1
	}
	end := min(start+h, len(m.prefLines))

	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		lines = append(lines, renderPrefLine(m.prefLines[i], i == m.prefSel))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) historyView() string {
	if m.historyErr != nil {
		return styles.MutedStyle.Render("  History unavailable: " + m.historyErr.Error())
	}
	if len(m.history) == 0 {
		return styles.MutedStyle.Render("  No notices")
	}

	lines := make([]string, 0, len(m.history))
	for _, n := range m.history {
		ts := styles.RowTimeStyle.Render(n.CreatedAt.Local().Format("15:04:05"))
		lines = append(lines, "  "+ts+" "+styles.LevelIcon(notification.Level(n.Level))+" "+truncate(n.Message, m.width-16))
		if len(lines) >= m.list.height {
			break
		}
	}
	return strings.Join(lines, "\n")
}

func (m *Model) statusView() string {
	var parts []string
	if m.center.Busy() {
		parts = append(parts, m.spinner.View()+" loading")
	}
	w := m.center.Window()
	if len(w.Pages) > 0 {
		parts = append(parts, fmt.Sprintf("pages %d-%d", w.FirstPage, w.FirstPage+len(w.Pages)-1))
	}
	if len(m.list.items) > 0 {
		parts = append(parts, fmt.Sprintf("%d/%d", m.list.selected+1, len(m.list.items)))
	}
	return styles.StatusBarStyle.Width(m.width).Render(strings.Join(parts, "  "))
}
