package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up          key.Binding
	Down        key.Binding
	Top         key.Binding
	Open        key.Binding
	MarkRead    key.Binding
	MarkAllRead key.Binding
	UnreadOnly  key.Binding
	Refresh     key.Binding
	Detail      key.Binding
	ToggleWeb   key.Binding
	ToggleEmail key.Binding
	Mute        key.Binding
	OpenAlert   key.Binding
	Dismiss     key.Binding
	ClearLog    key.Binding
	NextView    key.Binding
	Help        key.Binding
	Quit        key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:          key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("↑/k", "up")),
		Down:        key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("↓/j", "down")),
		Top:         key.NewBinding(key.WithKeys("g", "home"), key.WithHelp("g", "top")),
		Open:        key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
		MarkRead:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "mark read")),
		MarkAllRead: key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "mark all read")),
		UnreadOnly:  key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "unread only")),
		Refresh:     key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "refresh")),
		Detail:      key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "detail")),
		ToggleWeb:   key.NewBinding(key.WithKeys("w", " "), key.WithHelp("w", "toggle web")),
		ToggleEmail: key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "toggle email")),
		Mute:        key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "mute object")),
		OpenAlert:   key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "open alert")),
		Dismiss:     key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "dismiss")),
		ClearLog:    key.NewBinding(key.WithKeys("C"), key.WithHelp("C", "clear history")),
		NextView:    key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch view")),
		Help:        key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Down, k.Open, k.MarkRead, k.UnreadOnly, k.NextView, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Top, k.Open, k.Detail},
		{k.MarkRead, k.MarkAllRead, k.UnreadOnly, k.Refresh, k.Mute},
		{k.ToggleWeb, k.ToggleEmail, k.ClearLog},
		{k.OpenAlert, k.Dismiss, k.NextView, k.Help, k.Quit},
	}
}
