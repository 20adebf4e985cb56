package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up            key.Binding
	down          key.Binding
	enter         key.Binding
	back          key.Binding
	add           key.Binding
	remove        key.Binding
	refresh       key.Binding
	trending      key.Binding
	notifications key.Binding
	markRead      key.Binding
	quit          key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:            key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:          key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		enter:         key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "details")),
		back:          key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		add:           key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
		remove:        key.NewBinding(key.WithKeys("x", "delete"), key.WithHelp("x", "remove")),
		refresh:       key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		trending:      key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "trending")),
		notifications: key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "notifications")),
		markRead:      key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "mark read")),
		quit:          key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.enter, k.back},
		{k.add, k.remove, k.refresh},
		{k.trending, k.notifications, k.markRead, k.quit},
	}
}
