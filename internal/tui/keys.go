package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the keybindings of the profile screen
type KeyMap struct {
	Refresh  key.Binding
	Reset    key.Binding
	Copy     key.Binding
	Settings key.Binding
	Help     key.Binding
	Quit     key.Binding
}

// SettingsKeyMap defines the keybindings of the settings overlay
type SettingsKeyMap struct {
	Tab1  key.Binding
	Tab2  key.Binding
	Tab3  key.Binding
	Tab4  key.Binding
	Next  key.Binding
	Prev  key.Binding
	Close key.Binding
}

var Keys = KeyMap{
	Refresh: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "refresh"),
	),
	Reset: key.NewBinding(
		key.WithKeys("x"),
		key.WithHelp("x", "reset"),
	),
	Copy: key.NewBinding(
		key.WithKeys("y"),
		key.WithHelp("y", "copy url"),
	),
	Settings: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "settings"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

var SettingsKeys = SettingsKeyMap{
	Tab1:  key.NewBinding(key.WithKeys("1"), key.WithHelp("1-4", "tab")),
	Tab2:  key.NewBinding(key.WithKeys("2")),
	Tab3:  key.NewBinding(key.WithKeys("3")),
	Tab4:  key.NewBinding(key.WithKeys("4")),
	Next:  key.NewBinding(key.WithKeys("right", "l", "tab"), key.WithHelp("→", "next")),
	Prev:  key.NewBinding(key.WithKeys("left", "h", "shift+tab"), key.WithHelp("←", "prev")),
	Close: key.NewBinding(key.WithKeys("esc", "s", "q"), key.WithHelp("esc", "close")),
}

// ShortHelp returns keybindings to show in the mini help view
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Refresh, k.Reset, k.Copy, k.Help, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Refresh, k.Reset, k.Copy},
		{k.Settings, k.Help, k.Quit},
	}
}

func (k SettingsKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Tab1, k.Prev, k.Next, k.Close}
}

func (k SettingsKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}
