package tui

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines the key bindings for the TUI.
type KeyMap struct {
	// Navigation
	Up   key.Binding
	Down key.Binding
	Home key.Binding
	End  key.Binding

	// Playback
	Play    key.Binding
	Fade    key.Binding
	Sustain key.Binding
	Stop    key.Binding
	StopAll key.Binding

	// Volume
	VolumeUp   key.Binding
	VolumeDown key.Binding
	MasterUp   key.Binding
	MasterDown key.Binding

	// Actions
	CopyYAML key.Binding
	CopyJSON key.Binding
	Refresh  key.Binding
	Back     key.Binding

	// Global
	Quit key.Binding
	Help key.Binding
}

// ShortHelp returns a short help message.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Play, k.Fade, k.Stop, k.Help, k.Quit}
}

// FullHelp returns a full help message.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Home, k.End},
		{k.Play, k.Fade, k.Sustain, k.Stop, k.StopAll},
		{k.VolumeUp, k.VolumeDown, k.MasterUp, k.MasterDown},
		{k.CopyYAML, k.CopyJSON, k.Refresh, k.Help, k.Quit},
	}
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Home: key.NewBinding(
			key.WithKeys("home", "g"),
			key.WithHelp("home/g", "go to top"),
		),
		End: key.NewBinding(
			key.WithKeys("end", "G"),
			key.WithHelp("end/G", "go to bottom"),
		),
		Play: key.NewBinding(
			key.WithKeys("enter", " "),
			key.WithHelp("space", "play/pause"),
		),
		Fade: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "play with fade"),
		),
		Sustain: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "sustain fade"),
		),
		Stop: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "stop"),
		),
		StopAll: key.NewBinding(
			key.WithKeys("X"),
			key.WithHelp("X", "stop all"),
		),
		VolumeUp: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "volume up"),
		),
		VolumeDown: key.NewBinding(
			key.WithKeys("-"),
			key.WithHelp("-", "volume down"),
		),
		MasterUp: key.NewBinding(
			key.WithKeys("]"),
			key.WithHelp("]", "master up"),
		),
		MasterDown: key.NewBinding(
			key.WithKeys("["),
			key.WithHelp("[", "master down"),
		),
		CopyYAML: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "copy as YAML"),
		),
		CopyJSON: key.NewBinding(
			key.WithKeys("C"),
			key.WithHelp("C", "copy as JSON"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reload sounds"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc", "backspace"),
			key.WithHelp("esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
	}
}
