// Package keymap defines keybindings for the TUI.
package keymap

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines all keybindings for the TUI.
type KeyMap struct {
	// Quit abandons the selection.
	Quit key.Binding

	// Back returns to the previous step.
	Back key.Binding

	// Up moves the cursor up, wrapping at the top.
	Up key.Binding

	// Down moves the cursor down, wrapping at the bottom.
	Down key.Binding

	// Toggle ticks or unticks the cluster under the cursor.
	Toggle key.Binding

	// ToggleAll ticks every cluster, or clears them all when all are ticked.
	ToggleAll key.Binding

	// Confirm accepts the current step.
	Confirm key.Binding

	// NextField moves focus between option fields.
	NextField key.Binding

	// SwitchMode flips between copy and move.
	SwitchMode key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Toggle: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "toggle"),
		),
		ToggleAll: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "all"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "confirm"),
		),
		NextField: key.NewBinding(
			key.WithKeys("tab", "shift+tab"),
			key.WithHelp("tab", "next field"),
		),
		SwitchMode: key.NewBinding(
			key.WithKeys("left", "right", " "),
			key.WithHelp("←/→", "copy/move"),
		),
	}
}

// ShortHelp returns a short list of keybindings.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Confirm, k.Quit}
}

// ClustersHelp returns keybindings for the cluster checklist.
func (k *KeyMap) ClustersHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.ToggleAll, k.Confirm, k.Quit}
}

// OptionsHelp returns keybindings for the transfer options form.
func (k *KeyMap) OptionsHelp() []key.Binding {
	return []key.Binding{k.NextField, k.SwitchMode, k.Confirm, k.Back}
}

// FullHelp returns the full list of keybindings.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Toggle, k.ToggleAll},
		{k.NextField, k.SwitchMode},
		{k.Confirm, k.Back, k.Quit},
	}
}

// Matches checks if a key string matches a binding.
func Matches(keyStr string, binding key.Binding) bool {
	for _, k := range binding.Keys() {
		if k == keyStr {
			return true
		}
	}
	return false
}
