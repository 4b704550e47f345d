// Package keymap defines keybindings for the TUI.
package keymap

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines all keybindings for the sync view.
type KeyMap struct {
	// Cancel asks the running sync to stop.
	Cancel key.Binding

	// Quit leaves the view once the sync has finished.
	Quit key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Cancel: key.NewBinding(
			key.WithKeys("esc", "ctrl+c", "c"),
			key.WithHelp("esc", "cancel sync"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "enter"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp returns the bindings shown while a sync runs.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Cancel}
}

