package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up             key.Binding
	Down           key.Binding
	Search         key.Binding
	Queue          key.Binding
	TogglePreview  key.Binding
	ToggleFormulae key.Binding
	ToggleCasks    key.Binding
	Confirm        key.Binding
	Cancel         key.Binding
	Quit           key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		Queue: key.NewBinding(
			key.WithKeys("enter", "i"),
			key.WithHelp("Enter", "queue install"),
		),
		TogglePreview: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "preview"),
		),
		ToggleFormulae: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "formulae"),
		),
		ToggleCasks: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "casks"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "yes"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("n", "esc"),
			key.WithHelp("n", "no"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}
