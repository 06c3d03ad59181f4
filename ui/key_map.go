package ui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	moveUp       key.Binding
	moveDown     key.Binding
	nextPage     key.Binding
	previousPage key.Binding

	enter    key.Binding
	back     key.Binding
	openFile key.Binding

	toggleHelp key.Binding

	quit key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.enter, k.back, k.toggleHelp, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.moveUp, k.moveDown, k.nextPage, k.previousPage},
		{k.enter, k.back, k.openFile},
		{k.toggleHelp, k.quit},
	}
}

func defaultKeyMap() keyMap {
	return keyMap{
		moveUp: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑", "move up in list"),
		),
		moveDown: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓", "move down in list"),
		),
		nextPage: key.NewBinding(
			key.WithKeys("right"),
			key.WithHelp("→", "next page"),
		),
		previousPage: key.NewBinding(
			key.WithKeys("left"),
			key.WithHelp("←", "previous page"),
		),
		enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open list or dictionary"),
		),
		back: key.NewBinding(
			key.WithKeys("backspace"),
			key.WithHelp("backspace", "go to parent"),
		),
		openFile: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "open another file"),
		),
		toggleHelp: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}
