package main

import "github.com/charmbracelet/bubbles/key"

// keyMap holds every binding the terminal UI reacts to.
type keyMap struct {
	Add         key.Binding // Grab the current file manager selection.
	Remove      key.Binding // Remove the focused file from the list.
	ClearAll    key.Binding
	MoveTo      key.Binding // Pick a folder and move everything there.
	CopyTo      key.Binding
	Trash       key.Binding // Move everything to the Trash, after confirmation.
	Open        key.Binding // Open the default destination in the file manager.
	CopyPaths   key.Binding
	Reload      key.Binding
	StartFilter key.Binding
	ClearFilter key.Binding
	Confirm     key.Binding
	Cancel      key.Binding
	Up          key.Binding
	Down        key.Binding
	Quit        key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Add: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "grab selection"),
		),
		Remove: key.NewBinding(
			key.WithKeys("x", "delete"),
			key.WithHelp("x", "remove file"),
		),
		ClearAll: key.NewBinding(
			key.WithKeys("X"),
			key.WithHelp("X", "clear all"),
		),
		MoveTo: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "move to..."),
		),
		CopyTo: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "copy to..."),
		),
		Trash: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "move to trash"),
		),
		Open: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "open destination"),
		),
		CopyPaths: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "copy paths"),
		),
		Reload: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reload"),
		),
		StartFilter: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "filter list"),
		),
		ClearFilter: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "clear filter"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "choose"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc", "ctrl+w"),
			key.WithHelp("esc", "cancel"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "ctrl+k", "ctrl+p"),
			key.WithHelp("↑/ctrl+k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "ctrl+j", "ctrl+n"),
			key.WithHelp("↓/ctrl+j", "down"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q/ctrl+c", "quit"),
		),
	}
}

// fileHelp lists the bindings shown in the full help of the grabbed list.
func (k keyMap) fileHelp() []key.Binding {
	return []key.Binding{k.Add, k.Remove, k.ClearAll, k.MoveTo, k.CopyTo, k.Trash, k.Open, k.CopyPaths, k.Reload, k.StartFilter}
}
