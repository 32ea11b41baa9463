package tui

import "github.com/charmbracelet/bubbles/key"

// BookKeys are the bindings of the book list screen.
type BookKeys struct {
	Quit    key.Binding
	Details key.Binding
	Add     key.Binding
	Edit    key.Binding
	Delete  key.Binding
	Refresh key.Binding
	Logout  key.Binding
}

// NewBookKeys creates the book list bindings.
func NewBookKeys() BookKeys {
	return BookKeys{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Details: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "details"),
		),
		Add: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "add"),
		),
		Edit: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "edit"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d", "delete"),
			key.WithHelp("d", "delete"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r", "ctrl+r"),
			key.WithHelp("r", "refresh"),
		),
		Logout: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "log out"),
		),
	}
}

// ShortHelp returns the bindings shown under the list.
func (k BookKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Add, k.Edit, k.Delete, k.Refresh}
}

// FullHelp returns every binding.
func (k BookKeys) FullHelp() []key.Binding {
	return []key.Binding{k.Details, k.Add, k.Edit, k.Delete, k.Refresh, k.Logout, k.Quit}
}
