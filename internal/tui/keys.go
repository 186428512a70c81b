package tui

import "github.com/charmbracelet/bubbles/key"

type KeyMap struct {
	Up          key.Binding
	Down        key.Binding
	Select      key.Binding
	LoadMore    key.Binding
	Retry       key.Binding
	ToggleView  key.Binding
	EditProduct key.Binding
	AddTags     key.Binding
	RemoveTags  key.Binding
	Delete      key.Binding
	Help        key.Binding
	Quit        key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up:          key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "up")),
		Down:        key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "down")),
		Select:      key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "select")),
		LoadMore:    key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "load more")),
		Retry:       key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "retry")),
		ToggleView:  key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "list/gallery")),
		EditProduct: key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit products")),
		AddTags:     key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "add tags")),
		RemoveTags:  key.NewBinding(key.WithKeys("T"), key.WithHelp("T", "remove tags")),
		Delete:      key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete products")),
		Help:        key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Select, k.LoadMore, k.Retry, k.ToggleView, k.Help, k.Quit}
}

func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Select},
		{k.LoadMore, k.Retry, k.ToggleView},
		{k.EditProduct, k.AddTags, k.RemoveTags, k.Delete},
		{k.Help, k.Quit},
	}
}
