package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Send        key.Binding
	NewChat     key.Binding
	Export      key.Binding
	Speak       key.Binding
	Listen      key.Binding
	Skip        key.Binding
	ToggleSide  key.Binding
	FocusSide   key.Binding
	Up          key.Binding
	Down        key.Binding
	Suggestions key.Binding
	Quit        key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Send:        key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "send")),
		NewChat:     key.NewBinding(key.WithKeys("ctrl+n"), key.WithHelp("ctrl+n", "new chat")),
		Export:      key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "export")),
		Speak:       key.NewBinding(key.WithKeys("ctrl+p"), key.WithHelp("ctrl+p", "read aloud")),
		Listen:      key.NewBinding(key.WithKeys("ctrl+l"), key.WithHelp("ctrl+l", "mic")),
		Skip:        key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "skip typing")),
		ToggleSide:  key.NewBinding(key.WithKeys("ctrl+b"), key.WithHelp("ctrl+b", "history")),
		FocusSide:   key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "focus history")),
		Up:          key.NewBinding(key.WithKeys("up")),
		Down:        key.NewBinding(key.WithKeys("down")),
		Suggestions: key.NewBinding(key.WithKeys("f1", "f2", "f3"), key.WithHelp("f1-f3", "suggestions")),
		Quit:        key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Send, k.NewChat, k.Export, k.Speak, k.Listen, k.ToggleSide, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp(), {k.FocusSide, k.Skip, k.Suggestions}}
}
