package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Start  key.Binding
	Stop   key.Binding
	Delete key.Binding
	Edit   key.Binding
	Copy   key.Binding
	Export key.Binding
	Tab1   key.Binding
	Tab2   key.Binding
	Tab3   key.Binding
	Tab4   key.Binding
	Tab5   key.Binding
	Tab    key.Binding
	Help   key.Binding
	Enter  key.Binding
	Back   key.Binding
	Up     key.Binding
	Down   key.Binding
	Left   key.Binding
	Right  key.Binding
	Quit   key.Binding
}

// bind builds a binding whose help label is its first key unless given.
func bind(label, desc string, ks ...string) key.Binding {
	if label == "" {
		label = ks[0]
	}
	return key.NewBinding(key.WithKeys(ks...), key.WithHelp(label, desc))
}

var keys = keyMap{
	Start:  bind("", "start", "s"),
	Stop:   bind("", "stop", "x"),
	Delete: bind("", "delete", "d"),
	Edit:   bind("", "edit category", "i"),
	Copy:   bind("", "copy link", "y"),
	Export: bind("", "export", "e"),
	Tab1:   bind("", "timer", "1"),
	Tab2:   bind("", "entries", "2"),
	Tab3:   bind("", "chart", "3"),
	Tab4:   bind("", "reports", "4"),
	Tab5:   bind("", "settings", "5"),
	Tab:    bind("", "next view", "tab"),
	Help:   bind("", "help", "?"),
	Enter:  bind("", "select", "enter"),
	Back:   bind("", "back", "esc"),
	Up:     bind("↑/k", "up", "up", "k"),
	Down:   bind("↓/j", "down", "down", "j"),
	Left:   bind("←/h", "left", "left", "h"),
	Right:  bind("→/l", "right", "right", "l"),
	Quit:   bind("", "quit", "q", "ctrl+c"),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Start, k.Stop, k.Export, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Start, k.Stop, k.Edit},
		{k.Delete, k.Copy, k.Export},
		{k.Tab1, k.Tab2, k.Tab3, k.Tab4, k.Tab5},
		{k.Up, k.Down, k.Enter, k.Back, k.Quit},
	}
}
