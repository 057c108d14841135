package timer

import "github.com/charmbracelet/bubbles/key"

type keymap struct {
	togglePlay key.Binding
	next       key.Binding
	finish     key.Binding
	reset      key.Binding
	switchMode key.Binding
	enter      key.Binding
	quit       key.Binding
}

var defaultKeymap = keymap{
	togglePlay: key.NewBinding(
		key.WithKeys(" "),
		key.WithHelp("space", "pause/resume"),
	),
	next: key.NewBinding(
		key.WithKeys("n"),
		key.WithHelp("n", "next section"),
	),
	finish: key.NewBinding(
		key.WithKeys("f"),
		key.WithHelp("f", "finish"),
	),
	reset: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "reset"),
	),
	switchMode: key.NewBinding(
		key.WithKeys("m"),
		key.WithHelp("m", "switch mode"),
	),
	enter: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "start"),
	),
	quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}
