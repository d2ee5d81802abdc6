// Package testing provides helpers for driving bubbletea models in tests.
package testing

import (
	tea "github.com/charmbracelet/bubbletea"
)

// KeyPress returns the message for typing key as runes, e.g. "e" or "B".
func KeyPress(key string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
}

func special(t tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: t}
}

// Named keys used by the review and analytics screens.
func KeySpace() tea.KeyMsg     { return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}} }
func KeyDown() tea.KeyMsg      { return special(tea.KeyDown) }
func KeyUp() tea.KeyMsg        { return special(tea.KeyUp) }
func KeyRight() tea.KeyMsg     { return special(tea.KeyRight) }
func KeyEnter() tea.KeyMsg     { return special(tea.KeyEnter) }
func KeyEsc() tea.KeyMsg       { return special(tea.KeyEsc) }
func KeyBackspace() tea.KeyMsg { return special(tea.KeyBackspace) }
func KeyCtrlS() tea.KeyMsg     { return special(tea.KeyCtrlS) }

// Type returns one key message per character of text, as a user typing
// into a text input would produce.
func Type(text string) []tea.Msg {
	msgs := make([]tea.Msg, 0, len(text))
	for _, r := range text {
		msgs = append(msgs, KeyPress(string(r)))
	}
	return msgs
}

// Send feeds msgs to model in order and returns the resulting model along
// with the command produced by the last message.
func Send(model tea.Model, msgs ...tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	for _, msg := range msgs {
		model, cmd = model.Update(msg)
	}
	return model, cmd
}

// IsQuit reports whether running cmd yields tea.QuitMsg.
func IsQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}
