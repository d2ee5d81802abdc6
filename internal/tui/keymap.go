package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all keyboard shortcuts.
type KeyMap struct {
	// Navigation
	Up        key.Binding
	Down      key.Binding
	PrevField key.Binding
	NextField key.Binding
	PageUp    key.Binding
	PageDown  key.Binding
	Home      key.Binding
	End       key.Binding

	// Row actions
	Edit          key.Binding
	FlipType      key.Binding
	CycleCategory key.Binding
	Delete        key.Binding

	// Selection
	ToggleSelect key.Binding
	SelectAll    key.Binding

	// Bulk actions on the selection
	BulkEdit     key.Binding
	BulkType     key.Binding
	BulkCategory key.Binding
	BulkDelete   key.Binding

	// Input
	Confirm key.Binding
	Cancel  key.Binding

	// Analytics
	Preset    key.Binding
	CycleView key.Binding

	// Application
	Save       key.Binding
	Refresh    key.Binding
	ToggleHelp key.Binding
	Quit       key.Binding
	ForceQuit  key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		// Navigation
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("↓/j", "down"),
		),
		PrevField: key.NewBinding(
			key.WithKeys("h", "left", "shift+tab"),
			key.WithHelp("←/h", "previous column"),
		),
		NextField: key.NewBinding(
			key.WithKeys("l", "right", "tab"),
			key.WithHelp("→/l", "next column"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup", "ctrl+b"),
			key.WithHelp("PgUp/Ctrl+B", "page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown", "ctrl+f"),
			key.WithHelp("PgDn/Ctrl+F", "page down"),
		),
		Home: key.NewBinding(
			key.WithKeys("home", "g"),
			key.WithHelp("Home/g", "go to start"),
		),
		End: key.NewBinding(
			key.WithKeys("end", "G"),
			key.WithHelp("End/G", "go to end"),
		),

		// Row actions
		Edit: key.NewBinding(
			key.WithKeys("e", "enter"),
			key.WithHelp("e", "edit cell"),
		),
		FlipType: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "flip type"),
		),
		CycleCategory: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "next category"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete row"),
		),

		// Selection
		ToggleSelect: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("Space", "toggle selection"),
		),
		SelectAll: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "select all"),
		),

		// Bulk actions
		BulkEdit: key.NewBinding(
			key.WithKeys("B"),
			key.WithHelp("B", "edit column of selection"),
		),
		BulkType: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "flip type of selection"),
		),
		BulkCategory: key.NewBinding(
			key.WithKeys("C"),
			key.WithHelp("C", "next category for selection"),
		),
		BulkDelete: key.NewBinding(
			key.WithKeys("D"),
			key.WithHelp("D", "delete selection"),
		),

		// Input
		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("Enter", "apply"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("Esc", "cancel"),
		),

		// Analytics
		Preset: key.NewBinding(
			key.WithKeys("1", "2", "3", "4", "5"),
			key.WithHelp("1-5", "date range"),
		),
		CycleView: key.NewBinding(
			key.WithKeys("v"),
			key.WithHelp("v", "area/bar/pie"),
		),

		// Application
		Save: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("Ctrl+S", "save import"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r", "ctrl+r"),
			key.WithHelp("r", "reload"),
		),
		ToggleHelp: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc"),
			key.WithHelp("q/Esc", "quit"),
		),
		ForceQuit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("Ctrl+C", "force quit"),
		),
	}
}

// ReviewHelp returns the bindings shown on the review screen.
func (k KeyMap) ReviewHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.PrevField, k.NextField},
		{k.Edit, k.FlipType, k.CycleCategory, k.Delete},
		{k.ToggleSelect, k.SelectAll, k.BulkEdit, k.BulkType},
		{k.BulkCategory, k.BulkDelete, k.Save, k.Quit},
	}
}

// AnalyticsHelp returns the bindings shown on the analytics screen.
func (k KeyMap) AnalyticsHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Preset, k.CycleView, k.Refresh, k.Quit},
	}
}
