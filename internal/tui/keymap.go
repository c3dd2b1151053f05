package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all keyboard shortcuts.
type KeyMap struct {
	// Navigation
	Up         key.Binding
	Down       key.Binding
	Left       key.Binding
	Right      key.Binding
	NextField  key.Binding
	PrevField  key.Binding
	NextColumn key.Binding
	PrevColumn key.Binding
	PrevMonth  key.Binding
	NextMonth  key.Binding

	// Form
	Submit    key.Binding
	Back      key.Binding
	NewRecord key.Binding

	// Rows
	ToggleEdit key.Binding
	Save       key.Binding
	Delete     key.Binding
	Done       key.Binding

	// Dialogs
	Confirm key.Binding
	Cancel  key.Binding

	// Views
	SwitchView     key.Binding
	ToggleTheme    key.Binding
	DismissNotices key.Binding
	Refresh        key.Binding
	ExportCSV      key.Binding
	ExportXLSX     key.Binding

	// Application
	Quit      key.Binding
	ForceQuit key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("↓/j", "down"),
		),
		Left: key.NewBinding(
			key.WithKeys("left"),
			key.WithHelp("←", "previous option"),
		),
		Right: key.NewBinding(
			key.WithKeys("right"),
			key.WithHelp("→", "next option"),
		),
		NextField: key.NewBinding(
			key.WithKeys("tab", "down"),
			key.WithHelp("Tab/↓", "next field"),
		),
		PrevField: key.NewBinding(
			key.WithKeys("shift+tab", "up"),
			key.WithHelp("Shift+Tab/↑", "previous field"),
		),
		NextColumn: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("Tab", "next column"),
		),
		PrevColumn: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("Shift+Tab", "previous column"),
		),
		PrevMonth: key.NewBinding(
			key.WithKeys("["),
			key.WithHelp("[", "previous month"),
		),
		NextMonth: key.NewBinding(
			key.WithKeys("]"),
			key.WithHelp("]", "next month"),
		),

		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("Enter", "add record"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("Esc", "go to tables"),
		),
		NewRecord: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "go to form"),
		),

		ToggleEdit: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "edit rows"),
		),
		Save: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("Enter", "save row"),
		),
		Delete: key.NewBinding(
			key.WithKeys("ctrl+x"),
			key.WithHelp("Ctrl+X", "delete row"),
		),
		Done: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("Esc", "done"),
		),

		Confirm: key.NewBinding(
			key.WithKeys("y", "enter"),
			key.WithHelp("y/Enter", "confirm"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("n", "esc"),
			key.WithHelp("n/Esc", "cancel"),
		),

		SwitchView: key.NewBinding(
			key.WithKeys("ctrl+o"),
			key.WithHelp("Ctrl+O", "records/analysis"),
		),
		ToggleTheme: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("Ctrl+T", "light/dark"),
		),
		DismissNotices: key.NewBinding(
			key.WithKeys("ctrl+l"),
			key.WithHelp("Ctrl+L", "dismiss notices"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reload"),
		),
		ExportCSV: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "export csv"),
		),
		ExportXLSX: key.NewBinding(
			key.WithKeys("X"),
			key.WithHelp("X", "export xlsx"),
		),

		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		ForceQuit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("Ctrl+C", "force quit"),
		),
	}
}

// formKeys are shown while the form has focus.
type formKeys KeyMap

func (k formKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.NextField, k.Left, k.Submit, k.Back, k.SwitchView, k.ToggleTheme}
}

func (k formKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp(), {k.DismissNotices, k.ForceQuit}}
}

// tableKeys are shown while the tables have focus.
type tableKeys KeyMap

func (k tableKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.ToggleEdit, k.PrevMonth, k.NextMonth, k.ExportCSV, k.NewRecord, k.SwitchView, k.Quit}
}

func (k tableKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp(), {k.ExportXLSX, k.Refresh, k.ToggleTheme, k.DismissNotices}}
}

// editKeys are shown in edit mode.
type editKeys KeyMap

func (k editKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.NextColumn, k.Save, k.Delete, k.Done}
}

func (k editKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

// analysisKeys are shown on the analysis view.
type analysisKeys KeyMap

func (k analysisKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Refresh, k.SwitchView, k.ToggleTheme, k.Quit}
}

func (k analysisKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}
