package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"ledger/internal/tui/viewmodel"
)

// Row and page actions raised from the tables.
const (
	ActionToggleEdit = "toggle-edit"
	ActionSave       = "save"
	ActionDelete     = "delete"
)

// Target describes where an action came from.
type Target struct {
	Action   string
	Row      *viewmodel.RowKey
	EditMode bool
}

// Predicate selects the targets a handler serves.
type Predicate func(Target) bool

// ActionHandler runs on the update loop.
type ActionHandler func(m *Model, t Target) tea.Cmd

type delegate struct {
	match  Predicate
	handle ActionHandler
}

// ActionRegistry dispatches table actions to the first matching handler,
// so rows added later need no binding of their own.
type ActionRegistry struct {
	delegates []delegate
}

func (r *ActionRegistry) On(match Predicate, handle ActionHandler) {
	r.delegates = append(r.delegates, delegate{match: match, handle: handle})
}

// Dispatch reports false when no handler matched.
func (r *ActionRegistry) Dispatch(m *Model, t Target) (tea.Cmd, bool) {
	for _, d := range r.delegates {
		if d.match(t) {
			return d.handle(m, t), true
		}
	}
	return nil, false
}

// IsAction matches on the action name.
func IsAction(name string) Predicate {
	return func(t Target) bool { return t.Action == name }
}

// OnEditableRow additionally requires a row under the cursor in edit mode.
func OnEditableRow(name string) Predicate {
	return func(t Target) bool { return t.Action == name && t.Row != nil && t.EditMode }
}
