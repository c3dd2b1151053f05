package tui

import tea "github.com/charmbracelet/bubbletea"

// ConfirmDialog asks before a destructive action. The confirm handler is
// registered when the dialog opens and cleared on confirm or cancel, so at
// most one handler runs per opening.
type ConfirmDialog struct {
	Title string
	Body  string

	open      bool
	onConfirm func() tea.Cmd
}

// Open shows the dialog, replacing any handler from an earlier opening.
func (d *ConfirmDialog) Open(title, body string, onConfirm func() tea.Cmd) {
	d.Title, d.Body = title, body
	d.open = true
	d.onConfirm = onConfirm
}

func (d *ConfirmDialog) IsOpen() bool {
	return d.open
}

// Armed reports whether a confirm handler is registered.
func (d *ConfirmDialog) Armed() bool {
	return d.onConfirm != nil
}

// Confirm closes the dialog and runs the handler once.
func (d *ConfirmDialog) Confirm() tea.Cmd {
	handler := d.onConfirm
	d.onConfirm = nil
	d.open = false
	if handler == nil {
		return nil
	}
	return handler()
}

func (d *ConfirmDialog) Cancel() {
	d.onConfirm = nil
	d.open = false
}
