package viewmodel

// EditMode is the page-wide toggle between read-only and editable rows.
// Drafts hold the editable values; the table rows are untouched until a
// save succeeds, so leaving edit mode restores the read-only rendering.
type EditMode struct {
	on     bool
	drafts map[RowKey]Row
}

func (e *EditMode) Enabled() bool {
	return e.on
}

// Toggle flips the mode.
func (e *EditMode) Toggle() {
	if e.on {
		e.Exit()
		return
	}
	e.Enter()
}

func (e *EditMode) Enter() {
	e.on = true
	e.drafts = make(map[RowKey]Row)
}

// Exit leaves edit mode and discards every draft.
func (e *EditMode) Exit() {
	e.on = false
	e.drafts = nil
}

// Draft returns the editable copy of key, seeding it from the table on
// first use.
func (e *EditMode) Draft(t *Table, key RowKey) (Row, bool) {
	if !e.on {
		return Row{}, false
	}
	if d, ok := e.drafts[key]; ok {
		return d, true
	}
	r, ok := t.Get(key)
	if !ok {
		return Row{}, false
	}
	e.drafts[key] = r
	return r, true
}

// Peek is Draft without seeding: rows nobody edited read straight from
// the table.
func (e *EditMode) Peek(t *Table, key RowKey) (Row, bool) {
	if !e.on {
		return Row{}, false
	}
	if d, ok := e.drafts[key]; ok {
		return d, true
	}
	return t.Get(key)
}

// SetField edits one draft cell.
func (e *EditMode) SetField(t *Table, key RowKey, f Field, value string) bool {
	d, ok := e.Draft(t, key)
	if !ok {
		return false
	}
	d.Set(f, value)
	e.drafts[key] = d
	return true
}

// Label is the caption of the toggle control.
func (e *EditMode) Label() string {
	if e.on {
		return "完成"
	}
	return "編輯"
}
