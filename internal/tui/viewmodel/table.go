package viewmodel

import (
	"ledger/internal/api"
	"ledger/internal/core"
)

// Table is the displayed month: one ordered section per kind, newest
// first. A (id, kind) pair appears at most once.
type Table struct {
	Month core.Month
	rows  map[core.Kind][]Row
}

func NewTable(month core.Month) *Table {
	return &Table{Month: month, rows: make(map[core.Kind][]Row, 2)}
}

// Load replaces both sections with a server listing.
func (t *Table) Load(month core.Month, expenses, incomes []api.Record) {
	t.Month = month
	t.rows = make(map[core.Kind][]Row, 2)
	for _, r := range expenses {
		t.append(RowFromRecord(r))
	}
	for _, r := range incomes {
		t.append(RowFromRecord(r))
	}
}

func (t *Table) append(r Row) {
	if _, ok := t.index(r.Key); ok {
		return
	}
	t.rows[r.Key.Kind] = append(t.rows[r.Key.Kind], r)
}

// Prepend puts r at the top of its section, replacing any row with the
// same key.
func (t *Table) Prepend(r Row) {
	t.Remove(r.Key)
	t.rows[r.Key.Kind] = append([]Row{r}, t.rows[r.Key.Kind]...)
}

// Replace swaps the row with r's key in place.
func (t *Table) Replace(r Row) bool {
	i, ok := t.index(r.Key)
	if !ok {
		return false
	}
	t.rows[r.Key.Kind][i] = r
	return true
}

func (t *Table) Remove(key RowKey) bool {
	i, ok := t.index(key)
	if !ok {
		return false
	}
	section := t.rows[key.Kind]
	t.rows[key.Kind] = append(section[:i:i], section[i+1:]...)
	return true
}

func (t *Table) Get(key RowKey) (Row, bool) {
	i, ok := t.index(key)
	if !ok {
		return Row{}, false
	}
	return t.rows[key.Kind][i], true
}

// Rows returns a copy of one section.
func (t *Table) Rows(kind core.Kind) []Row {
	return append([]Row(nil), t.rows[kind]...)
}

func (t *Table) Len(kind core.Kind) int {
	return len(t.rows[kind])
}

// Keys lists every row, expense section first, for cursor movement.
func (t *Table) Keys() []RowKey {
	keys := make([]RowKey, 0, t.Len(core.KindExpense)+t.Len(core.KindIncome))
	for _, kind := range []core.Kind{core.KindExpense, core.KindIncome} {
		for _, r := range t.rows[kind] {
			keys = append(keys, r.Key)
		}
	}
	return keys
}

// Total sums the amounts of a section.
func (t *Table) Total(kind core.Kind) core.Money {
	var total core.Money
	for _, r := range t.rows[kind] {
		if m, err := core.ParseAmount(r.Amount); err == nil {
			total = total.Add(m)
		}
	}
	return total
}

func (t *Table) index(key RowKey) (int, bool) {
	for i, r := range t.rows[key.Kind] {
		if r.Key == key {
			return i, true
		}
	}
	return 0, false
}
