package viewmodel

import "ledger/internal/core"

// Severity selects the notice style.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityDanger  Severity = "danger"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Placeholder names a region that can hold one notice.
type Placeholder string

const (
	PlaceholderAdd     Placeholder = "alert_add"
	PlaceholderChart   Placeholder = "alert_chart"
	PlaceholderExpense Placeholder = "alert_expense"
	PlaceholderIncome  Placeholder = "alert_income"
)

// PlaceholderFor returns the table region of a kind.
func PlaceholderFor(kind core.Kind) Placeholder {
	if kind == core.KindIncome {
		return PlaceholderIncome
	}
	return PlaceholderExpense
}

// NoticePhase tracks a notice through its timed lifecycle.
type NoticePhase int

const (
	NoticeShown NoticePhase = iota
	NoticeFading
)

type Notice struct {
	Message  string
	Severity Severity
	Phase    NoticePhase
	// Seq identifies this notice; timers carry it so that a newer notice
	// is never removed by an older notice's timers.
	Seq uint64
}

// Notices holds at most one notice per known placeholder.
type Notices struct {
	known map[Placeholder]bool
	slots map[Placeholder]Notice
	seq   uint64
}

func NewNotices(placeholders ...Placeholder) *Notices {
	if len(placeholders) == 0 {
		placeholders = []Placeholder{PlaceholderAdd, PlaceholderChart, PlaceholderExpense, PlaceholderIncome}
	}
	n := &Notices{
		known: make(map[Placeholder]bool, len(placeholders)),
		slots: make(map[Placeholder]Notice, len(placeholders)),
	}
	for _, p := range placeholders {
		n.known[p] = true
	}
	return n
}

// Show replaces the placeholder's content. It returns the new notice's
// sequence number, or false when the placeholder is unknown.
func (n *Notices) Show(p Placeholder, message string, severity Severity) (uint64, bool) {
	if !n.known[p] {
		return 0, false
	}
	n.seq++
	n.slots[p] = Notice{Message: message, Severity: severity, Phase: NoticeShown, Seq: n.seq}
	return n.seq, true
}

// Fade starts the fade of notice seq if it is still displayed.
func (n *Notices) Fade(p Placeholder, seq uint64) bool {
	cur, ok := n.slots[p]
	if !ok || cur.Seq != seq {
		return false
	}
	cur.Phase = NoticeFading
	n.slots[p] = cur
	return true
}

// Remove drops notice seq if it is still displayed.
func (n *Notices) Remove(p Placeholder, seq uint64) bool {
	cur, ok := n.slots[p]
	if !ok || cur.Seq != seq {
		return false
	}
	delete(n.slots, p)
	return true
}

// Clear empties the placeholder whatever it holds.
func (n *Notices) Clear(p Placeholder) {
	delete(n.slots, p)
}

func (n *Notices) Get(p Placeholder) (Notice, bool) {
	cur, ok := n.slots[p]
	return cur, ok
}

// Len is the number of displayed notices.
func (n *Notices) Len() int {
	return len(n.slots)
}
