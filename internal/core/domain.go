package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	KindIncome  Kind = "income"
	KindExpense Kind = "expense"
)

const (
	Need NeedOrWant = "need"
	Want NeedOrWant = "want"
)

const (
	dateLayout  = "2006-01-02"
	monthLayout = "2006-01"
)

type (
	// Kind tells income and expense records apart. Record ids are only
	// unique within a kind.
	Kind string

	NeedOrWant string

	Date struct {
		time.Time
	}

	// Month is a calendar month, the unit the tables and charts are scoped to.
	Month struct {
		Year  int
		Month time.Month
	}

	Record struct {
		ID          int64
		Kind        Kind
		Date        Date
		Category    string
		Description string
		Amount      Money

		// Expense only.
		PaymentMethod string
		Tags          string
		Mood          string
		NeedOrWant    NeedOrWant
	}
)

var (
	ErrInvalidKind       = errors.New("invalid record kind")
	ErrInvalidDate       = errors.New("invalid date")
	ErrInvalidMonth      = errors.New("invalid month")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrAmountFormat      = errors.New("malformed amount")
	ErrInvalidNeedOrWant = errors.New("need_or_want must be need or want")
)

// ParseKind accepts the wire names "income" and "expense".
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.TrimSpace(s)); k {
	case KindIncome, KindExpense:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidKind, s)
	}
}

func (k Kind) Valid() bool {
	return k == KindIncome || k == KindExpense
}

// Label is the display name used by charts and exports.
func (k Kind) Label() string {
	switch k {
	case KindIncome:
		return "收入"
	case KindExpense:
		return "支出"
	default:
		return string(k)
	}
}

func ParseNeedOrWant(s string) (NeedOrWant, error) {
	switch v := NeedOrWant(strings.TrimSpace(s)); v {
	case "", Need, Want:
		return v, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidNeedOrWant, s)
	}
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

// IsDate reports whether s is a well-formed YYYY-MM-DD date.
func IsDate(s string) bool {
	_, err := ParseDate(s)
	return err == nil
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

// Period returns the month the date falls in.
func (d Date) Period() Month {
	return Month{Year: d.Year(), Month: d.Time.Month()}
}

// ParseMonth parses a YYYY-MM month.
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse(monthLayout, strings.TrimSpace(s))
	if err != nil {
		return Month{}, fmt.Errorf("%w: %q", ErrInvalidMonth, s)
	}
	return Month{Year: t.Year(), Month: t.Month()}, nil
}

// NewMonth validates a numeric year and month pair.
func NewMonth(year, month int) (Month, error) {
	if year < 1 || year > 9999 || month < 1 || month > 12 {
		return Month{}, fmt.Errorf("%w: %04d-%02d", ErrInvalidMonth, year, month)
	}
	return Month{Year: year, Month: time.Month(month)}, nil
}

// CurrentMonth returns the month containing t.
func CurrentMonth(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

func (m Month) IsZero() bool {
	return m.Year == 0 && m.Month == 0
}

// AddMonths moves by whole calendar months.
func (m Month) AddMonths(n int) Month {
	t := time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, n, 0)
	return Month{Year: t.Year(), Month: t.Month()}
}

func (m Month) Contains(d Date) bool {
	return d.Period() == m
}

// Trailing returns the n months ending with m, oldest first.
func (m Month) Trailing(n int) []Month {
	months := make([]Month, 0, n)
	for i := n - 1; i >= 0; i-- {
		months = append(months, m.AddMonths(-i))
	}
	return months
}

// Normalize trims free-text fields and drops expense-only fields from
// income records.
func (r *Record) Normalize() {
	r.Category = strings.TrimSpace(r.Category)
	r.Description = strings.TrimSpace(r.Description)
	r.PaymentMethod = strings.TrimSpace(r.PaymentMethod)
	r.Tags = strings.TrimSpace(r.Tags)
	r.Mood = strings.TrimSpace(r.Mood)
	if r.Kind == KindIncome {
		r.PaymentMethod, r.Tags, r.Mood, r.NeedOrWant = "", "", "", ""
	}
}

func (r Record) Validate() error {
	if !r.Kind.Valid() {
		return ErrInvalidKind
	}
	if r.Date.IsZero() {
		return ErrInvalidDate
	}
	if err := r.Amount.Validate(); err != nil {
		return err
	}
	if _, err := ParseNeedOrWant(string(r.NeedOrWant)); err != nil {
		return err
	}
	return nil
}
