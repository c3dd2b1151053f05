package http

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"ledger/internal/core"
)

// monthFromQuery reads the month a page or listing is scoped to:
// month_select or month as YYYY-MM, else year and month as numbers,
// else the month of now.
func monthFromQuery(q url.Values, now time.Time) (core.Month, error) {
	for _, key := range []string{"month_select", "month"} {
		if v := strings.TrimSpace(q.Get(key)); strings.Contains(v, "-") {
			return core.ParseMonth(v)
		}
	}

	current := core.CurrentMonth(now)
	year, month := current.Year, int(current.Month)
	if v := strings.TrimSpace(q.Get("year")); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			return core.Month{}, core.ErrInvalidMonth
		}
		year = y
	}
	if v := strings.TrimSpace(q.Get("month")); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil {
			return core.Month{}, core.ErrInvalidMonth
		}
		month = m
	}
	return core.NewMonth(year, month)
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
