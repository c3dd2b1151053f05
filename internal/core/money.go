// Package core provides money parsing and handling utilities.
//
// Amounts are kept as integer cents and converted through shopspring/decimal
// at the edges so that parsing and formatting never go through float64.
package core

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is a non-negative amount in cents.
type Money struct {
	Cents int64
}

// maxAmount keeps cents well inside int64 after summing many records.
var maxAmount = decimal.New(1, 13)

// ParseAmount converts a decimal string to Money with half-up rounding to
// two places.
//
// Examples:
//
//	ParseAmount("12.34")  -> 1234
//	ParseAmount("12.345") -> 1235
//	ParseAmount("0")      -> ErrInvalidAmount
//	ParseAmount("abc")    -> ErrAmountFormat
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrAmountFormat
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q", ErrAmountFormat, s)
	}
	if !d.IsPositive() {
		return Money{}, ErrInvalidAmount
	}
	if d.GreaterThanOrEqual(maxAmount) {
		return Money{}, fmt.Errorf("%w: %s exceeds limit", ErrAmountFormat, s)
	}
	m := MoneyFromDecimal(d)
	if m.Cents <= 0 {
		return Money{}, ErrInvalidAmount
	}
	return m, nil
}

// MoneyFromDecimal rounds d to cents.
func MoneyFromDecimal(d decimal.Decimal) Money {
	return Money{Cents: d.Round(2).Shift(2).IntPart()}
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

// String formats with exactly two decimals, e.g. "50.00".
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// Float64 is for chart scaling only.
func (m Money) Float64() float64 {
	f, _ := m.Decimal().Float64()
	return f
}

// MarshalJSON writes the amount as a JSON number with two decimals.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts a JSON number or a numeric string. Zero is allowed
// here so that empty chart buckets decode; records are validated separately.
func (m *Money) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "null" || s == "" {
		*m = Money{}
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrAmountFormat, data)
	}
	*m = MoneyFromDecimal(d)
	return nil
}
