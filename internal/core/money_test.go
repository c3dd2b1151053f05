package core

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in      string
		out     int64
		wantErr error
	}{
		{"1", 100, nil},
		{"1.0", 100, nil},
		{"1.23", 123, nil},
		{"0.01", 1, nil},
		{"1.005", 101, nil}, // half-up rounding
		{" 2.50 ", 250, nil},
		{"50", 5000, nil},
		{"-1", 0, ErrInvalidAmount},
		{"-5", 0, ErrInvalidAmount},
		{"0", 0, ErrInvalidAmount},
		{"0.001", 0, ErrInvalidAmount},
		{"abc", 0, ErrAmountFormat},
		{"1.2.3", 0, ErrAmountFormat},
		{"", 0, ErrAmountFormat},
		{"10000000000000", 0, ErrAmountFormat},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.wantErr == nil {
			if err != nil || got.Cents != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got.Cents, err)
			}
			continue
		}
		if !errors.Is(err, tc.wantErr) {
			t.Fatalf("%q expected %v, got %v", tc.in, tc.wantErr, err)
		}
	}
}

func TestMoneyString(t *testing.T) {
	cases := map[int64]string{
		5000: "50.00",
		1:    "0.01",
		1234: "12.34",
		0:    "0.00",
	}
	for cents, want := range cases {
		if got := (Money{Cents: cents}).String(); got != want {
			t.Errorf("Money{%d}.String() = %q, want %q", cents, got, want)
		}
	}
}

func TestMoneyJSON(t *testing.T) {
	b, err := json.Marshal(struct {
		Amount Money `json:"amount"`
	}{Money{Cents: 1250}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"amount":12.50}` {
		t.Fatalf("unexpected json %s", b)
	}

	for _, in := range []string{`12.5`, `"12.50"`, `12.50`} {
		var m Money
		if err := json.Unmarshal([]byte(in), &m); err != nil {
			t.Fatalf("unmarshal %s: %v", in, err)
		}
		if m.Cents != 1250 {
			t.Fatalf("unmarshal %s = %d", in, m.Cents)
		}
	}

	var m Money
	if err := json.Unmarshal([]byte(`"x"`), &m); err == nil {
		t.Fatalf("expected error for non-numeric amount")
	}
}
