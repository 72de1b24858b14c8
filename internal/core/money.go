// Package core holds the payment domain: records, validation, money handling
// and the dashboard statistics aggregator.
package core

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is a rupee amount kept as integer paise.
type Money struct {
	Paise int64
}

const maxSafePaise = (1<<63 - 1) / 100

// Rupees builds a Money from a whole rupee value.
func Rupees(r int64) Money { return Money{Paise: r * 100} }

// ParseDecimalToPaise converts a decimal rupee string to paise.
//
// Dot and comma separators are accepted and the third fractional digit is
// rounded half-up. Only strictly positive plain decimals are valid.
//
//	ParseDecimalToPaise("12.34")  -> 1234
//	ParseDecimalToPaise("12,345") -> 1235
func ParseDecimalToPaise(s string) (int64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" || strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	for _, r := range s {
		if (r < '0' || r > '9') && r != '.' {
			return 0, ErrInvalidAmount
		}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	paise := d.Shift(2).Round(0)
	if paise.GreaterThan(decimal.NewFromInt(maxSafePaise)) {
		return 0, ErrInvalidAmount
	}
	if !paise.IsPositive() {
		return 0, ErrInvalidAmount
	}
	return paise.IntPart(), nil
}

func (m Money) Validate() error {
	if m.Paise <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (m Money) Add(o Money) Money { return Money{Paise: m.Paise + o.Paise} }

func (m Money) IsZero() bool { return m.Paise == 0 }

// Decimal returns the rupee value. Use it for display and JSON, never floats.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Paise, -2)
}

// String renders the amount with two decimals, e.g. "1250.50".
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// MarshalJSON encodes the amount as a JSON number of rupees.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Decimal().String()), nil
}

// UnmarshalJSON accepts a JSON number or numeric string of rupees. Sign is
// preserved so Validate can reject non-positive amounts explicitly.
func (m *Money) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(bytes.TrimSpace(b), `"`)
	if len(b) == 0 || string(b) == "null" {
		m.Paise = 0
		return nil
	}
	d, err := decimal.NewFromString(string(b))
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidAmount, b)
	}
	m.Paise = d.Shift(2).Round(0).IntPart()
	return nil
}
