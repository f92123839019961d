// Package core provides the ledger domain model.
//
// This file contains the money type and amount parsing. Amounts are held as
// integer cents and converted through shopspring/decimal so that currency
// conversion never goes through binary floating point.
package core

import (
	"bytes"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is an amount with two decimal places, stored as cents.
type Money struct {
	Cents int64
}

// MaxCents bounds any single amount so that cents and monthly totals stay
// well inside int64.
const MaxCents int64 = 100_000_000_000_000

var maxAmount = decimal.New(MaxCents, -2)

// NewMoney rounds d half away from zero to two decimals. d must already be
// within MaxCents; use ToMoney for unchecked input.
func NewMoney(d decimal.Decimal) Money {
	return Money{Cents: d.Round(2).Shift(2).IntPart()}
}

// ToMoney is NewMoney with a range check: amounts whose magnitude exceeds
// MaxCents fail with ErrInvalidAmount.
func ToMoney(d decimal.Decimal) (Money, error) {
	if d.Round(2).Abs().GreaterThan(maxAmount) {
		return Money{}, ErrInvalidAmount
	}
	return NewMoney(d), nil
}

// ParseAmount converts a validated amount string into a decimal.
//
// Examples:
//
//	ParseAmount("12")    -> 12, nil
//	ParseAmount("12.50") -> 12.5, nil
//	ParseAmount("12.345") -> error (more than two decimals)
//	ParseAmount("-1")    -> error
//	ParseAmount("2000000000000") -> error (above MaxCents)
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if !ValidateAmount(s) {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil || d.GreaterThan(maxAmount) {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// Decimal returns the amount as a decimal value.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// String formats the amount with exactly two decimals, e.g. "14000.00".
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// Plain formats the amount without trailing zeros, e.g. "14000" or "12.5".
func (m Money) Plain() string {
	return m.Decimal().String()
}

// Add returns m+o.
func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

// IsZero reports whether the amount is zero.
func (m Money) IsZero() bool {
	return m.Cents == 0
}

// MarshalJSON writes the amount as a bare JSON number.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Plain()), nil
}

// UnmarshalJSON accepts a JSON number, a numeric string or null.
func (m *Money) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		m.Cents = 0
		return nil
	}
	s := strings.Trim(string(data), `"`)
	if s == "" {
		m.Cents = 0
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return ErrInvalidAmount
	}
	v, err := ToMoney(d)
	if err != nil {
		return err
	}
	*m = v
	return nil
}
