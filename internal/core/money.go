// Package core provides money parsing and handling utilities.
//
// This file contains the Money type, an exact two-digit decimal amount backed
// by shopspring/decimal, and the helpers used to parse and split it.
package core

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// Money is an exact decimal amount. Values produced by the ledger always carry
// at most two fraction digits.
type Money struct {
	d decimal.Decimal
}

// Zero is the zero amount.
var Zero = Money{}

// NewMoney wraps a decimal value.
func NewMoney(d decimal.Decimal) Money {
	return Money{d: d}
}

// MoneyFromCents builds an amount from an integer number of cents.
func MoneyFromCents(cents int64) Money {
	return Money{d: decimal.New(cents, -2)}
}

// MustMoney parses s and panics on error. Meant for tests and constants.
func MustMoney(s string) Money {
	m, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return Money{d: m}
}

// ParseMoney converts a user supplied decimal string into Money.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and rounds
// half away from zero to two fraction digits. Only positive amounts are valid.
//
// Examples:
//
//	ParseMoney("12.34")  -> 12.34, nil
//	ParseMoney("12,34")  -> 12.34, nil
//	ParseMoney("12.345") -> 12.35, nil
//	ParseMoney("-1")     -> 0, ErrInvalidAmount
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return Zero, ErrInvalidAmount
	}
	if strings.Count(s, ".") > 1 {
		return Zero, ErrInvalidAmount
	}
	for _, r := range s {
		if r != '.' && !unicode.IsDigit(r) {
			return Zero, ErrInvalidAmount
		}
	}
	if strings.HasPrefix(s, ".") {
		s = "0" + s
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Zero, ErrInvalidAmount
	}
	m := Money{d: d.Round(2)}
	if !m.IsPositive() {
		return Zero, ErrInvalidAmount
	}
	return m, nil
}

// Decimal exposes the underlying decimal value.
func (m Money) Decimal() decimal.Decimal { return m.d }

func (m Money) Add(o Money) Money { return Money{d: m.d.Add(o.d)} }

func (m Money) Sub(o Money) Money { return Money{d: m.d.Sub(o.d)} }

// MulInt multiplies the amount by an integer factor.
func (m Money) MulInt(n int) Money { return Money{d: m.d.Mul(decimal.NewFromInt(int64(n)))} }

// DivInt divides the amount by n and rounds the quotient to two fraction digits.
func (m Money) DivInt(n int) Money {
	return Money{d: m.d.Div(decimal.NewFromInt(int64(n))).Round(2)}
}

// Round2 rounds half away from zero to two fraction digits.
func (m Money) Round2() Money { return Money{d: m.d.Round(2)} }

func (m Money) Equal(o Money) bool { return m.d.Equal(o.d) }

func (m Money) Cmp(o Money) int { return m.d.Cmp(o.d) }

func (m Money) IsPositive() bool { return m.d.IsPositive() }

func (m Money) IsNegative() bool { return m.d.IsNegative() }

func (m Money) IsZero() bool { return m.d.IsZero() }

// String returns the shortest exact representation ("100", "33.33").
func (m Money) String() string { return m.d.String() }

// Fixed returns the amount with exactly two fraction digits ("100.00").
func (m Money) Fixed() string { return m.d.StringFixed(2) }

// Float64 returns the amount as a float for display purposes only.
func (m Money) Float64() float64 {
	f, _ := m.d.Float64()
	return f
}

// HasCents reports whether the amount fits in whole cents.
func (m Money) HasCents() bool {
	return m.d.Equal(m.d.Round(2))
}

// Validate reports whether the amount is strictly positive and carries at
// most two fraction digits.
func (m Money) Validate() error {
	if !m.IsPositive() {
		return ErrInvalidAmount
	}
	if !m.HasCents() {
		return ErrFractionalCents
	}
	return nil
}

// MarshalJSON encodes the amount as a bare JSON number.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.d.String()), nil
}

// UnmarshalJSON accepts JSON numbers and quoted decimal strings.
func (m *Money) UnmarshalJSON(b []byte) error {
	return m.d.UnmarshalJSON(b)
}

func (m Money) MarshalText() ([]byte, error) {
	return []byte(m.d.String()), nil
}

func (m *Money) UnmarshalText(b []byte) error {
	return m.d.UnmarshalText(b)
}

// Sum adds up a list of amounts.
func Sum(values ...Money) Money {
	total := Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}
