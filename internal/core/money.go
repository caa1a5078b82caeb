// Package core provides the domain model for ledgers: money arithmetic,
// date ranges, transactions, recurring items and budget allocations.
//
// Money is backed by an arbitrary-precision decimal so that summing any
// number of amounts never drifts. Native floats are never involved, not
// even as an intermediate step.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Money is an exact decimal currency amount. The zero value is 0.00.
//
// Serialization always produces an ASCII decimal string with exactly two
// fraction digits ("123.40"); rounding happens once, at that boundary.
type Money struct {
	dec decimal.Decimal
}

// MoneyFromDecimal wraps a raw decimal as Money.
func MoneyFromDecimal(d decimal.Decimal) Money {
	return Money{dec: d}
}

// MoneyFromCents builds a Money from integer minor units. This is the
// legacy wire encoding used by the integration ingest queue.
func MoneyFromCents(cents int64) Money {
	return Money{dec: decimal.New(cents, -2)}
}

// ParseMoney parses a decimal amount string. Both dot and comma decimal
// separators are accepted.
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, BadRequest("empty amount")
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, BadRequestf("invalid amount %q", s)
	}
	return Money{dec: d}, nil
}

// ParseMoneyFixed2 parses an amount that must carry at most two fraction
// digits. Budget allocation amounts are stored with 2-decimal precision
// and anything finer is rejected rather than coerced.
func ParseMoneyFixed2(s string) (Money, error) {
	m, err := ParseMoney(s)
	if err != nil {
		return Money{}, err
	}
	if m.dec.Exponent() < -2 {
		return Money{}, BadRequestf("amount %q has more than two decimal places", s)
	}
	return m, nil
}

// Add returns m + o without loss of precision.
func (m Money) Add(o Money) Money {
	return Money{dec: m.dec.Add(o.dec)}
}

// Sub returns m - o without loss of precision.
func (m Money) Sub(o Money) Money {
	return Money{dec: m.dec.Sub(o.dec)}
}

// DivInt divides m by n. The quotient keeps the library's full division
// precision; callers round only when formatting.
func (m Money) DivInt(n int64) Money {
	return Money{dec: m.dec.Div(decimal.NewFromInt(n))}
}

// Neg returns -m.
func (m Money) Neg() Money {
	return Money{dec: m.dec.Neg()}
}

// IsPositive reports whether m > 0.
func (m Money) IsPositive() bool { return m.dec.IsPositive() }

// IsNegative reports whether m < 0.
func (m Money) IsNegative() bool { return m.dec.IsNegative() }

// IsZero reports whether m == 0.
func (m Money) IsZero() bool { return m.dec.IsZero() }

// Equal reports numeric equality, ignoring exponent representation.
func (m Money) Equal(o Money) bool { return m.dec.Equal(o.dec) }

// Cmp compares m and o, returning -1, 0 or 1.
func (m Money) Cmp(o Money) int { return m.dec.Cmp(o.dec) }

// Decimal returns the underlying decimal value.
func (m Money) Decimal() decimal.Decimal { return m.dec }

// Fixed2 renders the amount with exactly two fraction digits, rounding
// half away from zero. This is the only place rounding occurs.
func (m Money) Fixed2() string {
	return m.dec.StringFixed(2)
}

// String implements fmt.Stringer using the two-decimal form.
func (m Money) String() string { return m.Fixed2() }

// MarshalJSON encodes the amount as a fixed two-decimal JSON string.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.Fixed2() + `"`), nil
}

// UnmarshalJSON accepts a JSON string holding a decimal amount.
func (m *Money) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	parsed, err := ParseMoney(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
