// Package money provides the fixed-point currency representation used by the
// ledger. All computed amounts are stored in minor units (cents) as int64 to
// keep split arithmetic exact; floats only appear at the parsing and display
// edges.
package money

import (
	"fmt"
	"math"

	gomoney "github.com/Rhymond/go-money"
)

// Cents is an amount in minor currency units. Positive means owed money when
// used as a balance, negative means owes money.
type Cents int64

// Tolerance is the comparison slack for amounts: one minor unit, the
// fixed-point equivalent of the 0.01 currency-unit tolerance used throughout
// the ledger.
const Tolerance Cents = 1

// FromFloat converts a major-unit value (e.g. user-entered 12.34) to Cents,
// rounding half away from zero.
func FromFloat(v float64) Cents {
	return Cents(math.Round(v * 100))
}

// Float converts back to major units for raw split values and JSON responses.
func (c Cents) Float() float64 {
	return float64(c) / 100
}

// Abs returns the magnitude of the amount.
func (c Cents) Abs() Cents {
	if c < 0 {
		return -c
	}
	return c
}

// IsZero reports whether the amount is settled, i.e. below tolerance.
func (c Cents) IsZero() bool {
	return c.Abs() < Tolerance
}

// Equal reports whether two amounts match within tolerance. Amounts up to one
// cent apart count as equal; only a difference exceeding the tolerance is a
// real change.
func (c Cents) Equal(other Cents) bool {
	return (c - other).Abs() <= Tolerance
}

// Format renders the amount for display in the given currency. Known ISO
// codes are formatted by go-money with their symbol and decimal rules;
// anything else falls back to a plain "12.34 CODE" rendering so custom group
// currencies still display.
func Format(c Cents, currency string) string {
	if gomoney.GetCurrency(currency) != nil {
		return gomoney.New(int64(c), currency).Display()
	}
	sign := ""
	v := c
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d %s", sign, v/100, v%100, currency)
}
