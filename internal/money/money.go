// Package money provides non-negative monetary amounts and order quantities.
package money

import (
	"errors"
	"fmt"
	"math"
	"math/big"

	"github.com/shopspring/decimal"
)

var (
	ErrNegativeAmount = errors.New("money: negative amount")
	ErrNegativeResult = errors.New("money: operation would result in negative amount")
)

// Amount is an immutable, non-negative decimal value in the store currency.
type Amount struct {
	d decimal.Decimal
}

// Zero is the zero amount.
var Zero = Amount{}

// New creates an Amount, rejecting negative values.
func New(d decimal.Decimal) (Amount, error) {
	if d.IsNegative() {
		return Amount{}, fmt.Errorf("%w: %s", ErrNegativeAmount, d)
	}
	return Amount{d: d}, nil
}

// MustNew is New for values known to be non-negative. It panics otherwise.
func MustNew(d decimal.Decimal) Amount {
	a, err := New(d)
	if err != nil {
		panic(err)
	}
	return a
}

// FromString parses a plain decimal string.
func FromString(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, fmt.Errorf("money: invalid decimal %q: %w", s, err)
	}
	return New(d)
}

// RequireFromString is FromString that panics, for constants and tests.
func RequireFromString(s string) Amount {
	a, err := FromString(s)
	if err != nil {
		panic(err)
	}
	return a
}

// Decimal returns the underlying value.
func (a Amount) Decimal() decimal.Decimal {
	return a.d
}

func (a Amount) IsZero() bool {
	return a.d.IsZero()
}

func (a Amount) IsPositive() bool {
	return a.d.IsPositive()
}

func (a Amount) Add(b Amount) Amount {
	return Amount{d: a.d.Add(b.d)}
}

// Sub subtracts b, failing when the result would be negative.
func (a Amount) Sub(b Amount) (Amount, error) {
	if a.d.LessThan(b.d) {
		return Amount{}, ErrNegativeResult
	}
	return Amount{d: a.d.Sub(b.d)}, nil
}

// MulUnits multiplies by a quantity.
func (a Amount) MulUnits(u Units) Amount {
	return Amount{d: a.d.Mul(u.Decimal())}
}

// Round rounds half away from zero to places decimals.
func (a Amount) Round(places int32) Amount {
	return Amount{d: a.d.Round(places)}
}

func (a Amount) Cmp(b Amount) int {
	return a.d.Cmp(b.d)
}

func (a Amount) LessThan(b Amount) bool {
	return a.d.LessThan(b.d)
}

func (a Amount) LessThanOrEqual(b Amount) bool {
	return a.d.LessThanOrEqual(b.d)
}

func (a Amount) Equal(b Amount) bool {
	return a.d.Equal(b.d)
}

// Affordable returns how many whole units of unitPrice fit in a. A zero price
// yields zero units.
func (a Amount) Affordable(unitPrice Amount) Units {
	return a.AffordableUpTo(unitPrice, math.MaxUint64)
}

// AffordableUpTo is Affordable capped at limit. The quotient is compared with
// limit before it is converted, so huge amounts cannot overflow Units.
func (a Amount) AffordableUpTo(unitPrice Amount, limit Units) Units {
	if !unitPrice.IsPositive() || limit == 0 {
		return 0
	}

	var u Units
	if q := a.d.Div(unitPrice.d).Floor(); q.GreaterThanOrEqual(limit.Decimal()) {
		u = limit
	} else {
		u = Units(q.BigInt().Uint64())
	}

	// decimal division rounds at DivisionPrecision, so the floor is off by at most one
	if u > 0 && unitPrice.MulUnits(u).d.GreaterThan(a.d) {
		u--
	} else if u < limit && unitPrice.MulUnits(u+1).d.LessThanOrEqual(a.d) {
		u++
	}
	return u
}

// String renders plain decimal text without grouping.
func (a Amount) String() string {
	return a.d.String()
}

// StringFixed renders with a fixed number of decimals.
func (a Amount) StringFixed(places int32) string {
	return a.d.StringFixed(places)
}

// Units is a non-negative item quantity.
type Units uint64

func (u Units) Decimal() decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(uint64(u)), 0)
}
