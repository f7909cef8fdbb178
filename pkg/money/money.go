// Package money provides the monetary value used by quotes and payment sessions.
//
// Invariants:
//   - Amount is a decimal in the major unit (e.g. 12.50 for USD).
//   - Currency code must be three upper-case letters.
//   - All arithmetic operations require matching currencies.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Money represents a monetary value stamped with its currency.
type Money struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency Code            `json:"currency"`
}

// New creates a Money value after validating the currency code.
func New(amount decimal.Decimal, currency string) (Money, error) {
	code := Normalize(currency)
	if !code.IsValid() {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidCurrency, currency)
	}
	return Money{Amount: amount, Currency: code}, nil
}

// Must is New that panics; reserved for constants and tests.
func Must(amount string, currency string) Money {
	m, err := New(decimal.RequireFromString(amount), currency)
	if err != nil {
		panic(fmt.Sprintf("money.Must(%v, %v): %v", amount, currency, err))
	}
	return m
}

// Zero returns a zero amount in the given currency.
func Zero(currency Code) Money {
	return Money{Amount: decimal.Zero, Currency: currency}
}

// Add returns the sum of two values of the same currency.
func (m Money) Add(other Money) (Money, error) {
	if m.Currency != other.Currency {
		return Money{}, fmt.Errorf(
			"%w: %s and %s", ErrMismatchedCurrencies, m.Currency, other.Currency,
		)
	}
	return Money{Amount: m.Amount.Add(other.Amount), Currency: m.Currency}, nil
}

// Times multiplies the amount by a quantity.
func (m Money) Times(qty int) Money {
	return Money{Amount: m.Amount.Mul(decimal.NewFromInt(int64(qty))), Currency: m.Currency}
}

// IsNegative reports whether the amount is below zero.
func (m Money) IsNegative() bool { return m.Amount.IsNegative() }

// Rounded rounds the amount to the currency's minor unit.
func (m Money) Rounded() Money {
	return Money{Amount: m.Amount.Round(int32(m.Currency.Decimals())), Currency: m.Currency}
}

// Minor returns the amount in the smallest currency unit (cents for USD).
func (m Money) Minor() int64 {
	return ToMinor(m.Amount, m.Currency)
}

// String renders the amount with the currency's minor digits, e.g. "12.50 USD".
func (m Money) String() string {
	return m.Amount.StringFixed(int32(m.Currency.Decimals())) + " " + string(m.Currency)
}

// ToMinor converts a major-unit decimal into minor units, rounding half away from zero.
func ToMinor(amount decimal.Decimal, currency Code) int64 {
	return amount.Shift(int32(currency.Decimals())).Round(0).IntPart()
}

// FromMinor converts minor units into a major-unit decimal.
func FromMinor(minor int64, currency Code) decimal.Decimal {
	return decimal.New(minor, -int32(currency.Decimals()))
}
