package money

import "errors"

// Common money package errors
var (
	// ErrInvalidCurrency is returned when a currency code is not three letters.
	ErrInvalidCurrency = errors.New("invalid currency code")

	// ErrMismatchedCurrencies is returned when performing operations on money with
	// different currencies
	ErrMismatchedCurrencies = errors.New("mismatched currencies")

	// ErrNegativeAmount is returned when a price or quantity would be negative
	ErrNegativeAmount = errors.New("amount cannot be negative")
)
