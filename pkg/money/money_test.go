package money_test

import (
	"testing"

	"github.com/amirasaad/storefront/pkg/money"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCode(t *testing.T) {
	assert.True(t, money.Code("USD").IsValid())
	assert.False(t, money.Code("usd").IsValid())
	assert.False(t, money.Code("US").IsValid())
	assert.False(t, money.Code("US1").IsValid())
	assert.Equal(t, money.Code("EUR"), money.Normalize(" eur "))

	assert.Equal(t, 2, money.USD.Decimals())
	assert.Equal(t, 0, money.JPY.Decimals())
	assert.Equal(t, 3, money.KWD.Decimals())
}

func TestNew(t *testing.T) {
	m, err := money.New(decimal.RequireFromString("12.5"), "usd")
	require.NoError(t, err)
	assert.Equal(t, money.USD, m.Currency)
	assert.Equal(t, "12.50 USD", m.String())

	_, err = money.New(decimal.NewFromInt(1), "dollars")
	assert.ErrorIs(t, err, money.ErrInvalidCurrency)
}

func TestArithmetic(t *testing.T) {
	a := money.Must("10.25", "USD")
	b := money.Must("4.75", "USD")

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.True(t, sum.Amount.Equal(decimal.NewFromInt(15)))

	_, err = a.Add(money.Must("1", "EUR"))
	assert.ErrorIs(t, err, money.ErrMismatchedCurrencies)

	assert.True(t, a.Times(3).Amount.Equal(decimal.RequireFromString("30.75")))
	assert.Equal(t, int64(1025), a.Minor())
	assert.Equal(t, int64(1000), money.Must("999.6", "JPY").Minor())
	assert.True(t, money.Must("1.2345", "USD").Rounded().Amount.Equal(decimal.RequireFromString("1.23")))
}

func TestMinorConversion(t *testing.T) {
	assert.Equal(t, int64(1999), money.ToMinor(decimal.RequireFromString("19.99"), money.USD))
	assert.Equal(t, int64(1500), money.ToMinor(decimal.RequireFromString("1.5"), money.KWD))
	assert.True(t, money.FromMinor(1999, money.USD).Equal(decimal.RequireFromString("19.99")))
	assert.True(t, money.FromMinor(500, money.JPY).Equal(decimal.NewFromInt(500)))
}
