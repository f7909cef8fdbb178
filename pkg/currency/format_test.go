package currency_test

import (
	"testing"

	"github.com/amirasaad/storefront/pkg/currency"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatPrice(t *testing.T) {
	tests := []struct {
		name   string
		amount string
		code   string
		locale string
		want   string
	}{
		{"us dollars", "1234.5", "USD", "en-US", "$1,234.50"},
		{"euro in germany", "1234.5", "EUR", "de-DE", "1.234,50 €"},
		{"yen has no minor unit", "1500", "JPY", "ja-JP", "¥1,500"},
		{"negative", "-5", "USD", "en", "-$5.00"},
		{"unknown locale falls back", "12.3", "EUR", "not a locale!", "12.30 €"},
		{"empty locale falls back", "7", "XYZ", "", "7.00 XYZ"},
		{"invalid code falls back", "7", "EURO", "en-US", "7.00 EURO"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := currency.FormatPrice(decimal.RequireFromString(tt.amount), tt.code, tt.locale)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatPrice_RoundTrip(t *testing.T) {
	amounts := []string{"0", "0.01", "9.99", "1234.56", "1000000", "-42.1"}
	locales := []string{"en-US", "de-DE", "fr-FR", "en-GB", "it", "bogus locale"}
	codes := []string{"USD", "EUR", "GBP", "CHF"}

	for _, raw := range amounts {
		amount := decimal.RequireFromString(raw)
		for _, locale := range locales {
			for _, code := range codes {
				formatted := currency.FormatPrice(amount, code, locale)
				parsed, err := currency.ParsePrice(formatted, code, locale)
				require.NoError(t, err, formatted)
				assert.True(t, parsed.Equal(amount.Round(2)), "%s %s %s -> %s -> %s", raw, code, locale, formatted, parsed)
			}
		}
	}
}
