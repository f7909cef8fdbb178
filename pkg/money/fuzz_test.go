package money_test

import (
	"testing"

	"github.com/amirasaad/storefront/pkg/money"
	"github.com/shopspring/decimal"
)

// FuzzMinorRoundTrip checks that minor-unit conversion is lossless for amounts
// already rounded to the currency's precision.
func FuzzMinorRoundTrip(f *testing.F) {
	f.Add(int64(1050), "USD")
	f.Add(int64(-75), "EUR")
	f.Add(int64(0), "JPY")
	f.Add(int64(1234567), "KWD")

	f.Fuzz(func(t *testing.T, minor int64, cc string) {
		code := money.Normalize(cc)
		if !code.IsValid() {
			t.Skip("Skipping invalid currency code")
		}
		amount := money.FromMinor(minor, code)
		if got := money.ToMinor(amount, code); got != minor {
			t.Errorf("round trip changed amount: got %d, want %d (%s)", got, minor, code)
		}
		if !amount.Equal(decimal.New(minor, -int32(code.Decimals()))) {
			t.Errorf("unexpected major amount %s", amount)
		}
	})
}
