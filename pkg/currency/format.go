package currency

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/amirasaad/storefront/pkg/money"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// suffixLanguages place the symbol after the amount.
var suffixLanguages = map[string]bool{
	"de": true, "fr": true, "es": true, "it": true, "pt": true, "pl": true,
	"sv": true, "nb": true, "no": true, "da": true, "fi": true, "cs": true,
	"sk": true, "hu": true, "ro": true, "ru": true, "uk": true, "el": true,
	"vi": true,
}

var errUnformattable = errors.New("unsupported locale or currency")

// FormatPrice renders amount in code for locale, e.g. "$1,234.50" for en-US or
// "1.234,50 €" for de-DE. An unsupported locale or currency falls back to
// "1234.50 <symbol>".
func FormatPrice(amount decimal.Decimal, code, locale string) string {
	s, err := formatLocalized(amount, code, locale)
	if err != nil {
		return fallbackFormat(amount, code)
	}
	return s
}

func formatLocalized(amount decimal.Decimal, code, locale string) (string, error) {
	c := money.Normalize(code)
	if !c.IsValid() || strings.TrimSpace(locale) == "" {
		return "", errUnformattable
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errUnformattable, err)
	}

	digits := c.Decimals()
	f, _ := amount.Abs().Round(int32(digits)).Float64()
	num := message.NewPrinter(tag).Sprint(number.Decimal(f,
		number.MinFractionDigits(digits),
		number.MaxFractionDigits(digits),
	))

	sign := ""
	if amount.Round(int32(digits)).IsNegative() {
		sign = "-"
	}
	sym := Symbol(string(c))
	base, _ := tag.Base()
	if suffixLanguages[base.String()] {
		return sign + num + " " + sym, nil
	}
	return sign + sym + num, nil
}

func fallbackFormat(amount decimal.Decimal, code string) string {
	c := money.Normalize(code)
	return amount.StringFixed(2) + " " + Symbol(string(c))
}

// ParsePrice recovers the amount from a FormatPrice result. Only latin digits are
// understood.
func ParsePrice(formatted, code, locale string) (decimal.Decimal, error) {
	c := money.Normalize(code)
	s := strings.ReplaceAll(formatted, Symbol(string(c)), "")
	s = strings.ReplaceAll(s, string(c), "")

	sep := '.'
	if tag, err := language.Parse(locale); err == nil && strings.TrimSpace(locale) != "" {
		sep = decimalSeparator(tag)
	}

	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		case r == sep:
			b.WriteRune('.')
		case unicode.IsSpace(r), unicode.IsPunct(r), unicode.Is(unicode.Zs, r):
			// grouping separators
		}
	}
	d, err := decimal.NewFromString(b.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse price %q: %w", formatted, err)
	}
	return d, nil
}

func decimalSeparator(tag language.Tag) rune {
	s := message.NewPrinter(tag).Sprint(number.Decimal(1.5, number.MinFractionDigits(1)))
	for _, r := range s {
		if r < '0' || r > '9' {
			return r
		}
	}
	return '.'
}
