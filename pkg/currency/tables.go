package currency

import "strings"

// countryCurrency maps ISO 3166 alpha-2 country codes to their currency.
var countryCurrency = map[string]string{
	"US": "USD", "CA": "CAD", "MX": "MXN", "BR": "BRL", "AR": "ARS",
	"CL": "CLP", "CO": "COP", "PE": "PEN", "UY": "UYU",
	"GB": "GBP", "IE": "EUR", "DE": "EUR", "FR": "EUR", "ES": "EUR",
	"IT": "EUR", "PT": "EUR", "NL": "EUR", "BE": "EUR", "AT": "EUR",
	"FI": "EUR", "GR": "EUR", "LU": "EUR", "SK": "EUR", "SI": "EUR",
	"EE": "EUR", "LV": "EUR", "LT": "EUR", "HR": "EUR", "MT": "EUR",
	"CY": "EUR", "CH": "CHF", "LI": "CHF", "SE": "SEK", "NO": "NOK",
	"DK": "DKK", "IS": "ISK", "PL": "PLN", "CZ": "CZK", "HU": "HUF",
	"RO": "RON", "BG": "BGN", "TR": "TRY", "UA": "UAH", "RU": "RUB",
	"JP": "JPY", "CN": "CNY", "HK": "HKD", "TW": "TWD", "KR": "KRW",
	"SG": "SGD", "MY": "MYR", "TH": "THB", "ID": "IDR", "PH": "PHP",
	"VN": "VND", "IN": "INR", "PK": "PKR", "AU": "AUD", "NZ": "NZD",
	"AE": "AED", "SA": "SAR", "QA": "QAR", "KW": "KWD", "BH": "BHD",
	"IL": "ILS", "EG": "EGP", "ZA": "ZAR", "NG": "NGN", "KE": "KES",
	"MA": "MAD",
}

// localeCurrency maps locales without a usable region to a currency. Regional
// locales resolve through countryCurrency first.
var localeCurrency = map[string]string{
	"en": "USD", "ja": "JPY", "ko": "KRW", "zh": "CNY", "de": "EUR",
	"fr": "EUR", "es": "EUR", "it": "EUR", "pt": "EUR", "nl": "EUR",
	"fi": "EUR", "el": "EUR", "sv": "SEK", "nb": "NOK", "no": "NOK",
	"da": "DKK", "pl": "PLN", "cs": "CZK", "hu": "HUF", "ro": "RON",
	"tr": "TRY", "ru": "RUB", "uk": "UAH", "he": "ILS", "th": "THB",
	"vi": "VND", "id": "IDR", "ms": "MYR", "hi": "INR",
}

var symbols = map[string]string{
	"USD": "$", "EUR": "€", "GBP": "£", "JPY": "¥", "CNY": "¥",
	"CAD": "CA$", "AUD": "A$", "NZD": "NZ$", "HKD": "HK$", "SGD": "S$",
	"MXN": "MX$", "BRL": "R$", "CHF": "CHF", "SEK": "kr", "NOK": "kr",
	"DKK": "kr", "PLN": "zł", "CZK": "Kč", "HUF": "Ft", "INR": "₹",
	"KRW": "₩", "TRY": "₺", "RUB": "₽", "UAH": "₴", "ILS": "₪",
	"ZAR": "R", "THB": "฿", "VND": "₫", "PHP": "₱", "KWD": "KD",
	"EGP": "E£", "AED": "AED", "SAR": "SAR",
}

// CountryCurrency returns the currency used in a country.
func CountryCurrency(country string) (string, bool) {
	code, ok := countryCurrency[strings.ToUpper(strings.TrimSpace(country))]
	return code, ok
}

// Symbol returns the display symbol of a currency, or the code itself.
func Symbol(code string) string {
	if s, ok := symbols[code]; ok {
		return s
	}
	return code
}
