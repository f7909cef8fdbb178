// Package currency decides which currency a shopper sees and pays in.
//
// Resolution walks a fixed priority chain of sources; the first candidate that
// passes validation wins. The shop currency and the enabled-currency list backing
// it are cached with independent timestamps, and an expired entry is preferred
// over the hard-coded fallback when a live fetch fails.
package currency

import (
	"context"
	"errors"
	"time"

	"github.com/amirasaad/storefront/pkg/result"
)

// Source identifies where a resolved currency came from.
type Source string

const (
	SourcePlatform    Source = "platform-response"
	SourcePreference  Source = "user-preference"
	SourceGeolocation Source = "geolocation"
	SourceLocale      Source = "browser-locale"
	SourceShopDefault Source = "shop-default"
	SourceFallback    Source = "fallback"
)

// Confidence returns the diagnostic score attached to a source. It is never used
// to pick between candidates.
func (s Source) Confidence() float64 {
	switch s {
	case SourcePlatform:
		return 1.0
	case SourcePreference:
		return 0.9
	case SourceGeolocation:
		return 0.8
	case SourceLocale:
		return 0.75
	case SourceShopDefault:
		return 0.7
	default:
		return 0.5
	}
}

// Resolution is the outcome of a single Resolve call.
type Resolution struct {
	Code       string            `json:"currency"`
	Source     Source            `json:"source"`
	Confidence float64           `json:"confidence"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// Signals carries the per-request inputs of the detection chain.
type Signals struct {
	// PlatformCurrency is the currency attached to the most recent platform response.
	PlatformCurrency string
	// SessionID keys the stored user preference.
	SessionID string
	// Country is an ISO 3166 alpha-2 code from IP geolocation.
	Country string
	// AcceptLanguage is the raw Accept-Language header.
	AcceptLanguage string
}

var (
	ErrInvalidCurrency    = errors.New("currency code must be three letters")
	ErrCurrencyNotEnabled = errors.New("currency is not enabled for this shop")
)

// ShopSource is the platform side of the engine: the shop default currency and the
// enabled-currency list. EnabledCurrencies may return a degraded empty list.
type ShopSource interface {
	ShopCurrency(ctx context.Context) result.Result[string]
	EnabledCurrencies(ctx context.Context) result.Result[[]string]
}

// Config controls the engine.
type Config struct {
	CacheTTL      time.Duration
	Fallback      string
	MultiCurrency bool
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() Config {
	return Config{
		CacheTTL:      time.Hour,
		Fallback:      "USD",
		MultiCurrency: true,
	}
}
