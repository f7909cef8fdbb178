package currency_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/amirasaad/storefront/pkg/currency"
	"github.com/amirasaad/storefront/pkg/result"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockShopSource is a mock implementation for testing
type MockShopSource struct {
	mock.Mock
}

func (m *MockShopSource) ShopCurrency(ctx context.Context) result.Result[string] {
	args := m.Called(ctx)
	return args.Get(0).(result.Result[string])
}

func (m *MockShopSource) EnabledCurrencies(ctx context.Context) result.Result[[]string] {
	args := m.Called(ctx)
	return args.Get(0).(result.Result[[]string])
}

type clock struct{ t time.Time }

func (c *clock) Now() time.Time          { return c.t }
func (c *clock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newEngine(t *testing.T, src currency.ShopSource, clk *clock) *currency.Engine {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return currency.NewEngine(
		src,
		currency.NewMemoryCache(),
		currency.NewMemoryPreferences(),
		currency.DefaultConfig(),
		logger,
		currency.WithClock(clk.Now),
	)
}

func TestResolve_PriorityChain(t *testing.T) {
	ctx := context.Background()
	src := &MockShopSource{}
	src.On("EnabledCurrencies", mock.Anything).Return(result.OK([]string{"USD", "EUR", "GBP", "JPY"}))
	src.On("ShopCurrency", mock.Anything).Return(result.OK("GBP"))
	engine := newEngine(t, src, &clock{t: time.Now()})

	_, err := engine.SetPreference(ctx, "sess-1", "eur")
	require.NoError(t, err)

	tests := []struct {
		name       string
		signals    currency.Signals
		code       string
		source     currency.Source
		confidence float64
	}{
		{
			name:       "platform response wins",
			signals:    currency.Signals{PlatformCurrency: "jpy", SessionID: "sess-1", Country: "US"},
			code:       "JPY",
			source:     currency.SourcePlatform,
			confidence: 1.0,
		},
		{
			name:       "platform currency not enabled is skipped",
			signals:    currency.Signals{PlatformCurrency: "CAD", SessionID: "sess-1"},
			code:       "EUR",
			source:     currency.SourcePreference,
			confidence: 0.9,
		},
		{
			name:       "geolocation",
			signals:    currency.Signals{Country: "jp"},
			code:       "JPY",
			source:     currency.SourceGeolocation,
			confidence: 0.8,
		},
		{
			name:       "geolocation to disabled currency falls to locale",
			signals:    currency.Signals{Country: "CH", AcceptLanguage: "en-GB,en;q=0.8"},
			code:       "GBP",
			source:     currency.SourceLocale,
			confidence: 0.75,
		},
		{
			name:       "locale without region",
			signals:    currency.Signals{AcceptLanguage: "de;q=0.9"},
			code:       "EUR",
			source:     currency.SourceLocale,
			confidence: 0.75,
		},
		{
			name:       "shop default",
			signals:    currency.Signals{AcceptLanguage: "sv-SE"},
			code:       "GBP",
			source:     currency.SourceShopDefault,
			confidence: 0.7,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := engine.Resolve(ctx, tt.signals)
			assert.Equal(t, tt.code, res.Code)
			assert.Equal(t, tt.source, res.Source)
			assert.InEpsilon(t, tt.confidence, res.Confidence, 0.0001)
		})
	}
}

func TestResolve_RememberedPlatformCurrencyOutranksPreference(t *testing.T) {
	ctx := context.Background()
	src := &MockShopSource{}
	src.On("EnabledCurrencies", mock.Anything).Return(result.OK([]string{"USD", "EUR", "GBP"}))
	src.On("ShopCurrency", mock.Anything).Return(result.OK("GBP"))
	engine := newEngine(t, src, &clock{t: time.Now()})

	_, err := engine.SetPreference(ctx, "sess-1", "GBP")
	require.NoError(t, err)
	engine.RememberPlatformCurrency(ctx, "sess-1", "eur")

	res := engine.Resolve(ctx, currency.Signals{SessionID: "sess-1", Country: "US"})
	assert.Equal(t, "EUR", res.Code)
	assert.Equal(t, currency.SourcePlatform, res.Source)

	other := engine.Resolve(ctx, currency.Signals{SessionID: "sess-2", Country: "US"})
	assert.Equal(t, "USD", other.Code)
	assert.Equal(t, currency.SourceGeolocation, other.Source)

	// choosing again hands priority back to the preference
	_, err = engine.SetPreference(ctx, "sess-1", "USD")
	require.NoError(t, err)
	res = engine.Resolve(ctx, currency.Signals{SessionID: "sess-1"})
	assert.Equal(t, "USD", res.Code)
	assert.Equal(t, currency.SourcePreference, res.Source)
}

func TestRememberPlatformCurrency_IgnoresInvalid(t *testing.T) {
	ctx := context.Background()
	src := &MockShopSource{}
	src.On("EnabledCurrencies", mock.Anything).Return(result.OK([]string{"USD", "EUR"}))
	src.On("ShopCurrency", mock.Anything).Return(result.OK("USD"))
	engine := newEngine(t, src, &clock{t: time.Now()})

	engine.RememberPlatformCurrency(ctx, "sess-1", "euro")
	engine.RememberPlatformCurrency(ctx, "", "EUR")

	res := engine.Resolve(ctx, currency.Signals{SessionID: "sess-1"})
	assert.Equal(t, "USD", res.Code)
	assert.Equal(t, currency.SourceShopDefault, res.Source)
}

func TestResolve_Fallback(t *testing.T) {
	src := &MockShopSource{}
	src.On("EnabledCurrencies", mock.Anything).Return(result.Degraded([]string{}, result.Error{Message: "unsupported"}))
	src.On("ShopCurrency", mock.Anything).Return(result.Failure[string](result.CodeTransport, "timeout"))
	engine := newEngine(t, src, &clock{t: time.Now()})

	res := engine.Resolve(context.Background(), currency.Signals{})
	assert.Equal(t, "USD", res.Code)
	assert.Equal(t, currency.SourceFallback, res.Source)
	assert.NotEmpty(t, res.Metadata["reason"])
}

func TestResolve_IdempotentWithinTTL(t *testing.T) {
	ctx := context.Background()
	src := &MockShopSource{}
	src.On("ShopCurrency", mock.Anything).Return(result.OK("EUR")).Once()
	clk := &clock{t: time.Now()}
	engine := newEngine(t, src, clk)

	first := engine.Resolve(ctx, currency.Signals{})
	clk.Advance(30 * time.Minute)
	second := engine.Resolve(ctx, currency.Signals{})

	assert.Equal(t, first, second)
	assert.Equal(t, currency.SourceShopDefault, second.Source)
	src.AssertExpectations(t)
}

func TestValidateCurrency(t *testing.T) {
	ctx := context.Background()

	t.Run("enabled list enforced", func(t *testing.T) {
		src := &MockShopSource{}
		src.On("EnabledCurrencies", mock.Anything).Return(result.OK([]string{"usd", "EUR"}))
		engine := newEngine(t, src, &clock{t: time.Now()})

		assert.True(t, engine.ValidateCurrency(ctx, "usd"))
		assert.True(t, engine.ValidateCurrency(ctx, " EUR "))
		assert.False(t, engine.ValidateCurrency(ctx, "GBP"))
		assert.False(t, engine.ValidateCurrency(ctx, "EU"))
		assert.False(t, engine.ValidateCurrency(ctx, "E1R"))
	})

	t.Run("empty list accepts any code", func(t *testing.T) {
		src := &MockShopSource{}
		src.On("EnabledCurrencies", mock.Anything).Return(result.Degraded([]string{}, result.Error{Message: "plan"}))
		engine := newEngine(t, src, &clock{t: time.Now()})

		for _, code := range []string{"USD", "XYZ", "gbp"} {
			assert.True(t, engine.ValidateCurrency(ctx, code), code)
		}
		assert.False(t, engine.ValidateCurrency(ctx, "DOLLAR"))
	})

	t.Run("multi currency disabled", func(t *testing.T) {
		src := &MockShopSource{}
		cfg := currency.DefaultConfig()
		cfg.MultiCurrency = false
		engine := currency.NewEngine(src, nil, nil, cfg, nil)

		assert.True(t, engine.ValidateCurrency(ctx, "AAA"))
		src.AssertNotCalled(t, "EnabledCurrencies", mock.Anything)
	})
}

func TestSetPreference_Rejects(t *testing.T) {
	src := &MockShopSource{}
	src.On("EnabledCurrencies", mock.Anything).Return(result.OK([]string{"USD"}))
	engine := newEngine(t, src, &clock{t: time.Now()})

	_, err := engine.SetPreference(context.Background(), "s", "us")
	require.ErrorIs(t, err, currency.ErrInvalidCurrency)
	_, err = engine.SetPreference(context.Background(), "s", "EUR")
	require.ErrorIs(t, err, currency.ErrCurrencyNotEnabled)
}

func TestCache_PrefersExpiredEntryOverFallback(t *testing.T) {
	ctx := context.Background()
	src := &MockShopSource{}
	src.On("EnabledCurrencies", mock.Anything).Return(result.OK([]string{"EUR", "CHF"})).Once()
	src.On("ShopCurrency", mock.Anything).Return(result.OK("CHF")).Once()
	clk := &clock{t: time.Now()}
	engine := newEngine(t, src, clk)

	code, ok := engine.ShopCurrency(ctx)
	require.True(t, ok)
	require.Equal(t, "CHF", code)
	require.Equal(t, []string{"EUR", "CHF"}, engine.EnabledCurrencies(ctx))

	clk.Advance(2 * time.Hour)
	src.On("ShopCurrency", mock.Anything).Return(result.Failure[string](result.CodeTransport, "down"))
	src.On("EnabledCurrencies", mock.Anything).Return(result.Degraded([]string{}, result.Error{Message: "down"}))

	code, ok = engine.ShopCurrency(ctx)
	assert.True(t, ok)
	assert.Equal(t, "CHF", code)
	assert.Equal(t, []string{"EUR", "CHF"}, engine.EnabledCurrencies(ctx))
	assert.False(t, engine.ValidateCurrency(ctx, "USD"))
}

func TestInvalidate_ForcesRefetch(t *testing.T) {
	ctx := context.Background()
	src := &MockShopSource{}
	src.On("ShopCurrency", mock.Anything).Return(result.OK("EUR")).Once()
	src.On("ShopCurrency", mock.Anything).Return(result.OK("GBP")).Once()
	engine := newEngine(t, src, &clock{t: time.Now()})

	code, _ := engine.ShopCurrency(ctx)
	assert.Equal(t, "EUR", code)
	require.NoError(t, engine.Invalidate(ctx))
	code, _ = engine.ShopCurrency(ctx)
	assert.Equal(t, "GBP", code)
	src.AssertExpectations(t)
}
