package initializer

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/amirasaad/storefront/infra/cache"
	infra_eventbus "github.com/amirasaad/storefront/infra/eventbus"
	"github.com/amirasaad/storefront/pkg/app"
	"github.com/amirasaad/storefront/pkg/checkout"
	"github.com/amirasaad/storefront/pkg/config"
	"github.com/amirasaad/storefront/pkg/currency"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.App {
	return &config.App{
		Env:       "test",
		Server:    &config.Server{Port: 3000},
		Log:       &config.Log{Format: "text"},
		Admin:     &config.Admin{ShopDomain: "demo.myshopify.com", AccessToken: "tok", MaxRetries: 5, RetryBase: time.Second},
		Currency:  &config.Currency{CacheTTL: time.Hour, Fallback: "USD", MultiCurrency: true, PreferenceTTL: time.Hour},
		Payment:   &config.Payment{NativeCooldown: 5 * time.Second, RedirectCooldown: 10 * time.Second},
		Redis:     &config.Redis{KeyPrefix: "sf:", Stream: "sf.events"},
		DB:        &config.DB{},
		RateLimit: &config.RateLimit{MaxRequests: 100, Window: time.Minute},
	}
}

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestBuildDeps_InMemory(t *testing.T) {
	deps, err := buildDeps(testConfig(), discard())
	require.NoError(t, err)
	defer deps.Cleanup()

	assert.IsType(t, &infra_eventbus.MemoryEventBus{}, deps.EventBus)
	assert.Nil(t, deps.CurrencyCache)
	assert.Empty(t, deps.TransitionHandlers)
	assert.NotNil(t, deps.Gateway)
	assert.NotNil(t, deps.Wallet)
	assert.False(t, deps.Wallet.Available(context.Background()))
}

func TestBuildDeps_RedisAndLedger(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig()
	cfg.Redis.URL = "redis://" + mr.Addr() + "/0"
	cfg.DB.Url = "file:initializer_test?mode=memory&cache=shared"

	deps, err := buildDeps(cfg, discard())
	require.NoError(t, err)
	defer deps.Cleanup()

	assert.IsType(t, &infra_eventbus.RedisEventBus{}, deps.EventBus)
	assert.IsType(t, &cache.RedisCurrencyCache{}, deps.CurrencyCache)
	assert.IsType(t, &cache.RedisPreferences{}, deps.Preferences)
	assert.Len(t, deps.TransitionHandlers, 1)

	a := app.New(deps, cfg)
	defer a.Payments.Close()
	require.NoError(t, deps.CurrencyCache.SetShopCurrency(context.Background(),
		currency.Entry[string]{Value: "CAD", StoredAt: time.Now()}))
	require.NoError(t, deps.CurrencyCache.SetEnabledCurrencies(context.Background(),
		currency.Entry[[]string]{Value: []string{"CAD"}, StoredAt: time.Now()}))
	assert.Equal(t, "CAD", a.Currency.Resolve(context.Background(), currency.Signals{}).Code)

	attempt, err := a.Checkout.Begin(context.Background(), checkout.NewMemoryCart(checkout.Line{VariantID: "1", Quantity: 1}))
	require.NoError(t, err)
	assert.Equal(t, checkout.StateShippingForm, attempt.State)
}

func TestBuildDeps_InvalidRedisURL(t *testing.T) {
	cfg := testConfig()
	cfg.Redis.URL = "::not a url"
	_, err := buildDeps(cfg, discard())
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, &config.Log{Format: "json", Level: 0, Prefix: "[storefront]"})
	logger.Info("Quote created", "quote_id", 42)
	assert.Contains(t, buf.String(), "quote_id")
	assert.Contains(t, buf.String(), "Quote created")

	buf.Reset()
	logger.Debug("hidden")
	assert.Empty(t, buf.String())
}
