package cache_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/amirasaad/storefront/infra/cache"
	"github.com/amirasaad/storefront/pkg/currency"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestRedisCurrencyCache(t *testing.T) {
	ctx := context.Background()
	mr, client := setupRedis(t)
	c := cache.NewRedisCurrencyCache(client, "storefront:", discard())

	_, ok, err := c.ShopCurrency(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	stored := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, c.SetShopCurrency(ctx, currency.Entry[string]{Value: "EUR", StoredAt: stored}))
	require.NoError(t, c.SetEnabledCurrencies(ctx, currency.Entry[[]string]{Value: []string{"EUR", "USD"}, StoredAt: stored}))
	assert.True(t, mr.Exists("storefront:shop_currency"))

	shop, ok, err := c.ShopCurrency(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "EUR", shop.Value)
	assert.True(t, stored.Equal(shop.StoredAt))

	enabled, ok, err := c.EnabledCurrencies(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"EUR", "USD"}, enabled.Value)

	// entries outlive their freshness window
	mr.FastForward(48 * time.Hour)
	_, ok, err = c.ShopCurrency(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, c.Invalidate(ctx))
	_, ok, err = c.EnabledCurrencies(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisCurrencyCache_EmptyEnabledList(t *testing.T) {
	ctx := context.Background()
	_, client := setupRedis(t)
	c := cache.NewRedisCurrencyCache(client, "", discard())

	require.NoError(t, c.SetEnabledCurrencies(ctx, currency.Entry[[]string]{StoredAt: time.Now()}))
	e, ok, err := c.EnabledCurrencies(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotNil(t, e.Value)
	assert.Empty(t, e.Value)
}

func TestRedisCurrencyCache_CorruptEntry(t *testing.T) {
	mr, client := setupRedis(t)
	c := cache.NewRedisCurrencyCache(client, "", discard())
	require.NoError(t, mr.Set("shop_currency", "{not json"))

	_, ok, err := c.ShopCurrency(context.Background())
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestRedisCurrencyCache_WithEngine(t *testing.T) {
	ctx := context.Background()
	_, client := setupRedis(t)
	c := cache.NewRedisCurrencyCache(client, "storefront:", discard())
	prefs := cache.NewRedisPreferences(client, "storefront:", time.Hour, discard())

	engine := currency.NewEngine(nil, c, prefs, currency.DefaultConfig(), discard())
	require.NoError(t, c.SetShopCurrency(ctx, currency.Entry[string]{Value: "GBP", StoredAt: time.Now()}))
	require.NoError(t, c.SetEnabledCurrencies(ctx, currency.Entry[[]string]{Value: []string{"GBP", "EUR"}, StoredAt: time.Now()}))

	res := engine.Resolve(ctx, currency.Signals{})
	assert.Equal(t, "GBP", res.Code)
	assert.Equal(t, currency.SourceShopDefault, res.Source)

	code, err := engine.SetPreference(ctx, "sess-1", "eur")
	require.NoError(t, err)
	assert.Equal(t, "EUR", code)

	res = engine.Resolve(ctx, currency.Signals{SessionID: "sess-1", Country: "US"})
	assert.Equal(t, "EUR", res.Code)
	assert.Equal(t, currency.SourcePreference, res.Source)

	_, err = engine.SetPreference(ctx, "sess-1", "USD")
	assert.ErrorIs(t, err, currency.ErrCurrencyNotEnabled)
}

func TestRedisPreferences(t *testing.T) {
	ctx := context.Background()
	mr, client := setupRedis(t)
	p := cache.NewRedisPreferences(client, "sf:", time.Hour, discard())

	_, ok, err := p.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, p.Set(ctx, "sess-1", "JPY"))
	assert.Equal(t, time.Hour, mr.TTL("sf:pref:sess-1"))

	code, ok, err := p.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "JPY", code)

	mr.FastForward(2 * time.Hour)
	_, ok, err = p.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, p.Set(ctx, "sess-2", "EUR"))
	require.NoError(t, p.Clear(ctx, "sess-2"))
	_, ok, err = p.Get(ctx, "sess-2")
	require.NoError(t, err)
	assert.False(t, ok)
}
