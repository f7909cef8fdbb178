// Package cache provides Redis-backed stores for the currency engine.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/amirasaad/storefront/pkg/currency"
	"github.com/redis/go-redis/v9"
)

const (
	shopKey    = "shop_currency"
	enabledKey = "enabled_currencies"
)

// RedisCurrencyCache implements currency.Cache using Redis. Entries are stored
// without expiry so a stale value stays available when the platform is down.
type RedisCurrencyCache struct {
	client redis.UniversalClient
	prefix string
	logger *slog.Logger
}

// NewRedisCurrencyCache creates a cache on an existing client.
func NewRedisCurrencyCache(client redis.UniversalClient, prefix string, logger *slog.Logger) *RedisCurrencyCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisCurrencyCache{client: client, prefix: prefix, logger: logger.With("cache", "redis")}
}

// NewRedisCurrencyCacheWithOptions creates a cache from redis.Options.
func NewRedisCurrencyCacheWithOptions(opt *redis.Options, prefix string, logger *slog.Logger) *RedisCurrencyCache {
	return NewRedisCurrencyCache(redis.NewClient(opt), prefix, logger)
}

func (r *RedisCurrencyCache) key(key string) string {
	return r.prefix + key
}

func (r *RedisCurrencyCache) ShopCurrency(ctx context.Context) (currency.Entry[string], bool, error) {
	var e currency.Entry[string]
	ok, err := r.get(ctx, shopKey, &e)
	return e, ok, err
}

func (r *RedisCurrencyCache) SetShopCurrency(ctx context.Context, e currency.Entry[string]) error {
	return r.set(ctx, shopKey, e)
}

func (r *RedisCurrencyCache) EnabledCurrencies(ctx context.Context) (currency.Entry[[]string], bool, error) {
	var e currency.Entry[[]string]
	ok, err := r.get(ctx, enabledKey, &e)
	if ok && e.Value == nil {
		e.Value = []string{}
	}
	return e, ok, err
}

func (r *RedisCurrencyCache) SetEnabledCurrencies(ctx context.Context, e currency.Entry[[]string]) error {
	return r.set(ctx, enabledKey, e)
}

// Invalidate drops both entries.
func (r *RedisCurrencyCache) Invalidate(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key(shopKey), r.key(enabledKey)).Err(); err != nil {
		r.logger.Error("Redis cache delete error", "error", err)
		return err
	}
	r.logger.Debug("Redis cache invalidated")
	return nil
}

func (r *RedisCurrencyCache) get(ctx context.Context, key string, v any) (bool, error) {
	val, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		r.logger.Debug("Redis cache miss", "key", key)
		return false, nil
	}
	if err != nil {
		r.logger.Error("Redis cache get error", "key", key, "error", err)
		return false, err
	}
	if err := json.Unmarshal(val, v); err != nil {
		r.logger.Error("Redis cache unmarshal error", "key", key, "error", err)
		return false, err
	}
	r.logger.Debug("Redis cache hit", "key", key)
	return true, nil
}

func (r *RedisCurrencyCache) set(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		r.logger.Error("Redis cache marshal error", "key", key, "error", err)
		return err
	}
	if err := r.client.Set(ctx, r.key(key), data, 0).Err(); err != nil {
		r.logger.Error("Redis cache set error", "key", key, "error", err)
		return err
	}
	r.logger.Debug("Redis cache set", "key", key)
	return nil
}

var _ currency.Cache = (*RedisCurrencyCache)(nil)
