package currency

import (
	"context"
	"slices"
	"sync"
	"time"
)

// Entry is a cached value with the time it was stored.
type Entry[T any] struct {
	Value    T         `json:"value"`
	StoredAt time.Time `json:"stored_at"`
}

// Fresh reports whether the entry is younger than ttl at now.
func (e Entry[T]) Fresh(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.StoredAt) < ttl
}

// Cache holds the shop currency and the enabled-currency list. Implementations keep
// expired entries around; freshness is decided by the caller.
type Cache interface {
	ShopCurrency(ctx context.Context) (Entry[string], bool, error)
	SetShopCurrency(ctx context.Context, e Entry[string]) error
	EnabledCurrencies(ctx context.Context) (Entry[[]string], bool, error)
	SetEnabledCurrencies(ctx context.Context, e Entry[[]string]) error
	Invalidate(ctx context.Context) error
}

// MemoryCache is a process-local Cache.
type MemoryCache struct {
	mu      sync.RWMutex
	shop    *Entry[string]
	enabled *Entry[[]string]
}

// NewMemoryCache creates an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{}
}

func (c *MemoryCache) ShopCurrency(context.Context) (Entry[string], bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.shop == nil {
		return Entry[string]{}, false, nil
	}
	return *c.shop, true, nil
}

func (c *MemoryCache) SetShopCurrency(_ context.Context, e Entry[string]) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.shop = &e
	return nil
}

func (c *MemoryCache) EnabledCurrencies(context.Context) (Entry[[]string], bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.enabled == nil {
		return Entry[[]string]{}, false, nil
	}
	return Entry[[]string]{Value: slices.Clone(c.enabled.Value), StoredAt: c.enabled.StoredAt}, true, nil
}

func (c *MemoryCache) SetEnabledCurrencies(_ context.Context, e Entry[[]string]) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	e.Value = slices.Clone(e.Value)
	c.enabled = &e
	return nil
}

func (c *MemoryCache) Invalidate(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.shop = nil
	c.enabled = nil
	return nil
}
