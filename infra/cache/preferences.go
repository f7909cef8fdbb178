package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/amirasaad/storefront/pkg/currency"
	"github.com/redis/go-redis/v9"
)

// RedisPreferences implements currency.PreferenceStore. Each session's choice
// expires after ttl of inactivity; a zero ttl keeps it forever.
type RedisPreferences struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
	logger *slog.Logger
}

func NewRedisPreferences(client redis.UniversalClient, prefix string, ttl time.Duration, logger *slog.Logger) *RedisPreferences {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisPreferences{client: client, prefix: prefix + "pref:", ttl: ttl, logger: logger.With("store", "preferences")}
}

func (p *RedisPreferences) Get(ctx context.Context, sessionID string) (string, bool, error) {
	if sessionID == "" {
		return "", false, nil
	}
	key := p.prefix + sessionID
	code, err := p.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		p.logger.Error("Redis preference get error", "error", err)
		return "", false, err
	}
	if p.ttl > 0 {
		p.client.Expire(ctx, key, p.ttl)
	}
	return code, true, nil
}

func (p *RedisPreferences) Set(ctx context.Context, sessionID, code string) error {
	if err := p.client.Set(ctx, p.prefix+sessionID, code, p.ttl).Err(); err != nil {
		p.logger.Error("Redis preference set error", "error", err)
		return err
	}
	return nil
}

func (p *RedisPreferences) Clear(ctx context.Context, sessionID string) error {
	return p.client.Del(ctx, p.prefix+sessionID).Err()
}

var _ currency.PreferenceStore = (*RedisPreferences)(nil)
