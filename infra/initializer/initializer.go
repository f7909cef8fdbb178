package initializer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/amirasaad/storefront/infra/admin"
	"github.com/amirasaad/storefront/infra/cache"
	infra_eventbus "github.com/amirasaad/storefront/infra/eventbus"
	infra_repository "github.com/amirasaad/storefront/infra/repository"
	"github.com/amirasaad/storefront/infra/wallet"
	"github.com/amirasaad/storefront/pkg/app"
	"github.com/amirasaad/storefront/pkg/checkout"
	"github.com/amirasaad/storefront/pkg/config"
	"github.com/amirasaad/storefront/pkg/eventbus"
	"github.com/redis/go-redis/v9"
)

const consumerGroup = "storefront"

// InitializeDependencies builds the infrastructure described by cfg. Redis and
// the ledger database are optional: without them the currency cache, the
// preference store and the event bus run in memory and no ledger is kept.
func InitializeDependencies(cfg *config.App) (deps *app.Deps, err error) {
	logger := setupLogger(cfg.Log)
	slog.SetDefault(logger)
	return buildDeps(cfg, logger)
}

func buildDeps(cfg *config.App, logger *slog.Logger) (*app.Deps, error) {
	deps := &app.Deps{Logger: logger}
	var closers []func()
	deps.Cleanup = func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	client := admin.New(admin.Config{
		ShopDomain:  cfg.Admin.ShopDomain,
		AccessToken: cfg.Admin.AccessToken,
		APIVersion:  cfg.Admin.APIVersion,
		TokenHeader: cfg.Admin.TokenHeader,
		Timeout:     cfg.Admin.Timeout,
		MaxRetries:  cfg.Admin.MaxRetries,
		RetryBase:   cfg.Admin.RetryBase,
	}, logger)
	deps.Gateway = admin.NewGateway(client)
	deps.ShopSource = client
	deps.Exchanger = client
	deps.InvoiceResolver = client
	deps.RegisterWebhook = func(ctx context.Context, topic, address string) error {
		res := client.EnsureWebhook(ctx, topic, address)
		if res.Failed() {
			return fmt.Errorf("register webhook %s: %w", topic, res.Err())
		}
		logger.Info("Webhook registered", "topic", topic, "address", address, "id", res.Data.ID)
		return nil
	}
	deps.Wallet = wallet.NewStripe(cfg.Payment.StripeApiKey, logger)

	rdb, err := newRedisClient(cfg.Redis)
	if err != nil {
		return nil, err
	}
	if rdb != nil {
		closers = append(closers, func() { _ = rdb.Close() })
		deps.CurrencyCache = cache.NewRedisCurrencyCache(rdb, cfg.Redis.KeyPrefix, logger)
		deps.Preferences = cache.NewRedisPreferences(rdb, cfg.Redis.KeyPrefix, cfg.Currency.PreferenceTTL, logger)
	}
	deps.EventBus = initEventBus(rdb, cfg.Redis, logger, &closers)

	if cfg.DB != nil && cfg.DB.Url != "" {
		db, err := infra_repository.NewDBConnection(cfg.DB.Url, cfg.Env)
		if err != nil {
			logger.Error("Failed to initialize database", "error", err)
			deps.Cleanup()
			return nil, err
		}
		if sqlDB, err := db.DB(); err == nil {
			closers = append(closers, func() { _ = sqlDB.Close() })
		}
		ledger := infra_repository.NewLedger(db, logger)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := ledger.Migrate(ctx); err != nil {
			deps.Cleanup()
			return nil, fmt.Errorf("failed to migrate ledger: %w", err)
		}
		deps.TransitionHandlers = append(deps.TransitionHandlers, ledger.Handle)

		sweepCtx, stopSweep := context.WithCancel(context.Background())
		swept := make(chan struct{})
		go func() {
			defer close(swept)
			ledger.RunSweeper(sweepCtx, deps.Gateway, cfg.DB.SweepInterval)
		}()
		closers = append(closers, func() {
			stopSweep()
			<-swept
		})
	} else {
		logger.Info("DATABASE_URL not set, checkout ledger disabled")
	}

	return deps, nil
}

func newRedisClient(cfg *config.Redis) (*redis.Client, error) {
	if cfg == nil || cfg.URL == "" {
		return nil, nil
	}
	opt, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	opt.PoolSize = cfg.PoolSize
	opt.DialTimeout = cfg.DialTimeout
	opt.ReadTimeout = cfg.ReadTimeout
	opt.WriteTimeout = cfg.WriteTimeout
	return redis.NewClient(opt), nil
}

// initEventBus prefers Redis Streams when a client is available and falls back
// to the in-memory bus when Redis cannot be reached.
func initEventBus(rdb *redis.Client, cfg *config.Redis, logger *slog.Logger, closers *[]func()) eventbus.Bus {
	if rdb == nil {
		return infra_eventbus.NewWithMemory(logger)
	}
	types := map[string]func() eventbus.Event{
		checkout.EventTransition: func() eventbus.Event { return &checkout.TransitionEvent{} },
	}
	bus, err := infra_eventbus.NewWithRedis(rdb, cfg.Stream, consumerGroup, types, logger)
	if err != nil {
		logger.Warn("Redis event bus unavailable, using in-memory bus", "error", err)
		return infra_eventbus.NewWithMemory(logger)
	}
	*closers = append(*closers, bus.Close)
	return bus
}
