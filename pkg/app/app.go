// Package app assembles the checkout, currency and payment components from
// infrastructure dependencies.
package app

import (
	"context"
	"log/slog"

	"github.com/amirasaad/storefront/pkg/checkout"
	"github.com/amirasaad/storefront/pkg/config"
	"github.com/amirasaad/storefront/pkg/currency"
	"github.com/amirasaad/storefront/pkg/eventbus"
	"github.com/amirasaad/storefront/pkg/payment"
	"github.com/shopspring/decimal"
)

// Deps holds the infrastructure the application is built from.
type Deps struct {
	Gateway         checkout.Gateway
	ShopSource      currency.ShopSource
	CurrencyCache   currency.Cache
	Preferences     currency.PreferenceStore
	Wallet          payment.NativeWallet
	Exchanger       payment.TokenExchanger
	InvoiceResolver payment.RedirectResolver
	EventBus        eventbus.Bus
	Logger          *slog.Logger
	// TransitionHandlers receive every checkout.TransitionEvent, e.g. the ledger.
	TransitionHandlers []eventbus.HandlerFunc
	// RegisterWebhook subscribes address to a platform topic. Nil when the
	// platform cannot be reached.
	RegisterWebhook func(ctx context.Context, topic, address string) error
	// Cleanup releases connections opened while building Deps.
	Cleanup func()
}

type App struct {
	Deps     *Deps
	Config   *config.App
	Currency *currency.Engine
	Payments *payment.Manager
	Checkout *checkout.Orchestrator
}

func New(deps *Deps, cfg *config.App) *App {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	app := &App{
		Deps:   deps,
		Config: cfg,
	}
	app.setupEventBus()

	currencyCfg := currency.DefaultConfig()
	paymentCfg := &config.Payment{}
	if cfg != nil && cfg.Currency != nil {
		currencyCfg = currency.Config{
			CacheTTL:      cfg.Currency.CacheTTL,
			Fallback:      cfg.Currency.Fallback,
			MultiCurrency: cfg.Currency.MultiCurrency,
		}
	}
	if cfg != nil && cfg.Payment != nil {
		paymentCfg = cfg.Payment
	}

	app.Currency = currency.NewEngine(deps.ShopSource, deps.CurrencyCache, deps.Preferences, currencyCfg, logger)
	app.Payments = payment.NewManager(app.Currency, logger,
		payment.NewNativeRail(deps.Wallet, deps.Exchanger, paymentCfg.NativeCooldown, logger),
		payment.NewRedirectRail(deps.InvoiceResolver, paymentCfg.RedirectCooldown, logger),
	)

	opts := []checkout.Option{checkout.WithEventBus(deps.EventBus)}
	if paymentCfg.ShippingTitle != "" {
		price, err := decimal.NewFromString(paymentCfg.ShippingPrice)
		if err != nil {
			logger.Warn("Invalid shipping price, using zero", "value", paymentCfg.ShippingPrice, "error", err)
			price = decimal.Zero
		}
		opts = append(opts, checkout.WithShippingMethod(checkout.ShippingMethod{
			Title: paymentCfg.ShippingTitle,
			Price: price,
		}))
	}
	app.Checkout = checkout.New(deps.Gateway, app.Currency, app.Payments, logger, opts...)
	return app
}

// Close tears down payment sessions and releases infrastructure.
func (a *App) Close() {
	a.Payments.Close()
	if a.Deps.Cleanup != nil {
		a.Deps.Cleanup()
	}
}
