package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/amirasaad/storefront/infra/initializer"
	"github.com/amirasaad/storefront/pkg/app"
	"github.com/amirasaad/storefront/pkg/config"
	"github.com/amirasaad/storefront/webapi"
	"github.com/amirasaad/storefront/webapi/webhook"
	log "github.com/charmbracelet/log"
	"github.com/gofiber/fiber/v2"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load(".env")
	if err != nil {
		return fmt.Errorf("failed to load application configuration: %w", err)
	}

	// Initialize all dependencies
	deps, err := initializer.InitializeDependencies(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	logger := deps.Logger

	application, fiberApp := newServer(deps, cfg)
	defer application.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	registerWebhooks(ctx, deps, cfg, logger)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("Starting server",
		"env", cfg.Env,
		"address", addr,
		"scheme", cfg.Server.Scheme,
	)

	errCh := make(chan error, 1)
	go func() { errCh <- fiberApp.Listen(addr) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Info("Shutting down server")
	return fiberApp.ShutdownWithTimeout(shutdownTimeout)
}

// newServer builds the application and its HTTP surface.
func newServer(deps *app.Deps, cfg *config.App) (*app.App, *fiber.App) {
	application := app.New(deps, cfg)
	return application, webapi.SetupApp(application)
}

// registerWebhooks subscribes the quote receiver when the service is reachable
// from the platform. Failures are logged; redirect payments then stay pending
// until the shopper returns.
func registerWebhooks(ctx context.Context, deps *app.Deps, cfg *config.App, logger *slog.Logger) {
	if deps.RegisterWebhook == nil || cfg.Server == nil || cfg.Server.PublicURL == "" {
		logger.Info("PUBLIC_URL not set, skipping webhook registration")
		return
	}
	address := strings.TrimRight(cfg.Server.PublicURL, "/") + webhook.Path
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := deps.RegisterWebhook(ctx, webhook.Topic, address); err != nil {
		logger.Error("Webhook registration failed", "error", err)
	}
}
