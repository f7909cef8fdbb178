// Package webapi provides the HTTP surface of the storefront checkout service.
// It is organized into sub-packages:
// - checkout: checkout attempts and their payment sessions
// - currency: currency resolution, preference and formatting
// - webhook: platform quote events
package webapi

import (
	"errors"
	"strings"

	"github.com/amirasaad/storefront/pkg/app"
	"github.com/amirasaad/storefront/pkg/config"
	checkoutweb "github.com/amirasaad/storefront/webapi/checkout"
	"github.com/amirasaad/storefront/webapi/common"
	currencyweb "github.com/amirasaad/storefront/webapi/currency"
	"github.com/amirasaad/storefront/webapi/webhook"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// SetupApp Initialize Fiber with custom configuration
func SetupApp(app *app.App) *fiber.App {
	cfg := app.Config
	if cfg == nil {
		cfg = &config.App{}
	}

	fiberApp := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return common.ProblemDetailsJSON(c, "Internal Server Error", err)
		},
	})

	// Configure rate limiting middleware
	// Uses X-Forwarded-For header when behind a proxy
	// Falls back to X-Real-IP or direct IP if needed
	if cfg.RateLimit != nil && cfg.RateLimit.MaxRequests > 0 {
		fiberApp.Use(limiter.New(limiter.Config{
			Max:        cfg.RateLimit.MaxRequests,
			Expiration: cfg.RateLimit.Window,
			KeyGenerator: func(c *fiber.Ctx) string {
				if forwardedFor := c.Get("X-Forwarded-For"); forwardedFor != "" {
					// Take the first IP in the chain
					if commaIndex := strings.Index(forwardedFor, ","); commaIndex != -1 {
						return strings.TrimSpace(forwardedFor[:commaIndex])
					}
					return strings.TrimSpace(forwardedFor)
				}
				if realIP := c.Get("X-Real-IP"); realIP != "" {
					return realIP
				}
				return c.IP()
			},
			LimitReached: func(c *fiber.Ctx) error {
				return common.ProblemDetailsJSON(
					c,
					"Too Many Requests",
					errors.New("rate limit exceeded"),
					fiber.StatusTooManyRequests,
				)
			},
		}))
	}
	fiberApp.Use(recover.New())
	fiberApp.Use(logger.New())

	// Health check endpoint
	fiberApp.Get(
		"/",
		func(c *fiber.Ctx) error {
			return c.SendString("Storefront API is running!")
		},
	)

	var webhookSecret, adminToken string
	if cfg.Admin != nil {
		webhookSecret = cfg.Admin.WebhookSecret
	}
	if cfg.Server != nil {
		adminToken = cfg.Server.AdminToken
	}
	checkoutweb.Routes(fiberApp, app.Checkout, app.Payments, cfg.Currency)
	currencyweb.Routes(fiberApp, app.Currency, cfg.Currency, adminToken)
	webhook.Routes(fiberApp, app.Checkout, webhookSecret, app.Deps.Logger)
	return fiberApp
}
