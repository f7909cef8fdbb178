// Package webhook receives quote events from the commerce platform. The
// redirect rail learns about a completed payment only through them.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"log/slog"

	"github.com/amirasaad/storefront/pkg/checkout"
	"github.com/amirasaad/storefront/webapi/common"
	"github.com/gofiber/fiber/v2"
)

const (
	// Topic is the platform subscription the receiver handles.
	Topic = "draft_orders/update"
	// Path is where the receiver is mounted.
	Path = "/webhooks/quotes"

	HeaderSignature = "X-Shopify-Hmac-Sha256"
	HeaderTopic     = "X-Shopify-Topic"
)

var (
	errNoSecret         = errors.New("webhook secret is not configured")
	errInvalidSignature = errors.New("webhook signature mismatch")
)

type quoteEvent struct {
	ID     int64  `json:"id"`
	Status string `json:"status"`
}

// Routes registers the webhook receiver.
func Routes(app fiber.Router, orchestrator *checkout.Orchestrator, secret string, logger *slog.Logger) {
	app.Post(Path, Handler(orchestrator, secret, logger))
}

// Handler verifies the payload signature and finalizes the attempt owning a
// completed quote. Events for unknown quotes are acknowledged and dropped.
func Handler(orchestrator *checkout.Orchestrator, secret string, logger *slog.Logger) fiber.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "webhook")
	return func(c *fiber.Ctx) error {
		if secret == "" {
			logger.Error("Rejecting webhook", "error", errNoSecret)
			return common.ProblemDetailsJSON(c, "Webhook receiver disabled", errNoSecret, fiber.StatusServiceUnavailable)
		}
		body := c.Body()
		if !Verify(secret, body, c.Get(HeaderSignature)) {
			logger.Warn("Rejecting webhook", "error", errInvalidSignature)
			return common.ProblemDetailsJSON(c, "Invalid signature", errInvalidSignature, fiber.StatusUnauthorized)
		}
		if topic := c.Get(HeaderTopic); topic != "" && topic != Topic {
			logger.Debug("Ignoring webhook topic", "topic", topic)
			return c.SendStatus(fiber.StatusOK)
		}

		var ev quoteEvent
		if err := c.BodyParser(&ev); err != nil {
			return common.ProblemDetailsJSON(c, "Invalid webhook payload", err, fiber.StatusBadRequest)
		}
		if ev.Status != "completed" {
			return c.SendStatus(fiber.StatusOK)
		}

		a, err := orchestrator.ConfirmExternalPayment(c.UserContext(), ev.ID)
		switch {
		case errors.Is(err, checkout.ErrQuoteSuperseded):
			logger.Error("Completed quote was superseded, reconcile manually", "quote_id", ev.ID, "error", err)
		case errors.Is(err, checkout.ErrAttemptNotFound):
			logger.Debug("Completed quote has no live attempt", "quote_id", ev.ID)
		case err != nil:
			logger.Error("Finalizing externally paid quote failed", "quote_id", ev.ID, "error", err)
		default:
			logger.Info("External payment confirmed",
				"attempt_id", a.ID, "quote_id", ev.ID, "order_id", a.OrderID)
		}
		return c.SendStatus(fiber.StatusOK)
	}
}

// Verify reports whether signature is the base64 HMAC-SHA256 of body under secret.
func Verify(secret string, body []byte, signature string) bool {
	got, err := base64.StdEncoding.DecodeString(signature)
	if err != nil || len(got) == 0 {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(got, mac.Sum(nil))
}

// Sign returns the signature the platform sends for body.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
