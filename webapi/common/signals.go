package common

import (
	"strings"
	"time"

	"github.com/amirasaad/storefront/pkg/config"
	"github.com/amirasaad/storefront/pkg/currency"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// SessionID returns the shopper session id from its cookie, issuing a new one
// when the request carries none.
func SessionID(c *fiber.Ctx, cfg *config.Currency) string {
	name := "sf_session"
	ttl := 30 * 24 * time.Hour
	if cfg != nil {
		if cfg.SessionCookie != "" {
			name = cfg.SessionCookie
		}
		if cfg.PreferenceTTL > 0 {
			ttl = cfg.PreferenceTTL
		}
	}
	if sid := c.Cookies(name); sid != "" {
		return sid
	}
	sid := uuid.NewString()
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    sid,
		Path:     "/",
		Expires:  time.Now().Add(ttl),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return sid
}

// Signals collects the currency detection inputs carried by the request.
func Signals(c *fiber.Ctx, cfg *config.Currency) currency.Signals {
	geo := "CF-IPCountry"
	if cfg != nil && cfg.GeoHeader != "" {
		geo = cfg.GeoHeader
	}
	return currency.Signals{
		SessionID:      SessionID(c, cfg),
		Country:        strings.ToUpper(strings.TrimSpace(c.Get(geo))),
		AcceptLanguage: c.Get(fiber.HeaderAcceptLanguage),
	}
}
