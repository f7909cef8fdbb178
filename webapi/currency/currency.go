package currency

import (
	"github.com/amirasaad/storefront/pkg/config"
	"github.com/amirasaad/storefront/pkg/currency"
	"github.com/amirasaad/storefront/pkg/money"
	"github.com/amirasaad/storefront/webapi/common"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
)

const defaultLocale = "en-US"

// Routes registers HTTP routes for currency resolution, preference and formatting.
// Cache invalidation is an operator route and exists only when adminToken is set.
func Routes(app fiber.Router, engine *currency.Engine, cfg *config.Currency, adminToken string) {
	g := app.Group("/currency")
	g.Get("/resolve", Resolve(engine, cfg))
	g.Get("/shop", ShopCurrencies(engine))
	g.Put("/preference", SetPreference(engine, cfg))
	g.Delete("/preference", ClearPreference(engine, cfg))
	g.Get("/format", Format())
	if adminToken != "" {
		g.Post("/cache/invalidate", common.AdminProtected(adminToken), Invalidate(engine))
	}
}

// Resolve runs the detection chain for the requesting shopper.
func Resolve(engine *currency.Engine, cfg *config.Currency) fiber.Handler {
	return func(c *fiber.Ctx) error {
		res := engine.Resolve(c.UserContext(), common.Signals(c, cfg))
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Currency resolved", res)
	}
}

func ShopCurrencies(engine *currency.Engine) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		out := ShopCurrenciesResponse{Enabled: engine.EnabledCurrencies(ctx)}
		code, ok := engine.ShopCurrency(ctx)
		if !ok {
			code, out.Fallback = engine.Fallback(), true
		}
		out.ShopCurrency = code
		if out.Enabled == nil {
			out.Enabled = []string{}
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Shop currencies fetched", out)
	}
}

// SetPreference stores the shopper's explicit choice after validating it
// against the shop's enabled currencies.
func SetPreference(engine *currency.Engine, cfg *config.Currency) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := common.BindAndValidate[PreferenceRequest](c)
		if input == nil {
			return err // error response already written
		}
		code, err := engine.SetPreference(c.UserContext(), common.SessionID(c, cfg), input.Currency)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Currency not accepted", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Currency preference saved", fiber.Map{"currency": code})
	}
}

func ClearPreference(engine *currency.Engine, cfg *config.Currency) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := engine.ClearPreference(c.UserContext(), common.SessionID(c, cfg)); err != nil {
			return common.ProblemDetailsJSON(c, "Failed to clear currency preference", err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// Format renders ?amount= in ?currency= for ?locale=, defaulting the locale to the
// first Accept-Language entry.
func Format() fiber.Handler {
	return func(c *fiber.Ctx) error {
		amount, err := decimal.NewFromString(c.Query("amount"))
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid amount", err, fiber.StatusBadRequest)
		}
		code := money.Normalize(c.Query("currency"))
		if !code.IsValid() {
			return common.ProblemDetailsJSON(c, "Invalid currency", currency.ErrInvalidCurrency)
		}
		locale := c.Query("locale")
		if locale == "" {
			locale = requestLocale(c.Get(fiber.HeaderAcceptLanguage))
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Price formatted", FormatResponse{
			Amount:    amount.String(),
			Currency:  code.String(),
			Locale:    locale,
			Formatted: currency.FormatPrice(amount, code.String(), locale),
			Symbol:    currency.Symbol(code.String()),
		})
	}
}

// Invalidate drops the cached shop currency and enabled list.
func Invalidate(engine *currency.Engine) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := engine.Invalidate(c.UserContext()); err != nil {
			return common.ProblemDetailsJSON(c, "Failed to invalidate currency cache", err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

func requestLocale(header string) string {
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return defaultLocale
	}
	return tags[0].String()
}
