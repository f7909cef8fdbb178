package checkout

import (
	"context"

	"github.com/amirasaad/storefront/pkg/checkout"
	"github.com/amirasaad/storefront/pkg/config"
	"github.com/amirasaad/storefront/pkg/payment"
	"github.com/amirasaad/storefront/webapi/common"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
)

var errNoSession = fiber.NewError(fiber.StatusNotFound, "no payment session for this provider")

// Routes registers HTTP routes for checkout attempts and their payment sessions.
func Routes(
	app fiber.Router,
	orchestrator *checkout.Orchestrator,
	payments *payment.Manager,
	cfg *config.Currency,
) {
	g := app.Group("/checkout/attempts")
	g.Post("/", CreateAttempt(orchestrator))
	g.Get("/:id", GetAttempt(orchestrator))
	g.Post("/:id/shipping", SubmitShipping(orchestrator, cfg))
	g.Post("/:id/return", ReturnToShipping(orchestrator))
	g.Post("/:id/payment/:provider", StartPayment(orchestrator))
	g.Post("/:id/payment/:provider/request", RequestPayment(payments))
	g.Post("/:id/payment/:provider/reset", ResetPayment(payments))
	g.Delete("/:id/payment/:provider", DestroyPayment(payments))
}

// CreateAttempt starts a checkout attempt from the posted cart lines.
func CreateAttempt(orchestrator *checkout.Orchestrator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := common.BindAndValidate[CreateAttemptRequest](c)
		if input == nil {
			return err // error response already written
		}
		a, err := orchestrator.Begin(c.UserContext(), checkout.NewMemoryCart(input.Lines...))
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to start checkout", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusCreated, "Checkout started", a)
	}
}

func GetAttempt(orchestrator *checkout.Orchestrator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		a, err := orchestrator.Get(c.Params("id"))
		if err != nil {
			return common.ProblemDetailsJSON(c, "Checkout attempt not found", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Checkout attempt fetched", a)
	}
}

// SubmitShipping creates a quote from the shipping form. Field errors come back
// on the attempt with status 422; a failed quote comes back in the error state.
func SubmitShipping(orchestrator *checkout.Orchestrator, cfg *config.Currency) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var form checkout.ShippingForm
		if err := c.BodyParser(&form); err != nil {
			return common.ProblemDetailsJSON(c, "Invalid request body", err, fiber.StatusBadRequest)
		}
		a, err := orchestrator.SubmitShipping(c.UserContext(), c.Params("id"), form, common.Signals(c, cfg))
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to submit shipping", err)
		}
		switch {
		case len(a.FieldErrors) > 0:
			return common.SuccessResponseJSON(c, fiber.StatusUnprocessableEntity, "Shipping form is invalid", a)
		case a.State == checkout.StateError:
			return common.SuccessResponseJSON(c, fiber.StatusOK, a.Error.Message, a)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Quote created", a)
	}
}

func ReturnToShipping(orchestrator *checkout.Orchestrator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		a, err := orchestrator.ReturnToShipping(c.UserContext(), c.Params("id"))
		if err != nil {
			return common.ProblemDetailsJSON(c, "Cannot return to shipping", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Returned to shipping", a)
	}
}

// StartPayment opens a session on the requested rail for the attempt's quote.
func StartPayment(orchestrator *checkout.Orchestrator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		provider, err := payment.ParseProvider(c.Params("provider"))
		if err != nil {
			return common.ProblemDetailsJSON(c, "Unknown payment provider", err)
		}
		s, err := orchestrator.StartPayment(c.UserContext(), c.Params("id"), provider)
		if err != nil {
			log.Errorf("Failed to start payment: %v", err)
			return common.ProblemDetailsJSON(c, "Failed to start payment", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusCreated, "Payment session created", toSessionDTO(s))
	}
}

// RequestPayment asks the session to collect payment. The redirect rail answers
// with a 303 to the hosted payment page.
func RequestPayment(payments *payment.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := session(c, payments)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Payment session not found", err)
		}
		var input PaymentRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&input); err != nil {
				return common.ProblemDetailsJSON(c, "Invalid request body", err, fiber.StatusBadRequest)
			}
		}

		var target string
		nav := payment.NavigatorFunc(func(_ context.Context, url string) error {
			target = url
			return nil
		})
		err = s.Request(c.UserContext(), payment.RequestInput{PaymentMethod: input.PaymentMethod, Navigator: nav})
		if err != nil {
			return common.ProblemDetailsJSON(c, "Payment request failed", err)
		}
		if target != "" {
			return c.Redirect(target, fiber.StatusSeeOther)
		}
		return common.SuccessResponseJSON(c, fiber.StatusAccepted, "Payment requested", toSessionDTO(s))
	}
}

// ResetPayment returns a recoverable session to idle once its cooldown passed.
func ResetPayment(payments *payment.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := session(c, payments)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Payment session not found", err)
		}
		if err := s.Reset(); err != nil {
			return common.ProblemDetailsJSON(c, "Payment session cannot be reset", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Payment session reset", toSessionDTO(s))
	}
}

func DestroyPayment(payments *payment.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := session(c, payments)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Payment session not found", err)
		}
		payments.Destroy(c.Params("id"), s.Provider())
		return c.SendStatus(fiber.StatusNoContent)
	}
}

func session(c *fiber.Ctx, payments *payment.Manager) (payment.Session, error) {
	provider, err := payment.ParseProvider(c.Params("provider"))
	if err != nil {
		return nil, err
	}
	s, ok := payments.Session(c.Params("id"), provider)
	if !ok {
		return nil, errNoSession
	}
	return s, nil
}
