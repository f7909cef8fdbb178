// Package common holds the response helpers shared by the webapi sub-packages.
package common

import (
	"errors"
	"net/http"

	"github.com/amirasaad/storefront/pkg/checkout"
	"github.com/amirasaad/storefront/pkg/currency"
	"github.com/amirasaad/storefront/pkg/payment"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// Response defines the standard API response structure for success cases.
type Response struct {
	Status  int    `json:"status"`         // HTTP status code
	Message string `json:"message"`        // Human-readable explanation
	Data    any    `json:"data,omitempty"` // Response data
}

// ProblemDetails follows RFC 9457 Problem Details for HTTP APIs.
type ProblemDetails struct {
	Type     string `json:"type,omitempty"`     // A URI reference that identifies the problem type
	Title    string `json:"title"`              // Short, human-readable summary
	Status   int    `json:"status"`             // HTTP status code
	Detail   string `json:"detail,omitempty"`   // Human-readable explanation
	Instance string `json:"instance,omitempty"` // URI reference that identifies the specific occurrence
	Errors   any    `json:"errors,omitempty"`   // Optional: additional error details
}

// ProblemDetailsJSON writes err as problem details. The status is taken from
// status when given, otherwise from ErrorToStatusCode.
func ProblemDetailsJSON(c *fiber.Ctx, title string, err error, status ...int) error {
	code := ErrorToStatusCode(err)
	if len(status) > 0 {
		code = status[0]
	}
	pd := ProblemDetails{
		Type:     "about:blank",
		Title:    title,
		Status:   code,
		Instance: c.OriginalURL(),
	}
	if err != nil {
		pd.Detail = err.Error()
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fe.Field()] = fe.Tag()
		}
		pd.Errors = fields
	}
	return c.Status(code).JSON(pd, "application/problem+json")
}

// SuccessResponseJSON wraps data in a Response.
func SuccessResponseJSON(c *fiber.Ctx, status int, message string, data any) error {
	return c.Status(status).JSON(Response{Status: status, Message: message, Data: data})
}

// ErrorToStatusCode maps domain errors to HTTP status codes.
func ErrorToStatusCode(err error) int {
	var fe *fiber.Error
	switch {
	case err == nil:
		return fiber.StatusInternalServerError
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, checkout.ErrAttemptNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, checkout.ErrInvalidState),
		errors.Is(err, checkout.ErrQuoteSuperseded),
		errors.Is(err, payment.ErrInvalidState),
		errors.Is(err, payment.ErrDestroyed):
		return fiber.StatusConflict
	case errors.Is(err, checkout.ErrEmptyCart),
		errors.Is(err, checkout.ErrInvalidLine),
		errors.Is(err, payment.ErrUnknownProvider),
		errors.Is(err, currency.ErrInvalidCurrency):
		return fiber.StatusBadRequest
	case errors.Is(err, currency.ErrCurrencyNotEnabled),
		errors.Is(err, payment.ErrCurrency):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, payment.ErrCooldown):
		return fiber.StatusTooManyRequests
	case errors.Is(err, payment.ErrUnavailable):
		return fiber.StatusServiceUnavailable
	case errors.Is(err, payment.ErrNotRecoverable):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

var validate = validator.New()

// BindAndValidate parses the request body and validates it using go-playground/validator.
// Returns a pointer to the struct (populated), or writes an error response and returns nil.
func BindAndValidate[T any](c *fiber.Ctx) (*T, error) {
	var input T
	if err := c.BodyParser(&input); err != nil {
		return nil, ProblemDetailsJSON(c, "Invalid request body", err, http.StatusBadRequest)
	}
	if err := validate.Struct(input); err != nil {
		return nil, ProblemDetailsJSON(c, "Validation failed", err, http.StatusBadRequest)
	}
	return &input, nil
}
