package checkout

import (
	"github.com/amirasaad/storefront/pkg/checkout"
	"github.com/amirasaad/storefront/pkg/payment"
)

// CreateAttemptRequest carries the cart an attempt is started from.
type CreateAttemptRequest struct {
	Lines []checkout.Line `json:"lines" validate:"required,min=1,dive"`
}

// PaymentRequest carries what the shopper supplied to start collecting.
type PaymentRequest struct {
	PaymentMethod string `json:"paymentMethod"`
}

// SessionDTO represents a payment session for API responses.
type SessionDTO struct {
	ID          string                `json:"id"`
	Provider    payment.Provider      `json:"provider"`
	Status      payment.Status        `json:"status"`
	Error       *payment.SessionError `json:"error,omitempty"`
	Quote       payment.QuoteSnapshot `json:"quote"`
	RedirectURL string                `json:"redirectUrl,omitempty"`
}

func toSessionDTO(s payment.Session) SessionDTO {
	dto := SessionDTO{
		ID:       s.ID(),
		Provider: s.Provider(),
		Status:   s.Status(),
		Error:    s.Err(),
		Quote:    s.Quote(),
	}
	if u, ok := payment.RedirectURL(s); ok {
		dto.RedirectURL = u
	} else {
		dto.RedirectURL = dto.Quote.RedirectURL
	}
	return dto
}
