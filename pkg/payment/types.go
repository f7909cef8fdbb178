// Package payment drives single-use payment sessions over the native wallet rail
// and the redirect rail behind one Session contract.
package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Provider names a payment rail.
type Provider string

const (
	// ProviderNative is the in-page wallet rail.
	ProviderNative Provider = "native-wallet"
	// ProviderRedirect is the hosted-page rail.
	ProviderRedirect Provider = "redirect-wallet"
	// ProviderAuto tries every rail in priority order.
	ProviderAuto Provider = "auto"
)

// ParseProvider accepts both the short ("native", "redirect") and full names.
func ParseProvider(s string) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "native", string(ProviderNative):
		return ProviderNative, nil
	case "redirect", string(ProviderRedirect):
		return ProviderRedirect, nil
	case "", string(ProviderAuto):
		return ProviderAuto, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownProvider, s)
	}
}

// Status is the lifecycle state of a session.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusCollecting Status = "collecting"
	StatusSuccess    Status = "success"
	StatusError      Status = "error"
)

var (
	// ErrUnavailable is returned by a rail whose capability is absent; the caller
	// falls back to the next rail.
	ErrUnavailable     = errors.New("payment rail unavailable")
	ErrUnknownProvider = errors.New("unknown payment provider")
	ErrDestroyed       = errors.New("payment session destroyed")
	ErrInvalidState    = errors.New("invalid session state")
	ErrNotRecoverable  = errors.New("session error is not recoverable")
	ErrCooldown        = errors.New("session reset cooling down")
	ErrNoNavigator     = errors.New("no navigator supplied")
	ErrCurrency        = errors.New("payment currency rejected")
)

// Line is a priced line of the quote snapshot.
type Line struct {
	Label     string          `json:"label"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// Amount returns quantity times unit price.
func (l Line) Amount() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// QuoteSnapshot is the frozen view of a quote a session collects payment for.
type QuoteSnapshot struct {
	AttemptID   string          `json:"attempt_id"`
	QuoteID     int64           `json:"quote_id"`
	Currency    string          `json:"currency"`
	Lines       []Line          `json:"lines"`
	Shipping    decimal.Decimal `json:"shipping"`
	Total       decimal.Decimal `json:"total"`
	RedirectURL string          `json:"redirect_url,omitempty"`
}

// Subtotal sums the line amounts.
func (q QuoteSnapshot) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, l := range q.Lines {
		sum = sum.Add(l.Amount())
	}
	return sum
}

// GrandTotal is Total when the platform priced the quote, otherwise subtotal
// plus shipping.
func (q QuoteSnapshot) GrandTotal() decimal.Decimal {
	if q.Total.IsPositive() {
		return q.Total
	}
	return q.Subtotal().Add(q.Shipping)
}

// SessionError is the error a session ends in.
type SessionError struct {
	Message     string `json:"message"`
	Recoverable bool   `json:"recoverable"`
	cause       error
}

func (e *SessionError) Error() string { return e.Message }
func (e *SessionError) Unwrap() error { return e.cause }

// Recoverable wraps err as an error the session may be reset from.
func Recoverable(msg string, err error) *SessionError {
	return &SessionError{Message: msg, Recoverable: true, cause: err}
}

// Fatal wraps err as a configuration or credential error.
func Fatal(msg string, err error) *SessionError {
	return &SessionError{Message: msg, Recoverable: false, cause: err}
}

// Event is published on every status change.
type Event struct {
	SessionID string        `json:"session_id"`
	AttemptID string        `json:"attempt_id"`
	QuoteID   int64         `json:"quote_id"`
	Provider  Provider      `json:"provider"`
	From      Status        `json:"from"`
	Status    Status        `json:"status"`
	OrderID   int64         `json:"order_id,omitempty"`
	Err       *SessionError `json:"error,omitempty"`
	At        time.Time     `json:"at"`
}

// Navigator sends the shopper to an external page.
type Navigator interface {
	Navigate(ctx context.Context, url string) error
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(ctx context.Context, url string) error

func (f NavigatorFunc) Navigate(ctx context.Context, url string) error { return f(ctx, url) }

// RequestInput carries what a rail needs from the shopper to start collecting.
type RequestInput struct {
	// PaymentMethod is the wallet payment method reference (native rail).
	PaymentMethod string
	// Navigator performs the redirect (redirect rail).
	Navigator Navigator
}

// Session is one payment attempt through one rail.
type Session interface {
	ID() string
	Provider() Provider
	Quote() QuoteSnapshot
	Status() Status
	Err() *SessionError
	Request(ctx context.Context, in RequestInput) error
	Reset() error
	Subscribe(fn func(Event)) (unsubscribe func())
	Destroy()
}

// Rail creates sessions for one provider.
type Rail interface {
	Provider() Provider
	Probe(ctx context.Context) bool
	CreateSession(ctx context.Context, quote QuoteSnapshot) (Session, error)
}
