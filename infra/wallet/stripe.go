// Package wallet provides the native wallet capability backed by Stripe
// PaymentIntents.
package wallet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/amirasaad/storefront/pkg/money"
	"github.com/amirasaad/storefront/pkg/payment"
	"github.com/stripe/stripe-go/v82"
)

// paymentIntents is the subset of the Stripe client used here.
type paymentIntents interface {
	Create(ctx context.Context, params *stripe.PaymentIntentCreateParams) (*stripe.PaymentIntent, error)
	Confirm(ctx context.Context, id string, params *stripe.PaymentIntentConfirmParams) (*stripe.PaymentIntent, error)
	Cancel(ctx context.Context, id string, params *stripe.PaymentIntentCancelParams) (*stripe.PaymentIntent, error)
}

// Stripe implements payment.NativeWallet.
type Stripe struct {
	intents paymentIntents
	enabled bool
	logger  *slog.Logger
}

// NewStripe creates a wallet for apiKey. An empty key leaves the wallet
// unavailable so checkout falls back to the redirect rail.
func NewStripe(apiKey string, logger *slog.Logger) *Stripe {
	if logger == nil {
		logger = slog.Default()
	}
	w := &Stripe{
		enabled: strings.TrimSpace(apiKey) != "",
		logger:  logger.With("component", "wallet.stripe"),
	}
	if w.enabled {
		w.intents = stripe.NewClient(apiKey).V1PaymentIntents
	}
	return w
}

func newWithIntents(intents paymentIntents, logger *slog.Logger) *Stripe {
	return &Stripe{intents: intents, enabled: true, logger: logger}
}

// Available reports whether a Stripe key is configured.
func (w *Stripe) Available(context.Context) bool {
	return w.enabled && w.intents != nil
}

// Open creates a PaymentIntent for the request total.
func (w *Stripe) Open(ctx context.Context, req payment.PaymentRequest) (payment.WalletSession, error) {
	if !w.Available(ctx) {
		return nil, payment.ErrUnavailable
	}
	code := money.Normalize(req.CurrencyCode)
	amount := money.ToMinor(req.Total, code)
	if amount <= 0 {
		return nil, fmt.Errorf("payment total must be positive, got %s", req.Total)
	}

	params := &stripe.PaymentIntentCreateParams{
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(strings.ToLower(string(code))),
		Metadata: map[string]string{
			"quote_id":   strconv.FormatInt(req.QuoteID, 10),
			"attempt_id": req.AttemptID,
		},
		AutomaticPaymentMethods: &stripe.PaymentIntentCreateAutomaticPaymentMethodsParams{
			Enabled:        stripe.Bool(true),
			AllowRedirects: stripe.String("never"),
		},
	}
	params.SetIdempotencyKey("quote-" + strconv.FormatInt(req.QuoteID, 10) + "-" + req.AttemptID)

	pi, err := w.intents.Create(ctx, params)
	log := w.logger.With("quote_id", req.QuoteID, "amount", amount, "currency", code)
	if err != nil {
		log.Error("Failed to create payment intent", "error", err)
		return nil, classify(err)
	}
	log.Info("Created payment intent", "payment_intent", pi.ID)
	return &stripeSession{intents: w.intents, intentID: pi.ID, logger: log.With("payment_intent", pi.ID)}, nil
}

type stripeSession struct {
	intents  paymentIntents
	intentID string
	logger   *slog.Logger

	mu       sync.Mutex
	listener payment.WalletListener
	done     bool
}

func (s *stripeSession) Listen(l payment.WalletListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listener = l
}

// Show confirms the intent with the shopper's payment method. The PaymentIntent id
// is the payment token handed to OnPaymentComplete.
func (s *stripeSession) Show(ctx context.Context, paymentMethod string) error {
	if strings.TrimSpace(paymentMethod) == "" {
		return errors.New("payment method is required")
	}
	pi, err := s.intents.Confirm(ctx, s.intentID, &stripe.PaymentIntentConfirmParams{
		PaymentMethod: stripe.String(paymentMethod),
	})

	s.mu.Lock()
	l := s.listener
	s.mu.Unlock()

	if err != nil {
		s.logger.Warn("Payment intent confirmation failed", "error", err)
		s.emitError(l, classify(err))
		return nil
	}
	switch pi.Status {
	case stripe.PaymentIntentStatusSucceeded, stripe.PaymentIntentStatusRequiresCapture:
		s.mu.Lock()
		s.done = true
		s.mu.Unlock()
		if l.OnPaymentComplete != nil {
			l.OnPaymentComplete(pi.ID)
		}
	default:
		s.emitError(l, fmt.Errorf("payment not completed: status %s", pi.Status))
	}
	return nil
}

func (s *stripeSession) emitError(l payment.WalletListener, err error) {
	if l.OnError != nil {
		l.OnError(err)
	}
}

// Abort cancels the intent unless it already succeeded.
func (s *stripeSession) Abort(ctx context.Context) error {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done {
		return nil
	}
	_, err := s.intents.Cancel(ctx, s.intentID, &stripe.PaymentIntentCancelParams{
		CancellationReason: stripe.String("abandoned"),
	})
	if err != nil {
		return fmt.Errorf("cancel payment intent %s: %w", s.intentID, err)
	}
	return nil
}

// classify marks authentication and permission failures as configuration errors.
func classify(err error) error {
	var serr *stripe.Error
	if errors.As(err, &serr) {
		switch {
		case serr.HTTPStatusCode == http.StatusUnauthorized,
			serr.HTTPStatusCode == http.StatusForbidden:
			return &payment.ConfigError{Err: err}
		case serr.Type == stripe.ErrorTypeCard:
			return fmt.Errorf("card declined: %s", serr.Msg)
		}
	}
	return err
}
