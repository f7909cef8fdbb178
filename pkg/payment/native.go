package payment

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/amirasaad/storefront/pkg/result"
	"github.com/shopspring/decimal"
)

// DefaultNativeCooldown is how long a failed native session waits before reset.
const DefaultNativeCooldown = 5 * time.Second

// PaymentRequest describes what the wallet sheet shows.
type PaymentRequest struct {
	AttemptID    string          `json:"attempt_id"`
	QuoteID      int64           `json:"quote_id"`
	CurrencyCode string          `json:"currency_code"`
	LineItems    []Line          `json:"line_items"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	Total        decimal.Decimal `json:"total"`
}

// WalletListener receives the outcome of a wallet session.
type WalletListener struct {
	OnPaymentComplete func(token string)
	OnError           func(err error)
}

// NativeWallet is the in-page payment capability.
type NativeWallet interface {
	Available(ctx context.Context) bool
	Open(ctx context.Context, req PaymentRequest) (WalletSession, error)
}

// WalletSession is one opened wallet sheet. Show reports outcomes through the
// listener; its error return is for failures to present the sheet.
type WalletSession interface {
	Listen(l WalletListener)
	Show(ctx context.Context, paymentMethod string) error
	Abort(ctx context.Context) error
}

// TokenExchanger turns a wallet payment token into a finalized order.
type TokenExchanger interface {
	ExchangePaymentToken(ctx context.Context, quoteID int64, token string) result.Result[int64]
}

// NativeRail creates sessions over a NativeWallet.
type NativeRail struct {
	wallet    NativeWallet
	exchanger TokenExchanger
	cooldown  time.Duration
	clock     clock
	logger    *slog.Logger
}

// NewNativeRail creates a NativeRail. A nil wallet makes the rail unavailable.
func NewNativeRail(wallet NativeWallet, exchanger TokenExchanger, cooldown time.Duration, logger *slog.Logger) *NativeRail {
	if cooldown <= 0 {
		cooldown = DefaultNativeCooldown
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &NativeRail{
		wallet:    wallet,
		exchanger: exchanger,
		cooldown:  cooldown,
		clock:     systemClock(),
		logger:    logger.With("component", "payment.native"),
	}
}

func (r *NativeRail) Provider() Provider { return ProviderNative }

// Probe reports whether the wallet capability is present.
func (r *NativeRail) Probe(ctx context.Context) bool {
	return r.wallet != nil && r.exchanger != nil && r.wallet.Available(ctx)
}

// CreateSession opens a wallet sheet for quote. It returns ErrUnavailable when
// the capability is absent.
func (r *NativeRail) CreateSession(ctx context.Context, quote QuoteSnapshot) (Session, error) {
	if !r.Probe(ctx) {
		return nil, ErrUnavailable
	}
	req := PaymentRequest{
		AttemptID:    quote.AttemptID,
		QuoteID:      quote.QuoteID,
		CurrencyCode: quote.Currency,
		LineItems:    quote.Lines,
		Subtotal:     quote.Subtotal(),
		Total:        quote.GrandTotal(),
	}
	ws, err := r.wallet.Open(ctx, req)
	if err != nil {
		if errors.Is(err, ErrUnavailable) {
			return nil, err
		}
		return nil, classifyWalletError("could not open the wallet", err)
	}

	s := &nativeSession{
		machine:   newMachine(ProviderNative, quote, r.cooldown, r.clock, r.logger),
		wallet:    ws,
		exchanger: r.exchanger,
	}
	ws.Listen(WalletListener{
		OnPaymentComplete: s.onPaymentComplete,
		OnError:           s.onError,
	})
	return s, nil
}

type nativeSession struct {
	*machine
	wallet    WalletSession
	exchanger TokenExchanger

	ctxMu sync.Mutex
	ctx   context.Context
}

// Request shows the wallet sheet. The session only reaches success once the
// payment token has been exchanged for an order.
func (s *nativeSession) Request(ctx context.Context, in RequestInput) error {
	if err := s.transition(StatusCollecting, nil, 0); err != nil {
		return err
	}
	s.ctxMu.Lock()
	s.ctx = context.WithoutCancel(ctx)
	s.ctxMu.Unlock()

	if err := s.wallet.Show(ctx, in.PaymentMethod); err != nil {
		return s.fail(classifyWalletError("the wallet could not be shown", err))
	}
	if serr := s.Err(); serr != nil && s.Status() == StatusError {
		return serr
	}
	return nil
}

func (s *nativeSession) requestContext() context.Context {
	s.ctxMu.Lock()
	defer s.ctxMu.Unlock()
	if s.ctx == nil {
		return context.Background()
	}
	return s.ctx
}

func (s *nativeSession) onPaymentComplete(token string) {
	if s.isDestroyed() {
		return
	}
	res := s.exchanger.ExchangePaymentToken(s.requestContext(), s.quote.QuoteID, token)
	if res.Failed() {
		msg := "payment was taken but the order could not be finalized"
		if nonRecoverable(res.Errors) {
			_ = s.fail(Fatal(msg, res.Err()))
			return
		}
		_ = s.fail(Recoverable(msg, res.Err()))
		return
	}
	if err := s.transition(StatusSuccess, nil, res.Data); err != nil {
		s.logger.Warn("Dropping payment completion", "error", err)
	}
}

func (s *nativeSession) onError(err error) {
	if s.isDestroyed() {
		return
	}
	if ferr := s.fail(classifyWalletError("payment failed", err)); errors.Is(ferr, ErrInvalidState) {
		s.logger.Warn("Dropping wallet error", "error", err)
	}
}

// Destroy detaches the listeners and aborts the wallet sheet. Calling it again
// does nothing.
func (s *nativeSession) Destroy() {
	if !s.teardown() {
		return
	}
	s.wallet.Listen(WalletListener{})
	if err := s.wallet.Abort(context.Background()); err != nil {
		s.logger.Warn("Wallet teardown failed", "error", err)
	}
}

// ConfigError marks a wallet failure caused by configuration or credentials.
type ConfigError struct{ Err error }

func (e *ConfigError) Error() string { return "wallet misconfigured: " + e.Err.Error() }
func (e *ConfigError) Unwrap() error { return e.Err }

func classifyWalletError(msg string, err error) *SessionError {
	var cfg *ConfigError
	if errors.As(err, &cfg) {
		return Fatal(msg+": payments are not configured", err)
	}
	var serr *SessionError
	if errors.As(err, &serr) {
		return serr
	}
	return Recoverable(msg, err)
}

func nonRecoverable(errs []result.Error) bool {
	for _, e := range errs {
		switch e.Code {
		case result.CodeUnauthorized, result.CodeForbidden, result.CodeConfiguration:
			return true
		}
	}
	return false
}
