package payment

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/amirasaad/storefront/pkg/result"
)

// DefaultRedirectCooldown is how long a failed redirect session waits before reset.
const DefaultRedirectCooldown = 10 * time.Second

// RedirectResolver looks up the hosted payment page of a quote.
type RedirectResolver interface {
	QuoteInvoiceURL(ctx context.Context, quoteID int64) result.Result[string]
}

// RedirectRail is always available. Its sessions navigate away and have no
// observable state after navigation.
type RedirectRail struct {
	resolver RedirectResolver
	cooldown time.Duration
	clock    clock
	logger   *slog.Logger
}

func NewRedirectRail(resolver RedirectResolver, cooldown time.Duration, logger *slog.Logger) *RedirectRail {
	if cooldown <= 0 {
		cooldown = DefaultRedirectCooldown
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RedirectRail{
		resolver: resolver,
		cooldown: cooldown,
		clock:    systemClock(),
		logger:   logger.With("component", "payment.redirect"),
	}
}

func (r *RedirectRail) Provider() Provider        { return ProviderRedirect }
func (r *RedirectRail) Probe(context.Context) bool { return true }

func (r *RedirectRail) CreateSession(_ context.Context, quote QuoteSnapshot) (Session, error) {
	return &redirectSession{
		machine:  newMachine(ProviderRedirect, quote, r.cooldown, r.clock, r.logger),
		resolver: r.resolver,
		url:      quote.RedirectURL,
	}, nil
}

type redirectSession struct {
	*machine
	resolver RedirectResolver

	urlMu sync.Mutex
	url   string
}

// URL returns the redirect target once known.
func (s *redirectSession) URL() string {
	s.urlMu.Lock()
	defer s.urlMu.Unlock()
	return s.url
}

// Request navigates to the quote's payment page, fetching the URL by quote id
// when none was supplied.
func (s *redirectSession) Request(ctx context.Context, in RequestInput) error {
	if in.Navigator == nil {
		return ErrNoNavigator
	}
	if err := s.transition(StatusCollecting, nil, 0); err != nil {
		return err
	}

	target := s.URL()
	if target == "" {
		if s.resolver == nil {
			return s.fail(Fatal("no payment page is available for this quote", ErrUnavailable))
		}
		res := s.resolver.QuoteInvoiceURL(ctx, s.quote.QuoteID)
		if res.Failed() {
			msg := "the payment page could not be loaded"
			if nonRecoverable(res.Errors) {
				return s.fail(Fatal(msg, res.Err()))
			}
			return s.fail(Recoverable(msg, res.Err()))
		}
		target = res.Data
		s.urlMu.Lock()
		s.url = target
		s.urlMu.Unlock()
	}

	if err := in.Navigator.Navigate(ctx, target); err != nil {
		return s.fail(Recoverable("could not open the payment page", err))
	}
	s.logger.Info("Shopper redirected to payment page")
	return nil
}

// Destroy is idempotent; a redirect cannot be cancelled once navigation happened.
func (s *redirectSession) Destroy() {
	s.teardown()
}

// RedirectURL returns the target of a redirect session.
func RedirectURL(s Session) (string, bool) {
	rs, ok := s.(*redirectSession)
	if !ok {
		return "", false
	}
	u := rs.URL()
	return u, u != ""
}
