package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// CurrencyChecker validates a currency against the shop's enabled set and
// returns its normalized code.
type CurrencyChecker interface {
	CheckCurrency(ctx context.Context, code string) (string, error)
}

type sessionKey struct {
	attemptID string
	provider  Provider
}

// Manager owns every live session, at most one per attempt and provider.
type Manager struct {
	rails    []Rail
	currency CurrencyChecker
	logger   *slog.Logger

	mu       sync.Mutex
	sessions map[sessionKey]Session
}

// NewManager creates a Manager. rails are tried in the given order for
// ProviderAuto.
func NewManager(currency CurrencyChecker, logger *slog.Logger, rails ...Rail) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		rails:    rails,
		currency: currency,
		logger:   logger.With("component", "payment"),
		sessions: make(map[sessionKey]Session),
	}
}

// Start creates a session for quote. Any session already held for the same
// attempt and provider is destroyed first. With ProviderAuto the first rail whose
// capability is present wins.
func (m *Manager) Start(ctx context.Context, quote QuoteSnapshot, provider Provider) (Session, error) {
	if m.currency != nil {
		code, err := m.currency.CheckCurrency(ctx, quote.Currency)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCurrency, err)
		}
		quote.Currency = code
	}

	candidates, err := m.candidates(provider)
	if err != nil {
		return nil, err
	}

	for _, rail := range candidates {
		m.Destroy(quote.AttemptID, rail.Provider())
		if !rail.Probe(ctx) {
			m.logger.Debug("Payment rail unavailable", "provider", rail.Provider(), "attempt_id", quote.AttemptID)
			continue
		}
		s, err := rail.CreateSession(ctx, quote)
		if errors.Is(err, ErrUnavailable) {
			continue
		}
		if err != nil {
			return nil, err
		}

		m.mu.Lock()
		key := sessionKey{quote.AttemptID, rail.Provider()}
		prev := m.sessions[key]
		m.sessions[key] = s
		m.mu.Unlock()
		if prev != nil {
			prev.Destroy()
		}

		m.logger.Info("Payment session created",
			"provider", s.Provider(), "session_id", s.ID(),
			"attempt_id", quote.AttemptID, "quote_id", quote.QuoteID, "currency", quote.Currency)
		return s, nil
	}
	return nil, ErrUnavailable
}

func (m *Manager) candidates(provider Provider) ([]Rail, error) {
	if provider == ProviderAuto || provider == "" {
		return m.rails, nil
	}
	for _, r := range m.rails {
		if r.Provider() == provider {
			return []Rail{r}, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, provider)
}

// Session returns the live session of an attempt for provider.
func (m *Manager) Session(attemptID string, provider Provider) (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if provider == ProviderAuto {
		for _, r := range m.rails {
			if s, ok := m.sessions[sessionKey{attemptID, r.Provider()}]; ok {
				return s, true
			}
		}
		return nil, false
	}
	s, ok := m.sessions[sessionKey{attemptID, provider}]
	return s, ok
}

// Destroy tears down the session of an attempt for provider, if any.
func (m *Manager) Destroy(attemptID string, provider Provider) {
	m.mu.Lock()
	key := sessionKey{attemptID, provider}
	s, ok := m.sessions[key]
	delete(m.sessions, key)
	m.mu.Unlock()
	if ok {
		s.Destroy()
	}
}

// DestroyAttempt tears down every session of an attempt.
func (m *Manager) DestroyAttempt(attemptID string) {
	m.mu.Lock()
	var doomed []Session
	for key, s := range m.sessions {
		if key.attemptID == attemptID {
			doomed = append(doomed, s)
			delete(m.sessions, key)
		}
	}
	m.mu.Unlock()
	for _, s := range doomed {
		s.Destroy()
	}
}

// Close destroys every session.
func (m *Manager) Close() {
	m.mu.Lock()
	all := m.sessions
	m.sessions = make(map[sessionKey]Session)
	m.mu.Unlock()
	for _, s := range all {
		s.Destroy()
	}
}
