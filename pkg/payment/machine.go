package payment

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

var transitions = map[Status][]Status{
	StatusIdle:       {StatusCollecting, StatusError},
	StatusCollecting: {StatusSuccess, StatusError},
	StatusError:      {StatusIdle},
}

func canTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// clock is the time source of a machine.
type clock struct {
	now   func() time.Time
	after func(d time.Duration, f func()) *time.Timer
}

func systemClock() clock {
	return clock{now: time.Now, after: time.AfterFunc}
}

// machine is the state shared by every session: status, error, subscribers,
// cooldown and destruction. Subscribers are called outside the lock.
type machine struct {
	mu        sync.Mutex
	id        string
	provider  Provider
	quote     QuoteSnapshot
	status    Status
	err       *SessionError
	erroredAt time.Time
	cooldown  time.Duration
	resetT    *time.Timer
	subs      map[int]func(Event)
	nextSub   int
	destroyed bool
	clock     clock
	logger    *slog.Logger
}

func newMachine(p Provider, quote QuoteSnapshot, cooldown time.Duration, clk clock, logger *slog.Logger) *machine {
	id := uuid.NewString()
	return &machine{
		id:       id,
		provider: p,
		quote:    quote,
		status:   StatusIdle,
		cooldown: cooldown,
		subs:     make(map[int]func(Event)),
		clock:    clk,
		logger: logger.With(
			"session_id", id,
			"provider", p,
			"attempt_id", quote.AttemptID,
			"quote_id", quote.QuoteID,
		),
	}
}

func (m *machine) ID() string           { return m.id }
func (m *machine) Provider() Provider   { return m.provider }
func (m *machine) Quote() QuoteSnapshot { return m.quote }

func (m *machine) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

func (m *machine) Err() *SessionError {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

func (m *machine) isDestroyed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.destroyed
}

// Subscribe registers fn for every later transition.
func (m *machine) Subscribe(fn func(Event)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.destroyed {
		return func() {}
	}
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subs, id)
	}
}

// transition moves to status to and notifies subscribers. serr is recorded when
// to is StatusError.
func (m *machine) transition(to Status, serr *SessionError, orderID int64) error {
	m.mu.Lock()
	if m.destroyed {
		m.mu.Unlock()
		return ErrDestroyed
	}
	from := m.status
	if !canTransition(from, to) {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s -> %s", ErrInvalidState, from, to)
	}
	m.status = to
	m.err = nil
	if to == StatusError {
		m.err = serr
		m.erroredAt = m.clock.now()
		if serr != nil && serr.Recoverable && m.cooldown > 0 && m.clock.after != nil {
			m.resetT = m.clock.after(m.cooldown, m.autoReset)
		}
	}
	ev := Event{
		SessionID: m.id,
		AttemptID: m.quote.AttemptID,
		QuoteID:   m.quote.QuoteID,
		Provider:  m.provider,
		From:      from,
		Status:    to,
		OrderID:   orderID,
		Err:       m.err,
		At:        m.clock.now(),
	}
	subs := make([]func(Event), 0, len(m.subs))
	for _, fn := range m.subs {
		subs = append(subs, fn)
	}
	m.mu.Unlock()

	if to == StatusError && serr != nil {
		if serr.Recoverable {
			m.logger.Warn("Payment session failed", "error", serr.Message)
		} else {
			m.logger.Error("Payment session failed with a non-recoverable error", "error", serr.Message)
		}
	} else {
		m.logger.Debug("Payment session transition", "from", from, "to", to)
	}
	for _, fn := range subs {
		fn(ev)
	}
	return nil
}

func (m *machine) fail(serr *SessionError) error {
	if err := m.transition(StatusError, serr, 0); err != nil {
		return err
	}
	return serr
}

func (m *machine) autoReset() {
	if err := m.Reset(); err != nil {
		m.logger.Debug("Automatic session reset skipped", "error", err)
	}
}

// Reset returns an errored session to idle once the cooldown has passed.
// Non-recoverable errors never reset.
func (m *machine) Reset() error {
	m.mu.Lock()
	if m.status != StatusError {
		m.mu.Unlock()
		return fmt.Errorf("%w: reset from %s", ErrInvalidState, m.status)
	}
	if m.err != nil && !m.err.Recoverable {
		m.mu.Unlock()
		return ErrNotRecoverable
	}
	if wait := m.cooldown - m.clock.now().Sub(m.erroredAt); wait > 0 {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s remaining", ErrCooldown, wait.Round(time.Millisecond))
	}
	if m.resetT != nil {
		m.resetT.Stop()
		m.resetT = nil
	}
	m.mu.Unlock()
	return m.transition(StatusIdle, nil, 0)
}

// teardown marks the machine destroyed. It reports false when it already was.
func (m *machine) teardown() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.destroyed {
		return false
	}
	m.destroyed = true
	m.subs = map[int]func(Event){}
	if m.resetT != nil {
		m.resetT.Stop()
		m.resetT = nil
	}
	return true
}
