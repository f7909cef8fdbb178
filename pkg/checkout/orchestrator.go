package checkout

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/amirasaad/storefront/pkg/currency"
	"github.com/amirasaad/storefront/pkg/eventbus"
	"github.com/amirasaad/storefront/pkg/payment"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

// CurrencyResolver picks the currency a quote is stamped with and learns the
// currency the platform answered with.
type CurrencyResolver interface {
	Resolve(ctx context.Context, sig currency.Signals) currency.Resolution
	RememberPlatformCurrency(ctx context.Context, sessionID, code string)
}

// Payments is the payment session manager as seen by checkout.
type Payments interface {
	Start(ctx context.Context, quote payment.QuoteSnapshot, provider payment.Provider) (payment.Session, error)
	Session(attemptID string, provider payment.Provider) (payment.Session, bool)
	Destroy(attemptID string, provider payment.Provider)
	DestroyAttempt(attemptID string)
}

// Orchestrator drives checkout attempts.
type Orchestrator struct {
	gateway  Gateway
	currency CurrencyResolver
	payments Payments
	bus      eventbus.Bus
	method   *ShippingMethod
	logger   *slog.Logger
	now      func() time.Time

	mu         sync.Mutex
	attempts   map[string]*Attempt
	byQuote    map[int64]string
	superseded map[int64]string
	submits    singleflight.Group
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithEventBus publishes every transition on bus.
func WithEventBus(bus eventbus.Bus) Option {
	return func(o *Orchestrator) { o.bus = bus }
}

// WithShippingMethod attaches m to every quote.
func WithShippingMethod(m ShippingMethod) Option {
	return func(o *Orchestrator) {
		if m.Title != "" {
			o.method = &m
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// New creates an Orchestrator.
func New(gateway Gateway, resolver CurrencyResolver, payments Payments, logger *slog.Logger, opts ...Option) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	o := &Orchestrator{
		gateway:    gateway,
		currency:   resolver,
		payments:   payments,
		logger:     logger.With("component", "checkout"),
		now:        time.Now,
		attempts:   make(map[string]*Attempt),
		byQuote:    make(map[int64]string),
		superseded: make(map[int64]string),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Begin opens an attempt for cart in the shipping-form state.
func (o *Orchestrator) Begin(ctx context.Context, cart Cart) (Attempt, error) {
	lines, err := validLines(ctx, cart)
	if err != nil {
		return Attempt{}, err
	}
	now := o.now()
	a := &Attempt{
		ID:        uuid.NewString(),
		State:     StateShippingForm,
		Lines:     lines,
		Subtotal:  subtotal(lines),
		CreatedAt: now,
		UpdatedAt: now,
		cart:      cart,
	}
	o.mu.Lock()
	o.attempts[a.ID] = a
	snap := a.snapshot()
	o.mu.Unlock()

	o.publish(ctx, TransitionEvent{AttemptID: a.ID, To: StateShippingForm, At: now})
	o.logger.Info("Checkout attempt started", "attempt_id", a.ID, "lines", len(lines))
	return snap, nil
}

// Get returns a copy of an attempt.
func (o *Orchestrator) Get(id string) (Attempt, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	a, ok := o.attempts[id]
	if !ok {
		return Attempt{}, ErrAttemptNotFound
	}
	return a.snapshot(), nil
}

// SubmitShipping validates the form and creates a fresh quote. Concurrent submits
// for one attempt share a single quote creation. Invalid input keeps the attempt
// in shipping-form with field errors and makes no network call.
func (o *Orchestrator) SubmitShipping(ctx context.Context, id string, form ShippingForm, sig currency.Signals) (Attempt, error) {
	v, err, _ := o.submits.Do(id, func() (any, error) {
		return o.submit(ctx, id, form, sig)
	})
	if err != nil {
		return Attempt{}, err
	}
	return v.(Attempt), nil
}

func (o *Orchestrator) submit(ctx context.Context, id string, form ShippingForm, sig currency.Signals) (Attempt, error) {
	o.mu.Lock()
	a, ok := o.attempts[id]
	if !ok {
		o.mu.Unlock()
		return Attempt{}, ErrAttemptNotFound
	}
	var events []TransitionEvent
	if a.State == StateError {
		events = append(events, o.transition(a, StateShippingForm))
	}
	if a.State != StateShippingForm {
		state := a.State
		o.mu.Unlock()
		o.publish(ctx, events...)
		return Attempt{}, fmt.Errorf("%w: submit shipping in %s", ErrInvalidState, state)
	}

	a.Form = form.Normalized()
	if fe := form.Validate(); fe != nil {
		a.FieldErrors = fe
		a.UpdatedAt = o.now()
		snap := a.snapshot()
		o.mu.Unlock()
		o.publish(ctx, events...)
		return snap, nil
	}
	a.FieldErrors = nil
	a.Error = nil
	superseded, paid := a.QuoteID, a.paidQuote
	if superseded != 0 {
		a.SupersededQuotes = append(a.SupersededQuotes, superseded)
		delete(o.byQuote, superseded)
		o.superseded[superseded] = id
		a.QuoteID, a.RedirectURL, a.QuoteName = 0, "", ""
	}
	creating := o.transition(a, StateCreatingQuote)
	creating.SupersededQuoteID = superseded
	cart := a.cart
	o.mu.Unlock()
	o.publish(ctx, events...)

	// a new quote invalidates every session opened against the old one
	o.payments.DestroyAttempt(id)
	if superseded != 0 && superseded == paid {
		// kept out of the ledger's superseded set so the sweep never deletes it
		o.logger.Error("Superseded quote was paid, leaving it open for recovery",
			"attempt_id", id, "quote_id", superseded)
		superseded, creating.SupersededQuoteID = 0, 0
	}
	if superseded != 0 {
		creating.SupersededDeleted = o.discardQuote(ctx, id, superseded)
	}
	o.publish(ctx, creating)

	lines, err := validLines(ctx, cart)
	if err != nil {
		return o.failQuote(ctx, id, &UserError{Kind: KindValidation, Message: MsgGeneric}, err), nil
	}

	res := o.currency.Resolve(ctx, sig)
	stamped := make([]Line, len(lines))
	copy(stamped, lines)

	q := o.gateway.CreateQuote(ctx, QuoteRequest{
		AttemptID: id,
		Currency:  res.Code,
		Lines:     stamped,
		Shipping:  a.Form,
		Method:    o.method,
	})
	if q.Failed() {
		o.logger.Warn("Quote creation failed", "attempt_id", id, "error", q.Message())
		return o.failQuote(ctx, id, Classify(q.Errors), nil), nil
	}

	o.mu.Lock()
	a.QuoteID = q.Data.ID
	a.QuoteName = q.Data.Name
	a.RedirectURL = q.Data.InvoiceURL
	a.Currency = res.Code
	if q.Data.Currency != "" {
		a.Currency = q.Data.Currency
	}
	a.CurrencySource = string(res.Source)
	a.Lines = stamped
	a.Subtotal = subtotal(stamped)
	if !q.Data.Subtotal.IsZero() {
		a.Subtotal = q.Data.Subtotal
	}
	a.Total = q.Data.Total
	o.byQuote[a.QuoteID] = id
	ev := o.transition(a, StateAwaitingPayment)
	ev.SupersededQuoteID = superseded
	snap := a.snapshot()
	o.mu.Unlock()

	o.publish(ctx, ev)
	if q.Data.Currency != "" {
		o.currency.RememberPlatformCurrency(ctx, sig.SessionID, q.Data.Currency)
	}
	o.logger.Info("Quote created", "attempt_id", id, "quote_id", snap.QuoteID,
		"currency", snap.Currency, "currency_source", res.Source)
	return snap, nil
}

// discardQuote deletes a superseded quote on the platform and reports whether it
// is gone. A failed delete is left to the ledger sweep.
func (o *Orchestrator) discardQuote(ctx context.Context, id string, quoteID int64) bool {
	res := o.gateway.DeleteQuote(ctx, quoteID)
	switch {
	case res.Failed():
		o.logger.Warn("Failed to delete superseded quote",
			"attempt_id", id, "quote_id", quoteID, "error", res.Message())
		return false
	case !res.Data:
		o.logger.Error("Superseded quote was already completed",
			"attempt_id", id, "quote_id", quoteID)
		return false
	}
	o.logger.Info("Superseded quote deleted", "attempt_id", id, "quote_id", quoteID)
	return true
}

func (o *Orchestrator) failQuote(ctx context.Context, id string, uerr *UserError, cause error) Attempt {
	if cause != nil {
		o.logger.Warn("Checkout attempt failed", "attempt_id", id, "error", cause)
	}
	o.mu.Lock()
	a := o.attempts[id]
	a.Error = uerr
	ev := o.transition(a, StateError)
	snap := a.snapshot()
	o.mu.Unlock()
	o.publish(ctx, ev)
	return snap
}

// StartPayment opens a payment session for the attempt's quote. When the session
// succeeds the attempt is finalized.
func (o *Orchestrator) StartPayment(ctx context.Context, id string, provider payment.Provider) (payment.Session, error) {
	o.mu.Lock()
	a, ok := o.attempts[id]
	if !ok {
		o.mu.Unlock()
		return nil, ErrAttemptNotFound
	}
	if a.State != StateAwaitingPayment {
		state := a.State
		o.mu.Unlock()
		return nil, fmt.Errorf("%w: start payment in %s", ErrInvalidState, state)
	}
	snap := payment.QuoteSnapshot{
		AttemptID:   a.ID,
		QuoteID:     a.QuoteID,
		Currency:    a.Currency,
		Total:       a.Total,
		RedirectURL: a.RedirectURL,
	}
	if o.method != nil {
		snap.Shipping = o.method.Price
	}
	for _, l := range a.Lines {
		label := l.Title
		if label == "" {
			label = l.VariantID
		}
		snap.Lines = append(snap.Lines, payment.Line{Label: label, Quantity: l.Quantity, UnitPrice: l.UnitPrice})
	}
	o.mu.Unlock()

	s, err := o.payments.Start(ctx, snap, provider)
	if err != nil {
		return nil, err
	}
	quoteID := snap.QuoteID
	s.Subscribe(func(ev payment.Event) {
		if ev.Status != payment.StatusSuccess || ev.QuoteID != quoteID {
			return
		}
		if _, err := o.OnPaymentSuccess(context.WithoutCancel(ctx), id); err != nil {
			o.logger.Warn("Finalization after payment failed", "attempt_id", id, "error", err)
		}
	})
	return s, nil
}

// OnPaymentSuccess finalizes the quote, clears the cart and ends the attempt in
// success. A failure leaves the quote open on the platform for manual recovery.
// Repeated calls after finalization started are no-ops.
func (o *Orchestrator) OnPaymentSuccess(ctx context.Context, id string) (Attempt, error) {
	o.mu.Lock()
	a, ok := o.attempts[id]
	if !ok {
		o.mu.Unlock()
		return Attempt{}, ErrAttemptNotFound
	}
	switch a.State {
	case StateFinalizing, StateSuccess:
		snap := a.snapshot()
		o.mu.Unlock()
		return snap, nil
	case StateAwaitingPayment:
	default:
		state := a.State
		o.mu.Unlock()
		return Attempt{}, fmt.Errorf("%w: finalize in %s", ErrInvalidState, state)
	}
	ev := o.transition(a, StateFinalizing)
	a.paidQuote = a.QuoteID
	quoteID, cart := a.QuoteID, a.cart
	o.mu.Unlock()
	o.publish(ctx, ev)

	res := o.gateway.FinalizeQuote(ctx, quoteID)
	if res.Failed() {
		o.logger.Error("Quote finalization failed, quote left open",
			"attempt_id", id, "quote_id", quoteID, "error", res.Message())
		return o.failQuote(ctx, id, Classify(res.Errors), nil), nil
	}

	if cart != nil {
		if err := cart.Clear(ctx); err != nil {
			o.logger.Warn("Failed to clear cart", "attempt_id", id, "error", err)
		}
	}

	o.mu.Lock()
	a.OrderID = res.Data
	ev = o.transition(a, StateSuccess)
	snap := a.snapshot()
	o.mu.Unlock()
	o.publish(ctx, ev)

	o.payments.DestroyAttempt(id)
	o.logger.Info("Checkout completed", "attempt_id", id, "quote_id", quoteID, "order_id", res.Data)
	return snap, nil
}

// ConfirmExternalPayment finalizes the attempt owning quoteID. It is how the
// redirect rail reports success. A payment for a quote that was replaced by a
// newer one returns ErrQuoteSuperseded and needs manual reconciliation.
func (o *Orchestrator) ConfirmExternalPayment(ctx context.Context, quoteID int64) (Attempt, error) {
	o.mu.Lock()
	id, ok := o.byQuote[quoteID]
	owner, replaced := o.superseded[quoteID]
	o.mu.Unlock()
	if !ok {
		if replaced {
			o.logger.Error("Payment reported for superseded quote", "attempt_id", owner, "quote_id", quoteID)
			return Attempt{}, fmt.Errorf("%w: quote %d of attempt %s", ErrQuoteSuperseded, quoteID, owner)
		}
		return Attempt{}, ErrAttemptNotFound
	}
	return o.OnPaymentSuccess(ctx, id)
}

// ReturnToShipping moves an errored or unpaid attempt back to the shipping form,
// keeping everything the shopper entered.
func (o *Orchestrator) ReturnToShipping(ctx context.Context, id string) (Attempt, error) {
	o.mu.Lock()
	a, ok := o.attempts[id]
	if !ok {
		o.mu.Unlock()
		return Attempt{}, ErrAttemptNotFound
	}
	if a.State == StateShippingForm {
		snap := a.snapshot()
		o.mu.Unlock()
		return snap, nil
	}
	if !CanTransition(a.State, StateShippingForm) {
		state := a.State
		o.mu.Unlock()
		return Attempt{}, fmt.Errorf("%w: return to shipping from %s", ErrInvalidState, state)
	}
	ev := o.transition(a, StateShippingForm)
	snap := a.snapshot()
	o.mu.Unlock()

	o.payments.DestroyAttempt(id)
	o.publish(ctx, ev)
	return snap, nil
}

// transition must be called with o.mu held.
func (o *Orchestrator) transition(a *Attempt, to State) TransitionEvent {
	from := a.State
	if !CanTransition(from, to) {
		o.logger.Error("Illegal checkout transition", "attempt_id", a.ID, "from", from, "to", to)
	}
	a.State = to
	a.UpdatedAt = o.now()
	ev := TransitionEvent{
		AttemptID: a.ID,
		From:      from,
		To:        to,
		QuoteID:   a.QuoteID,
		OrderID:   a.OrderID,
		Currency:  a.Currency,
		At:        a.UpdatedAt,
	}
	if to == StateError && a.Error != nil {
		ev.ErrorKind = a.Error.Kind
		ev.Message = a.Error.Message
	}
	return ev
}

func (o *Orchestrator) publish(ctx context.Context, events ...TransitionEvent) {
	for _, ev := range events {
		o.logger.Debug("Checkout transition", "attempt_id", ev.AttemptID, "from", ev.From, "to", ev.To)
		if o.bus == nil {
			continue
		}
		if err := o.bus.Emit(ctx, ev); err != nil {
			o.logger.Warn("Failed to publish checkout transition", "attempt_id", ev.AttemptID, "error", err)
		}
	}
}

func validLines(ctx context.Context, cart Cart) ([]Line, error) {
	if cart == nil {
		return nil, ErrEmptyCart
	}
	lines, err := cart.Lines(ctx)
	if err != nil {
		return nil, fmt.Errorf("read cart: %w", err)
	}
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}
	for i, l := range lines {
		if err := validate.Struct(l); err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrInvalidLine, i, err)
		}
		if l.UnitPrice.IsNegative() {
			return nil, fmt.Errorf("%w: line %d: negative price", ErrInvalidLine, i)
		}
	}
	return lines, nil
}

func subtotal(lines []Line) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return sum
}
