// Package checkout sequences a checkout attempt: shipping form, quote creation,
// payment and finalization.
package checkout

import (
	"time"

	"github.com/amirasaad/storefront/pkg/eventbus"
)

// State is the position of an attempt in the checkout flow.
type State string

const (
	StateShippingForm    State = "shipping-form"
	StateCreatingQuote   State = "creating-quote"
	StateAwaitingPayment State = "awaiting-payment"
	StateFinalizing      State = "finalizing"
	StateSuccess         State = "success"
	StateError           State = "error"
)

var transitions = map[State][]State{
	StateShippingForm:    {StateCreatingQuote},
	StateCreatingQuote:   {StateAwaitingPayment, StateError},
	StateAwaitingPayment: {StateFinalizing, StateShippingForm},
	StateFinalizing:      {StateSuccess, StateError},
	StateError:           {StateShippingForm},
}

// CanTransition reports whether from may move to to.
func CanTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the attempt needs shopper action to continue.
func (s State) IsTerminal() bool {
	return s == StateSuccess || s == StateError
}

func (s State) String() string {
	return string(s)
}

// EventTransition is the event type published for every state change.
const EventTransition = "checkout.transition"

// TransitionEvent records one state change of an attempt.
type TransitionEvent struct {
	AttemptID         string    `json:"attempt_id"`
	From              State     `json:"from"`
	To                State     `json:"to"`
	QuoteID           int64     `json:"quote_id,omitempty"`
	SupersededQuoteID int64     `json:"superseded_quote_id,omitempty"`
	SupersededDeleted bool      `json:"superseded_deleted,omitempty"`
	OrderID           int64     `json:"order_id,omitempty"`
	Currency          string    `json:"currency,omitempty"`
	ErrorKind         ErrorKind `json:"error_kind,omitempty"`
	Message           string    `json:"message,omitempty"`
	At                time.Time `json:"at"`
}

func (TransitionEvent) Type() string { return EventTransition }

// AsTransition unwraps ev whether it was emitted as a value or, as buses that
// decode from the wire do, as a pointer.
func AsTransition(ev eventbus.Event) (TransitionEvent, bool) {
	switch v := ev.(type) {
	case TransitionEvent:
		return v, true
	case *TransitionEvent:
		if v != nil {
			return *v, true
		}
	}
	return TransitionEvent{}, false
}
