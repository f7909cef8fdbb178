package app

import (
	"context"

	"github.com/amirasaad/storefront/pkg/checkout"
	"github.com/amirasaad/storefront/pkg/eventbus"
)

// setupEventBus registers the transition handlers with the event bus.
func (a *App) setupEventBus() {
	bus := a.Deps.EventBus
	if bus == nil {
		return
	}
	logger := a.Deps.Logger

	bus.Register(checkout.EventTransition, func(_ context.Context, ev eventbus.Event) error {
		if logger != nil {
			if te, ok := checkout.AsTransition(ev); ok && te.To == checkout.StateError {
				logger.Info("Checkout attempt errored",
					"attempt_id", te.AttemptID, "kind", te.ErrorKind, "quote_id", te.QuoteID)
			}
		}
		return nil
	})
	for _, h := range a.Deps.TransitionHandlers {
		bus.Register(checkout.EventTransition, h)
	}
}
