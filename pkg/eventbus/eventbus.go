// Package eventbus defines the contract for publishing checkout and payment
// lifecycle events.
package eventbus

import "context"

// Event is anything published on the bus.
type Event interface {
	Type() string
}

// HandlerFunc processes one event.
type HandlerFunc func(ctx context.Context, e Event) error

// Bus defines the contract for publishing and subscribing to events.
type Bus interface {
	Register(eventType string, handler HandlerFunc)
	Emit(ctx context.Context, event Event) error
}
