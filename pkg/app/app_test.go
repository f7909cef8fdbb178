package app_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	infraeventbus "github.com/amirasaad/storefront/infra/eventbus"
	"github.com/amirasaad/storefront/pkg/app"
	"github.com/amirasaad/storefront/pkg/checkout"
	"github.com/amirasaad/storefront/pkg/eventbus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupEventBus_LogsErroredAttempts(t *testing.T) {
	tests := []struct {
		name string
		ev   eventbus.Event
	}{
		{name: "value", ev: checkout.TransitionEvent{AttemptID: "a-1", To: checkout.StateError, ErrorKind: checkout.KindTransport}},
		{name: "pointer", ev: &checkout.TransitionEvent{AttemptID: "a-1", To: checkout.StateError, ErrorKind: checkout.KindTransport}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&buf, nil))
			bus := infraeventbus.NewWithMemory(logger)

			var handled []string
			a := app.New(&app.Deps{
				EventBus: bus,
				Logger:   logger,
				TransitionHandlers: []eventbus.HandlerFunc{
					func(_ context.Context, ev eventbus.Event) error {
						te, ok := checkout.AsTransition(ev)
						require.True(t, ok)
						handled = append(handled, te.AttemptID)
						return nil
					},
				},
			}, nil)
			defer a.Close()

			require.NoError(t, bus.Emit(context.Background(), tt.ev))
			assert.Contains(t, buf.String(), "Checkout attempt errored")
			assert.Contains(t, buf.String(), "attempt_id=a-1")
			assert.Equal(t, []string{"a-1"}, handled)
		})
	}
}
