package eventbus

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/amirasaad/storefront/pkg/eventbus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEvent struct {
	Message string `json:"message"`
}

func (e *testEvent) Type() string { return "test.event" }

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestMemoryEventBus_Emit(t *testing.T) {
	bus := NewWithMemory(discard)

	var got []string
	bus.Register("test.event", func(_ context.Context, e eventbus.Event) error {
		got = append(got, e.(*testEvent).Message)
		return nil
	})
	bus.Register("test.event", func(context.Context, eventbus.Event) error {
		return errors.New("handler failure")
	})
	bus.Register("test.event", func(context.Context, eventbus.Event) error {
		panic("boom")
	})
	bus.Register("other.event", func(context.Context, eventbus.Event) error {
		t.Fatal("unexpected dispatch")
		return nil
	})

	require.NoError(t, bus.Emit(context.Background(), &testEvent{Message: "hello"}))
	assert.Equal(t, []string{"hello"}, got)
	assert.Len(t, bus.Published(), 1)

	bus.ClearPublished()
	assert.Empty(t, bus.Published())
}
