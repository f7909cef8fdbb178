package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/amirasaad/storefront/pkg/app"
	"github.com/amirasaad/storefront/pkg/config"
	"github.com/amirasaad/storefront/webapi/webhook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewServerRootRoute(t *testing.T) {
	application, fiberApp := newServer(&app.Deps{Logger: testLogger()}, &config.App{})
	defer application.Close()

	resp, err := fiberApp.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint: errcheck
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRegisterWebhooks(t *testing.T) {
	var topic, address string
	deps := &app.Deps{
		Logger: testLogger(),
		RegisterWebhook: func(_ context.Context, tp, addr string) error {
			topic, address = tp, addr
			return nil
		},
	}

	registerWebhooks(context.Background(), deps, &config.App{Server: &config.Server{}}, deps.Logger)
	assert.Empty(t, address, "no public url, nothing registered")

	cfg := &config.App{Server: &config.Server{PublicURL: "https://bff.example.com/"}}
	registerWebhooks(context.Background(), deps, cfg, deps.Logger)
	assert.Equal(t, webhook.Topic, topic)
	assert.Equal(t, "https://bff.example.com/webhooks/quotes", address)
}
