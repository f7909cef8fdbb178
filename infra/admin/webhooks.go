package admin

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/amirasaad/storefront/pkg/result"
)

func (c *Client) CreateWebhook(ctx context.Context, in Webhook) result.Result[Webhook] {
	if in.Format == "" {
		in.Format = "json"
	}
	body := struct {
		Webhook Webhook `json:"webhook"`
	}{in}
	r := c.Request(ctx, http.MethodPost, "webhooks", body)
	return decode(r, field[Webhook]("webhook"))
}

func (c *Client) ListWebhooks(ctx context.Context) result.Result[[]Webhook] {
	r := c.Request(ctx, http.MethodGet, "webhooks", nil)
	return decode(r, field[[]Webhook]("webhooks"))
}

func (c *Client) DeleteWebhook(ctx context.Context, id int64) result.Result[struct{}] {
	r := c.Request(ctx, http.MethodDelete, fmt.Sprintf("webhooks/%d", id), nil)
	return result.Map(r, func(json.RawMessage) struct{} { return struct{}{} })
}

// EnsureWebhook registers topic for address unless an identical subscription exists.
func (c *Client) EnsureWebhook(ctx context.Context, topic, address string) result.Result[Webhook] {
	existing := c.ListWebhooks(ctx)
	if existing.Failed() {
		return result.Forward[Webhook](existing)
	}
	for _, w := range existing.Data {
		if w.Topic == topic && w.Address == address {
			return result.OK(w)
		}
	}
	return c.CreateWebhook(ctx, Webhook{Topic: topic, Address: address})
}
