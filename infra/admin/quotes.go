package admin

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/amirasaad/storefront/pkg/result"
)

type quoteEnvelope struct {
	DraftOrder QuoteInput `json:"draft_order"`
}

// CreateQuote creates a draft order.
func (c *Client) CreateQuote(ctx context.Context, in QuoteInput) result.Result[Quote] {
	if len(in.LineItems) == 0 {
		return result.Fail[Quote](result.Error{
			Code: result.CodeValidation, Field: "line_items", Message: "at least one line item is required",
		})
	}
	r := c.Request(ctx, http.MethodPost, "draft_orders", quoteEnvelope{DraftOrder: in})
	return decode(r, field[Quote]("draft_order"))
}

// GetQuote fetches a draft order.
func (c *Client) GetQuote(ctx context.Context, id int64) result.Result[Quote] {
	r := c.Request(ctx, http.MethodGet, fmt.Sprintf("draft_orders/%d", id), nil)
	return decode(r, field[Quote]("draft_order"))
}

// UpdateQuote replaces the writable fields set in in.
func (c *Client) UpdateQuote(ctx context.Context, id int64, in QuoteInput) result.Result[Quote] {
	r := c.Request(ctx, http.MethodPut, fmt.Sprintf("draft_orders/%d", id), quoteEnvelope{DraftOrder: in})
	return decode(r, field[Quote]("draft_order"))
}

// AttachShippingLine sets the shipping method of a quote.
func (c *Client) AttachShippingLine(ctx context.Context, id int64, line ShippingLine) result.Result[Quote] {
	return c.UpdateQuote(ctx, id, QuoteInput{ShippingLine: &line})
}

// DeleteQuote deletes an open draft order.
func (c *Client) DeleteQuote(ctx context.Context, id int64) result.Result[struct{}] {
	r := c.Request(ctx, http.MethodDelete, fmt.Sprintf("draft_orders/%d", id), nil)
	return result.Map(r, func(json.RawMessage) struct{} { return struct{}{} })
}

// CompleteQuote converts a draft order into an order. With paymentPending the
// order is created unpaid.
func (c *Client) CompleteQuote(ctx context.Context, id int64, paymentPending bool) result.Result[Quote] {
	endpoint := fmt.Sprintf("draft_orders/%d/complete?payment_pending=%t", id, paymentPending)
	r := c.Request(ctx, http.MethodPut, endpoint, nil)
	return decode(r, field[Quote]("draft_order"))
}
