package admin

import (
	"context"
	"fmt"
	"net/http"

	"github.com/amirasaad/storefront/pkg/result"
)

func (c *Client) GetOrder(ctx context.Context, id int64) result.Result[Order] {
	r := c.Request(ctx, http.MethodGet, fmt.Sprintf("orders/%d", id), nil)
	return decode(r, field[Order]("order"))
}

// CreateFulfillment fulfils the given fulfillment orders.
func (c *Client) CreateFulfillment(ctx context.Context, in Fulfillment) result.Result[Fulfillment] {
	if len(in.LineItemsByFO) == 0 {
		return result.Fail[Fulfillment](result.Error{
			Code:    result.CodeValidation,
			Field:   "line_items_by_fulfillment_order",
			Message: "at least one fulfillment order is required",
		})
	}
	body := struct {
		Fulfillment Fulfillment `json:"fulfillment"`
	}{in}
	r := c.Request(ctx, http.MethodPost, "fulfillments", body)
	return decode(r, field[Fulfillment]("fulfillment"))
}
