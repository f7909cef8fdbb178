package admin

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/amirasaad/storefront/pkg/result"
)

type customerEnvelope struct {
	Customer Customer `json:"customer"`
}

func (c *Client) CreateCustomer(ctx context.Context, in Customer) result.Result[Customer] {
	if strings.TrimSpace(in.Email) == "" {
		return result.Fail[Customer](result.Error{
			Code: result.CodeValidation, Field: "email", Message: "is required",
		})
	}
	in.ID = 0
	r := c.Request(ctx, http.MethodPost, "customers", customerEnvelope{Customer: in})
	return decode(r, field[Customer]("customer"))
}

func (c *Client) GetCustomer(ctx context.Context, id int64) result.Result[Customer] {
	r := c.Request(ctx, http.MethodGet, fmt.Sprintf("customers/%d", id), nil)
	return decode(r, field[Customer]("customer"))
}

func (c *Client) UpdateCustomer(ctx context.Context, id int64, in Customer) result.Result[Customer] {
	in.ID = id
	r := c.Request(ctx, http.MethodPut, fmt.Sprintf("customers/%d", id), customerEnvelope{Customer: in})
	return decode(r, field[Customer]("customer"))
}

// SearchCustomerByEmail returns the customers whose email matches exactly.
func (c *Client) SearchCustomerByEmail(ctx context.Context, email string) result.Result[[]Customer] {
	q := url.Values{"query": {"email:" + strings.TrimSpace(email)}}
	r := c.Request(ctx, http.MethodGet, "customers/search?"+q.Encode(), nil)
	return decode(r, field[[]Customer]("customers"))
}
