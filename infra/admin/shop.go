package admin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/amirasaad/storefront/pkg/result"
)

// EnabledCurrencies lists the currencies the shop accepts. It never fails: when the
// listing is unavailable the result is an empty list with the cause as a warning,
// and callers treat an empty list as "every currency is valid".
func (c *Client) EnabledCurrencies(ctx context.Context) result.Result[[]string] {
	type entry struct {
		Currency string `json:"currency"`
		Enabled  *bool  `json:"enabled"`
	}
	r := decode(c.Request(ctx, http.MethodGet, "currencies", nil), field[[]entry]("currencies"))
	if r.Failed() {
		c.logger.Info("Enabled currencies unavailable, accepting all currencies", "error", r.Message())
		return result.Degraded([]string{}, r.Errors...)
	}
	codes := make([]string, 0, len(r.Data))
	for _, e := range r.Data {
		if e.Enabled == nil || *e.Enabled {
			codes = append(codes, e.Currency)
		}
	}
	return result.OK(codes)
}

const shopCurrencyQuery = `query { shop { currencyCode } }`

// ShopCurrency reads the shop default currency through GraphQL.
func (c *Client) ShopCurrency(ctx context.Context) result.Result[string] {
	type response struct {
		Shop struct {
			CurrencyCode string `json:"currencyCode"`
		} `json:"shop"`
	}
	r := c.GraphQL(ctx, shopCurrencyQuery, nil)
	return decode(r, func(raw json.RawMessage) (string, error) {
		var resp response
		if err := json.Unmarshal(raw, &resp); err != nil {
			return "", err
		}
		if resp.Shop.CurrencyCode == "" {
			return "", errors.New("shop currency missing from response")
		}
		return resp.Shop.CurrencyCode, nil
	})
}

// GraphQL posts a query and returns its "data" member. GraphQL errors reported
// with a 200 status are returned as a failed result.
func (c *Client) GraphQL(ctx context.Context, query string, variables map[string]any) result.Result[json.RawMessage] {
	body := map[string]any{"query": query}
	if len(variables) > 0 {
		body["variables"] = variables
	}
	r := c.Request(ctx, http.MethodPost, graphQLEndpoint, body)
	if r.Failed() {
		return r
	}
	if errs := platformErrors(r.Data); len(errs) > 0 {
		for i := range errs {
			errs[i].Code = result.CodeUpstream
		}
		return result.Fail[json.RawMessage](errs...)
	}
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(r.Data, &envelope); err != nil || len(envelope.Data) == 0 {
		return result.Failure[json.RawMessage](result.CodeDecode, fmt.Sprintf("graphql response has no data: %v", err))
	}
	return result.OK(envelope.Data)
}
