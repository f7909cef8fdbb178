package admin_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/amirasaad/storefront/infra/admin"
	"github.com/amirasaad/storefront/pkg/checkout"
	"github.com/amirasaad/storefront/pkg/result"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnabledCurrencies(t *testing.T) {
	t.Run("keeps enabled entries", func(t *testing.T) {
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, apiPrefix+"/currencies.json", r.URL.Path)
			writeJSON(w, http.StatusOK, `{"currencies":[
				{"currency":"USD","enabled":true},
				{"currency":"EUR","enabled":true},
				{"currency":"JPY","enabled":false}]}`)
		}, admin.Config{})

		r := c.EnabledCurrencies(context.Background())
		require.False(t, r.Failed())
		assert.False(t, r.IsDegraded())
		assert.Equal(t, []string{"USD", "EUR"}, r.Data)
	})

	t.Run("degrades to empty list", func(t *testing.T) {
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusForbidden, `{"errors":"scope"}`)
		}, admin.Config{})

		r := c.EnabledCurrencies(context.Background())
		require.False(t, r.Failed())
		assert.True(t, r.IsDegraded())
		assert.Empty(t, r.Data)
		assert.NotNil(t, r.Data)
	})
}

func TestShopCurrency(t *testing.T) {
	t.Run("reads currency code", func(t *testing.T) {
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, apiPrefix+"/graphql.json", r.URL.Path)
			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Contains(t, body["query"], "currencyCode")
			writeJSON(w, http.StatusOK, `{"data":{"shop":{"currencyCode":"CAD"}}}`)
		}, admin.Config{})

		r := c.ShopCurrency(context.Background())
		require.False(t, r.Failed(), r.Message())
		assert.Equal(t, "CAD", r.Data)
	})

	t.Run("graphql errors fail", func(t *testing.T) {
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, `{"errors":[{"message":"Throttled"}]}`)
		}, admin.Config{})

		r := c.ShopCurrency(context.Background())
		require.True(t, r.Failed())
		assert.True(t, r.HasCode(result.CodeUpstream))
		assert.Equal(t, "Throttled", r.Message())
	})
}

func TestCreateQuote_RequiresLineItems(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	}, admin.Config{})

	r := c.CreateQuote(context.Background(), admin.QuoteInput{Email: "a@b.c"})
	require.True(t, r.Failed())
	assert.Equal(t, "line_items", r.Errors[0].Field)
}

func TestExchangePaymentToken(t *testing.T) {
	var (
		updated   admin.QuoteInput
		completed bool
	)
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == apiPrefix+"/draft_orders/55.json":
			writeJSON(w, http.StatusOK, `{"draft_order":{"id":55,"status":"open",
				"note_attributes":[{"name":"checkout_attempt_id","value":"att-1"}]}}`)
		case r.Method == http.MethodPut && r.URL.Path == apiPrefix+"/draft_orders/55.json":
			var env struct {
				DraftOrder admin.QuoteInput `json:"draft_order"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&env))
			updated = env.DraftOrder
			writeJSON(w, http.StatusOK, `{"draft_order":{"id":55,"status":"open"}}`)
		case r.Method == http.MethodPut && r.URL.Path == apiPrefix+"/draft_orders/55/complete.json":
			assert.Equal(t, "false", r.URL.Query().Get("payment_pending"))
			completed = true
			writeJSON(w, http.StatusOK, `{"draft_order":{"id":55,"status":"completed","order_id":9001}}`)
		default:
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}, admin.Config{})

	r := c.ExchangePaymentToken(context.Background(), 55, "pi_123")

	require.False(t, r.Failed(), r.Message())
	assert.Equal(t, int64(9001), r.Data)
	assert.True(t, completed)
	require.Len(t, updated.NoteAttributes, 2)
	assert.Equal(t, admin.NoteAttribute{Name: admin.PaymentReferenceAttribute, Value: "pi_123"}, updated.NoteAttributes[1])
}

func TestExchangePaymentToken_AlreadyCompleted(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		writeJSON(w, http.StatusOK, `{"draft_order":{"id":55,"status":"completed","order_id":77}}`)
	}, admin.Config{})

	r := c.ExchangePaymentToken(context.Background(), 55, "pi_123")
	require.False(t, r.Failed())
	assert.Equal(t, int64(77), r.Data)

	empty := c.ExchangePaymentToken(context.Background(), 55, " ")
	assert.True(t, empty.HasCode(result.CodeValidation))
}

func TestQuoteInvoiceURL(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == apiPrefix+"/draft_orders/1.json" {
			writeJSON(w, http.StatusOK, `{"draft_order":{"id":1,"invoice_url":"https://shop.example/inv/1"}}`)
			return
		}
		writeJSON(w, http.StatusOK, `{"draft_order":{"id":2}}`)
	}, admin.Config{})

	r := c.QuoteInvoiceURL(context.Background(), 1)
	require.False(t, r.Failed())
	assert.Equal(t, "https://shop.example/inv/1", r.Data)

	missing := c.QuoteInvoiceURL(context.Background(), 2)
	assert.True(t, missing.HasCode(result.CodeNotFound))
}

func TestEnsureWebhook(t *testing.T) {
	var created int
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, http.StatusOK, `{"webhooks":[{"id":1,"topic":"orders/create","address":"https://bff.example/hooks"}]}`)
		case http.MethodPost:
			created++
			body, _ := io.ReadAll(r.Body)
			assert.Contains(t, string(body), `"format":"json"`)
			writeJSON(w, http.StatusCreated, `{"webhook":{"id":2,"topic":"draft_orders/update","address":"https://bff.example/hooks"}}`)
		}
	}, admin.Config{})

	r := c.EnsureWebhook(context.Background(), "orders/create", "https://bff.example/hooks")
	require.False(t, r.Failed())
	assert.Equal(t, int64(1), r.Data.ID)
	assert.Zero(t, created)

	r = c.EnsureWebhook(context.Background(), "draft_orders/update", "https://bff.example/hooks")
	require.False(t, r.Failed())
	assert.Equal(t, int64(2), r.Data.ID)
	assert.Equal(t, 1, created)
}

func TestGateway_CreateQuote(t *testing.T) {
	var sent map[string]any
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		var env map[string]map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&env))
		sent = env["draft_order"]
		writeJSON(w, http.StatusCreated, `{"draft_order":{"id":501,"name":"#D501","currency":"EUR",
			"invoice_url":"https://shop.example/inv/501","subtotal_price":"19.00","total_price":"23.00",
			"shipping_line":{"title":"Standard","price":"4.00","custom":true}}}`)
	}, admin.Config{})
	gw := admin.NewGateway(c)

	r := gw.CreateQuote(context.Background(), checkout.QuoteRequest{
		AttemptID: "att-1",
		Currency:  "eur",
		Lines: []checkout.Line{
			{VariantID: "gid://shopify/ProductVariant/101", Quantity: 2, UnitPrice: decimal.RequireFromString("9.50")},
		},
		Shipping: checkout.ShippingForm{
			Email: "jose@example.com", FirstName: "José", LastName: "Müller",
			Address1: "Calle 1", City: "Málaga", Country: "ES", PostalCode: "29001",
		},
		Method: &checkout.ShippingMethod{Title: "Standard", Price: decimal.NewFromInt(4)},
	})

	require.False(t, r.Failed(), r.Message())
	assert.Equal(t, int64(501), r.Data.ID)
	assert.Equal(t, "https://shop.example/inv/501", r.Data.InvoiceURL)
	assert.True(t, decimal.NewFromInt(23).Equal(r.Data.Total))

	assert.Equal(t, "EUR", sent["currency"])
	addr := sent["shipping_address"].(map[string]any)
	assert.Equal(t, "Jose", addr["first_name"])
	assert.Equal(t, "Malaga", addr["city"])
	assert.Equal(t, "29001", addr["zip"])
	items := sent["line_items"].([]any)
	require.Len(t, items, 1)
	assert.EqualValues(t, 101, items[0].(map[string]any)["variant_id"])
}

func TestGateway_CreateQuote_InvalidVariant(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	}, admin.Config{})

	r := admin.NewGateway(c).CreateQuote(context.Background(), checkout.QuoteRequest{
		Lines: []checkout.Line{{VariantID: "gid://shopify/ProductVariant/abc", Quantity: 1}},
	})
	require.True(t, r.Failed())
	assert.Equal(t, checkout.MsgVariantUnavailable, checkout.Classify(r.Errors).Message)
}

func TestGateway_FinalizeQuote(t *testing.T) {
	var completes int
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case apiPrefix + "/draft_orders/8.json":
			writeJSON(w, http.StatusOK, `{"draft_order":{"id":8,"status":"open"}}`)
		case apiPrefix + "/draft_orders/8/complete.json":
			completes++
			writeJSON(w, http.StatusOK, `{"draft_order":{"id":8,"status":"completed","order_id":3}}`)
		case apiPrefix + "/draft_orders/9.json":
			writeJSON(w, http.StatusOK, `{"draft_order":{"id":9,"status":"completed","order_id":4}}`)
		default:
			writeJSON(w, http.StatusUnprocessableEntity, `{"errors":{"base":["Draft order has expired"]}}`)
		}
	}, admin.Config{})
	gw := admin.NewGateway(c)

	r := gw.FinalizeQuote(context.Background(), 8)
	require.False(t, r.Failed(), r.Message())
	assert.Equal(t, int64(3), r.Data)
	assert.Equal(t, 1, completes)

	r = gw.FinalizeQuote(context.Background(), 9)
	require.False(t, r.Failed())
	assert.Equal(t, int64(4), r.Data)
	assert.Equal(t, 1, completes)

	r = gw.FinalizeQuote(context.Background(), 10)
	require.True(t, r.Failed())
	assert.Equal(t, checkout.MsgQuoteExpired, checkout.Classify(r.Errors).Message)
}

func TestGateway_DeleteQuote(t *testing.T) {
	var deletes []string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			deletes = append(deletes, r.URL.Path)
			writeJSON(w, http.StatusOK, `{}`)
			return
		}
		switch r.URL.Path {
		case apiPrefix + "/draft_orders/111.json":
			writeJSON(w, http.StatusOK, `{"draft_order":{"id":111,"status":"open"}}`)
		case apiPrefix + "/draft_orders/112.json":
			writeJSON(w, http.StatusOK, `{"draft_order":{"id":112,"status":"completed","order_id":5}}`)
		case apiPrefix + "/draft_orders/113.json":
			writeJSON(w, http.StatusNotFound, `{"errors":"Not Found"}`)
		default:
			writeJSON(w, http.StatusUnauthorized, `{"errors":"Invalid API key"}`)
		}
	}, admin.Config{})
	gw := admin.NewGateway(c)

	r := gw.DeleteQuote(context.Background(), 111)
	require.False(t, r.Failed(), r.Message())
	assert.True(t, r.Data)
	assert.Equal(t, []string{apiPrefix + "/draft_orders/111.json"}, deletes)

	r = gw.DeleteQuote(context.Background(), 112)
	require.False(t, r.Failed(), r.Message())
	assert.False(t, r.Data, "completed quotes are kept")

	r = gw.DeleteQuote(context.Background(), 113)
	require.False(t, r.Failed(), r.Message())
	assert.True(t, r.Data)

	r = gw.DeleteQuote(context.Background(), 114)
	require.True(t, r.Failed())
	assert.True(t, r.HasCode(result.CodeUnauthorized))
	assert.Len(t, deletes, 1)
}
