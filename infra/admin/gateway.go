package admin

import (
	"context"
	"strings"

	"github.com/amirasaad/storefront/pkg/checkout"
	"github.com/amirasaad/storefront/pkg/result"
)

// AttemptAttribute is the note attribute tying a quote to its checkout attempt.
const AttemptAttribute = "checkout_attempt_id"

// Gateway adapts the Client to checkout.Gateway.
type Gateway struct {
	client *Client
}

// NewGateway wraps c.
func NewGateway(c *Client) *Gateway {
	return &Gateway{client: c}
}

// CreateQuote creates a draft order for the cart lines and shipping form, then
// attaches the shipping method when one is configured.
func (g *Gateway) CreateQuote(ctx context.Context, req checkout.QuoteRequest) result.Result[checkout.QuoteRef] {
	in := QuoteInput{
		Email:        req.Shipping.Email,
		Currency:     strings.ToUpper(req.Currency),
		ShippingAddr: addressFrom(req.Shipping),
		BillingAddr:  addressFrom(req.Shipping),
		NoteAttributes: []NoteAttribute{
			{Name: AttemptAttribute, Value: req.AttemptID},
		},
	}
	var errs []result.Error
	for _, l := range req.Lines {
		id, err := ParseVariantID(l.VariantID)
		if err != nil {
			errs = append(errs, result.Error{
				Code: result.CodeValidation, Field: "line_items", Message: err.Error(),
			})
			continue
		}
		in.LineItems = append(in.LineItems, LineItem{VariantID: id, Quantity: l.Quantity})
	}
	if len(errs) > 0 {
		return result.Fail[checkout.QuoteRef](errs...)
	}
	if req.Method != nil {
		in.ShippingLine = &ShippingLine{Title: req.Method.Title, Price: req.Method.Price, Custom: true}
	}

	created := g.client.CreateQuote(ctx, in)
	if created.Failed() {
		return result.Forward[checkout.QuoteRef](created)
	}
	q := created.Data
	if req.Method != nil && q.ShippingLine == nil {
		attached := g.client.AttachShippingLine(ctx, q.ID, *in.ShippingLine)
		if attached.Failed() {
			return result.Forward[checkout.QuoteRef](attached)
		}
		q = attached.Data
	}
	return result.OK(quoteRef(q))
}

// FinalizeQuote completes the quote as paid. A quote that is already completed
// yields its order id.
func (g *Gateway) FinalizeQuote(ctx context.Context, quoteID int64) result.Result[int64] {
	current := g.client.GetQuote(ctx, quoteID)
	if current.Failed() {
		return result.Forward[int64](current)
	}
	if current.Data.Status == QuoteCompleted {
		return orderID(current.Data)
	}
	done := g.client.CompleteQuote(ctx, quoteID, false)
	if done.Failed() {
		return result.Forward[int64](done)
	}
	return orderID(done.Data)
}

// DeleteQuote deletes the quote unless it was already completed. A quote the
// platform no longer knows counts as deleted.
func (g *Gateway) DeleteQuote(ctx context.Context, quoteID int64) result.Result[bool] {
	current := g.client.GetQuote(ctx, quoteID)
	if current.Failed() {
		if current.HasCode(result.CodeNotFound) {
			return result.OK(true)
		}
		return result.Forward[bool](current)
	}
	if current.Data.Status == QuoteCompleted {
		return result.OK(false)
	}
	deleted := g.client.DeleteQuote(ctx, quoteID)
	if deleted.Failed() && !deleted.HasCode(result.CodeNotFound) {
		return result.Forward[bool](deleted)
	}
	return result.OK(true)
}

func addressFrom(f checkout.ShippingForm) *Address {
	return &Address{
		FirstName: f.FirstName,
		LastName:  f.LastName,
		Address1:  f.Address1,
		Address2:  f.Address2,
		City:      f.City,
		Province:  f.Province,
		Country:   f.Country,
		Zip:       f.PostalCode,
		Phone:     f.Phone,
	}
}

func quoteRef(q Quote) checkout.QuoteRef {
	return checkout.QuoteRef{
		ID:         q.ID,
		Name:       q.Name,
		Currency:   q.Currency,
		InvoiceURL: q.InvoiceURL,
		Subtotal:   q.SubtotalPrice,
		Total:      q.TotalPrice,
	}
}

var _ checkout.Gateway = (*Gateway)(nil)
