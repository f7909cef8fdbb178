package admin

import (
	"context"
	"strings"

	"github.com/amirasaad/storefront/pkg/result"
)

// PaymentReferenceAttribute is the note attribute holding the wallet payment id.
const PaymentReferenceAttribute = "wallet_payment_reference"

// ExchangePaymentToken records a wallet payment reference on a quote and
// completes it as paid. It returns the resulting order id.
func (c *Client) ExchangePaymentToken(ctx context.Context, quoteID int64, token string) result.Result[int64] {
	token = strings.TrimSpace(token)
	if token == "" {
		return result.Fail[int64](result.Error{
			Code: result.CodeValidation, Field: "token", Message: "payment token is empty",
		})
	}

	current := c.GetQuote(ctx, quoteID)
	if current.Failed() {
		return result.Forward[int64](current)
	}
	if current.Data.Status == QuoteCompleted {
		return orderID(current.Data)
	}

	attrs := append([]NoteAttribute(nil), current.Data.NoteAttributes...)
	attrs = append(attrs, NoteAttribute{Name: PaymentReferenceAttribute, Value: token})
	if up := c.UpdateQuote(ctx, quoteID, QuoteInput{NoteAttributes: attrs}); up.Failed() {
		return result.Forward[int64](up)
	}

	done := c.CompleteQuote(ctx, quoteID, false)
	if done.Failed() {
		return result.Forward[int64](done)
	}
	return orderID(done.Data)
}

// QuoteInvoiceURL returns the hosted payment page of a quote.
func (c *Client) QuoteInvoiceURL(ctx context.Context, quoteID int64) result.Result[string] {
	q := c.GetQuote(ctx, quoteID)
	if q.Failed() {
		return result.Forward[string](q)
	}
	if q.Data.InvoiceURL == "" {
		return result.Failure[string](result.CodeNotFound, "quote has no invoice URL")
	}
	return result.OK(q.Data.InvoiceURL)
}

func orderID(q Quote) result.Result[int64] {
	if q.OrderID == 0 {
		return result.Failure[int64](result.CodeDecode, "completed quote has no order id")
	}
	return result.OK(q.OrderID)
}
