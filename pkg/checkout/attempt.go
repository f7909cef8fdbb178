package checkout

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/amirasaad/storefront/pkg/result"
	"github.com/shopspring/decimal"
)

var (
	ErrAttemptNotFound = errors.New("checkout attempt not found")
	ErrInvalidState    = errors.New("action not allowed in current checkout state")
	ErrEmptyCart       = errors.New("cart is empty")
	ErrInvalidLine     = errors.New("cart line is invalid")
	ErrQuoteSuperseded = errors.New("quote was superseded by a newer quote")
)

// Line is one cart line: merchandise id, quantity and unit price.
type Line struct {
	VariantID string          `json:"variantId" validate:"required"`
	Title     string          `json:"title,omitempty"`
	Quantity  int             `json:"quantity" validate:"gt=0"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

// Cart is the shopper's cart as seen by checkout.
type Cart interface {
	Lines(ctx context.Context) ([]Line, error)
	Clear(ctx context.Context) error
}

// MemoryCart is a Cart holding its lines in memory.
type MemoryCart struct {
	mu    sync.Mutex
	lines []Line
}

func NewMemoryCart(lines ...Line) *MemoryCart {
	return &MemoryCart{lines: append([]Line(nil), lines...)}
}

func (c *MemoryCart) Lines(context.Context) ([]Line, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Line(nil), c.lines...), nil
}

func (c *MemoryCart) Clear(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = nil
	return nil
}

// ShippingMethod is the shipping line attached to every quote.
type ShippingMethod struct {
	Title string          `json:"title"`
	Price decimal.Decimal `json:"price"`
}

// QuoteRequest is what the gateway needs to create a quote.
type QuoteRequest struct {
	AttemptID string
	Currency  string
	Lines     []Line
	Shipping  ShippingForm
	Method    *ShippingMethod
}

// QuoteRef is the platform's answer to a created quote.
type QuoteRef struct {
	ID         int64           `json:"id"`
	Name       string          `json:"name,omitempty"`
	Currency   string          `json:"currency"`
	InvoiceURL string          `json:"invoiceUrl,omitempty"`
	Subtotal   decimal.Decimal `json:"subtotal"`
	Total      decimal.Decimal `json:"total"`
}

// Gateway is the commerce platform as seen by checkout.
type Gateway interface {
	CreateQuote(ctx context.Context, req QuoteRequest) result.Result[QuoteRef]
	// FinalizeQuote commits a quote and returns the order id. A quote that is
	// already completed is returned as finalized.
	FinalizeQuote(ctx context.Context, quoteID int64) result.Result[int64]
	// DeleteQuote removes a quote that is still open. It reports false without
	// an error when the quote was already completed and was left alone.
	DeleteQuote(ctx context.Context, quoteID int64) result.Result[bool]
}

// Attempt is one run through checkout. The shipping form is kept across errors
// so the shopper never retypes it.
type Attempt struct {
	ID               string          `json:"id"`
	State            State           `json:"state"`
	Form             ShippingForm    `json:"form"`
	FieldErrors      FieldErrors     `json:"fieldErrors,omitempty"`
	QuoteID          int64           `json:"quoteId,omitempty"`
	QuoteName        string          `json:"quoteName,omitempty"`
	RedirectURL      string          `json:"redirectUrl,omitempty"`
	Currency         string          `json:"currency,omitempty"`
	CurrencySource   string          `json:"currencySource,omitempty"`
	Lines            []Line          `json:"lines"`
	Subtotal         decimal.Decimal `json:"subtotal"`
	Total            decimal.Decimal `json:"total"`
	OrderID          int64           `json:"orderId,omitempty"`
	Error            *UserError      `json:"error,omitempty"`
	SupersededQuotes []int64         `json:"supersededQuotes,omitempty"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`

	cart      Cart
	paidQuote int64 // reached finalization, never deleted
}

func (a *Attempt) snapshot() Attempt {
	cp := *a
	cp.Lines = append([]Line(nil), a.Lines...)
	cp.SupersededQuotes = append([]int64(nil), a.SupersededQuotes...)
	if a.FieldErrors != nil {
		cp.FieldErrors = make(FieldErrors, len(a.FieldErrors))
		for k, v := range a.FieldErrors {
			cp.FieldErrors[k] = v
		}
	}
	if a.Error != nil {
		e := *a.Error
		cp.Error = &e
	}
	cp.cart = nil
	return cp
}
