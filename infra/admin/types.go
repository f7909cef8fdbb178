package admin

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Quote statuses as reported by the platform.
const (
	QuoteOpen        = "open"
	QuoteInvoiceSent = "invoice_sent"
	QuoteCompleted   = "completed"
)

// Quote is a draft order.
type Quote struct {
	ID             int64           `json:"id,omitempty"`
	Name           string          `json:"name,omitempty"`
	Status         string          `json:"status,omitempty"`
	Email          string          `json:"email,omitempty"`
	Currency       string          `json:"currency,omitempty"`
	LineItems      []LineItem      `json:"line_items,omitempty"`
	ShippingAddr   *Address        `json:"shipping_address,omitempty"`
	BillingAddr    *Address        `json:"billing_address,omitempty"`
	ShippingLine   *ShippingLine   `json:"shipping_line,omitempty"`
	NoteAttributes []NoteAttribute `json:"note_attributes,omitempty"`
	Note           string          `json:"note,omitempty"`
	Tags           string          `json:"tags,omitempty"`
	Customer       *CustomerRef    `json:"customer,omitempty"`
	InvoiceURL     string          `json:"invoice_url,omitempty"`
	SubtotalPrice  decimal.Decimal `json:"subtotal_price,omitempty"`
	TotalPrice     decimal.Decimal `json:"total_price,omitempty"`
	OrderID        int64           `json:"order_id,omitempty"`
	CompletedAt    *time.Time      `json:"completed_at,omitempty"`
	CreatedAt      *time.Time      `json:"created_at,omitempty"`
}

// QuoteInput is the writable subset of a Quote.
type QuoteInput struct {
	Email          string          `json:"email,omitempty"`
	Currency       string          `json:"currency,omitempty"`
	LineItems      []LineItem      `json:"line_items,omitempty"`
	ShippingAddr   *Address        `json:"shipping_address,omitempty"`
	BillingAddr    *Address        `json:"billing_address,omitempty"`
	ShippingLine   *ShippingLine   `json:"shipping_line,omitempty"`
	NoteAttributes []NoteAttribute `json:"note_attributes,omitempty"`
	Note           string          `json:"note,omitempty"`
	Tags           string          `json:"tags,omitempty"`
	Customer       *CustomerRef    `json:"customer,omitempty"`
}

// LineItem is one merchandise line of a quote or order.
type LineItem struct {
	ID        int64            `json:"id,omitempty"`
	VariantID int64            `json:"variant_id,omitempty"`
	Title     string           `json:"title,omitempty"`
	Quantity  int              `json:"quantity"`
	Price     *decimal.Decimal `json:"price,omitempty"`
}

// Address is a postal address.
type Address struct {
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Address1  string `json:"address1,omitempty"`
	Address2  string `json:"address2,omitempty"`
	City      string `json:"city,omitempty"`
	Province  string `json:"province,omitempty"`
	Country   string `json:"country,omitempty"`
	Zip       string `json:"zip,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

// ShippingLine is the shipping method and cost attached to a quote.
type ShippingLine struct {
	Title  string          `json:"title"`
	Price  decimal.Decimal `json:"price"`
	Custom bool            `json:"custom"`
}

// NoteAttribute is a free-form key/value pair stored on a quote or order.
type NoteAttribute struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// CustomerRef links a quote to an existing customer.
type CustomerRef struct {
	ID int64 `json:"id"`
}

// Customer is a shop customer.
type Customer struct {
	ID               int64     `json:"id,omitempty"`
	Email            string    `json:"email,omitempty"`
	FirstName        string    `json:"first_name,omitempty"`
	LastName         string    `json:"last_name,omitempty"`
	Phone            string    `json:"phone,omitempty"`
	Tags             string    `json:"tags,omitempty"`
	Note             string    `json:"note,omitempty"`
	Addresses        []Address `json:"addresses,omitempty"`
	VerifiedEmail    bool      `json:"verified_email,omitempty"`
	AcceptsMarketing bool      `json:"accepts_marketing,omitempty"`
}

// Order is a committed order.
type Order struct {
	ID                int64           `json:"id"`
	Name              string          `json:"name"`
	Email             string          `json:"email"`
	Currency          string          `json:"currency"`
	TotalPrice        decimal.Decimal `json:"total_price"`
	FinancialStatus   string          `json:"financial_status"`
	FulfillmentStatus string          `json:"fulfillment_status"`
	LineItems         []LineItem      `json:"line_items"`
	NoteAttributes    []NoteAttribute `json:"note_attributes"`
}

// Fulfillment requests shipment of fulfillment orders.
type Fulfillment struct {
	ID              int64                `json:"id,omitempty"`
	Status          string               `json:"status,omitempty"`
	NotifyCustomer  bool                 `json:"notify_customer"`
	TrackingInfo    *TrackingInfo        `json:"tracking_info,omitempty"`
	LineItemsByFO   []FulfillmentOrderID `json:"line_items_by_fulfillment_order,omitempty"`
	TrackingNumbers []string             `json:"tracking_numbers,omitempty"`
}

// FulfillmentOrderID selects a fulfillment order to fulfil.
type FulfillmentOrderID struct {
	FulfillmentOrderID int64 `json:"fulfillment_order_id"`
}

// TrackingInfo carries the carrier tracking reference.
type TrackingInfo struct {
	Number  string `json:"number,omitempty"`
	URL     string `json:"url,omitempty"`
	Company string `json:"company,omitempty"`
}

// Webhook is a platform event subscription.
type Webhook struct {
	ID      int64  `json:"id,omitempty"`
	Topic   string `json:"topic"`
	Address string `json:"address"`
	Format  string `json:"format,omitempty"`
}

// ParseVariantID accepts a numeric id or a global id such as
// "gid://shopify/ProductVariant/123".
func ParseVariantID(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if i := strings.LastIndexByte(raw, '/'); i >= 0 {
		raw = raw[i+1:]
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid variant id %q", raw)
	}
	return id, nil
}
