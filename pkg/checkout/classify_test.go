package checkout_test

import (
	"testing"

	"github.com/amirasaad/storefront/pkg/checkout"
	"github.com/amirasaad/storefront/pkg/result"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		errs []result.Error
		kind checkout.ErrorKind
		msg  string
	}{
		{"credentials win over everything", []result.Error{
			{Message: "Variant not found"},
			{Code: result.CodeUnauthorized, Message: "invalid token"},
		}, checkout.KindConfiguration, checkout.MsgConfiguration},
		{"rate limited", []result.Error{{Code: result.CodeRateLimited, Message: "429"}}, checkout.KindRateLimit, checkout.MsgServiceBusy},
		{"upstream", []result.Error{{Code: result.CodeUpstream, Message: "bad gateway"}}, checkout.KindTransport, checkout.MsgServiceBusy},
		{"out of stock", []result.Error{{Field: "line_items", Message: "Only 1 left, insufficient quantity"}}, checkout.KindBusiness, checkout.MsgOutOfStock},
		{"missing variant", []result.Error{{Message: "gid://shopify/ProductVariant/9 does not exist"}}, checkout.KindBusiness, checkout.MsgVariantUnavailable},
		{"expired quote", []result.Error{{Message: "This order has already been completed"}}, checkout.KindBusiness, checkout.MsgQuoteExpired},
		{"address field", []result.Error{{Field: "shipping_address.zip", Message: "is invalid"}}, checkout.KindValidation, checkout.MsgInvalidAddress},
		{"unknown", []result.Error{{Message: "something odd"}}, checkout.KindBusiness, checkout.MsgGeneric},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := checkout.Classify(tt.errs)
			assert.Equal(t, tt.kind, got.Kind)
			assert.Equal(t, tt.msg, got.Message)
			for _, e := range tt.errs {
				assert.NotContains(t, got.Message, e.Message, "raw platform text leaked")
			}
		})
	}
}

func TestClassifyMessage(t *testing.T) {
	assert.Equal(t, checkout.MsgPaymentDeclined, checkout.ClassifyMessage("  card declined ").Message)
}

func TestShippingFormValidate(t *testing.T) {
	form := checkout.ShippingForm{
		Email:      " ada@example.com ",
		FirstName:  "Ada",
		LastName:   "Lovelace",
		Address1:   "1 Analytical Way",
		City:       "London",
		Country:    "GB",
		PostalCode: "N1 9GU",
	}
	assert.Nil(t, form.Validate())
	assert.Equal(t, "ada@example.com", form.Normalized().Email)

	form.Email = "ada"
	form.City = "   "
	fe := form.Validate()
	assert.Equal(t, checkout.FieldErrors{
		"email": "must be a valid email address",
		"city":  "is required",
	}, fe)
}

func TestCanTransition(t *testing.T) {
	assert.True(t, checkout.CanTransition(checkout.StateShippingForm, checkout.StateCreatingQuote))
	assert.True(t, checkout.CanTransition(checkout.StateError, checkout.StateShippingForm))
	assert.False(t, checkout.CanTransition(checkout.StateSuccess, checkout.StateShippingForm))
	assert.False(t, checkout.CanTransition(checkout.StateShippingForm, checkout.StateAwaitingPayment))
	assert.True(t, checkout.StateError.IsTerminal())
}

type otherEvent struct{}

func (otherEvent) Type() string { return checkout.EventTransition }

func TestAsTransition(t *testing.T) {
	ev := checkout.TransitionEvent{AttemptID: "a-1", To: checkout.StateError}

	got, ok := checkout.AsTransition(ev)
	assert.True(t, ok)
	assert.Equal(t, ev, got)

	got, ok = checkout.AsTransition(&ev)
	assert.True(t, ok)
	assert.Equal(t, ev, got)

	_, ok = checkout.AsTransition((*checkout.TransitionEvent)(nil))
	assert.False(t, ok)
	_, ok = checkout.AsTransition(otherEvent{})
	assert.False(t, ok)
}
