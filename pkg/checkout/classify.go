package checkout

import (
	"regexp"
	"strings"

	"github.com/amirasaad/storefront/pkg/result"
)

// ErrorKind is the taxonomy a failure is sorted into.
type ErrorKind string

const (
	KindTransport     ErrorKind = "transport"
	KindRateLimit     ErrorKind = "rate_limit"
	KindValidation    ErrorKind = "validation"
	KindBusiness      ErrorKind = "business"
	KindConfiguration ErrorKind = "configuration"
)

// Messages shown to the shopper. Raw platform text never reaches the shopper.
const (
	MsgVariantUnavailable = "the selected variant is no longer available"
	MsgOutOfStock         = "some items in your cart are out of stock"
	MsgQuoteExpired       = "your checkout has expired, please try again"
	MsgInvalidAddress     = "please check your shipping address"
	MsgPaymentDeclined    = "your payment was declined"
	MsgServiceBusy        = "the store is busy right now, please try again in a moment"
	MsgConfiguration      = "checkout is temporarily unavailable"
	MsgGeneric            = "something went wrong, please try again"
)

// UserError is a classified failure safe to show to the shopper.
type UserError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

func (e *UserError) Error() string { return e.Message }

var patterns = []struct {
	re   *regexp.Regexp
	kind ErrorKind
	msg  string
}{
	{regexp.MustCompile(`(?i)out of stock|sold out|inventory|insufficient quantity|not enough`), KindBusiness, MsgOutOfStock},
	{regexp.MustCompile(`(?i)variant|merchandise|gid://|product.*(not found|does not exist|unavailable)`), KindBusiness, MsgVariantUnavailable},
	{regexp.MustCompile(`(?i)expired|already (been )?completed|no longer open|is not open`), KindBusiness, MsgQuoteExpired},
	{regexp.MustCompile(`(?i)declin|card|payment.*(fail|refus|reject)`), KindBusiness, MsgPaymentDeclined},
	{regexp.MustCompile(`(?i)address|zip|postal|province|country|city`), KindValidation, MsgInvalidAddress},
}

// Classify maps platform errors to one fixed shopper message.
func Classify(errs []result.Error) *UserError {
	for _, e := range errs {
		switch e.Code {
		case result.CodeUnauthorized, result.CodeForbidden, result.CodeConfiguration:
			return &UserError{Kind: KindConfiguration, Message: MsgConfiguration}
		}
	}

	for _, e := range errs {
		switch e.Code {
		case result.CodeRateLimited:
			return &UserError{Kind: KindRateLimit, Message: MsgServiceBusy}
		case result.CodeTransport, result.CodeUpstream:
			return &UserError{Kind: KindTransport, Message: MsgServiceBusy}
		}
	}

	for _, p := range patterns {
		for _, e := range errs {
			if p.re.MatchString(e.Field + " " + e.Message) {
				return &UserError{Kind: p.kind, Message: p.msg}
			}
		}
	}
	return &UserError{Kind: KindBusiness, Message: MsgGeneric}
}

// ClassifyMessage classifies a single free-form error string.
func ClassifyMessage(msg string) *UserError {
	return Classify([]result.Error{{Message: strings.TrimSpace(msg)}})
}
