package checkout

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ShippingForm is the flat record the shopper submits.
type ShippingForm struct {
	Email      string `json:"email" validate:"required,email"`
	FirstName  string `json:"firstName" validate:"required"`
	LastName   string `json:"lastName" validate:"required"`
	Address1   string `json:"address1" validate:"required"`
	Address2   string `json:"address2"`
	City       string `json:"city" validate:"required"`
	Province   string `json:"province"`
	Country    string `json:"country" validate:"required"`
	PostalCode string `json:"postalCode" validate:"required"`
	Phone      string `json:"phone"`
}

// FieldErrors maps a form field name to its message.
type FieldErrors map[string]string

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Normalized trims every field.
func (f ShippingForm) Normalized() ShippingForm {
	return ShippingForm{
		Email:      strings.TrimSpace(f.Email),
		FirstName:  strings.TrimSpace(f.FirstName),
		LastName:   strings.TrimSpace(f.LastName),
		Address1:   strings.TrimSpace(f.Address1),
		Address2:   strings.TrimSpace(f.Address2),
		City:       strings.TrimSpace(f.City),
		Province:   strings.TrimSpace(f.Province),
		Country:    strings.TrimSpace(f.Country),
		PostalCode: strings.TrimSpace(f.PostalCode),
		Phone:      strings.TrimSpace(f.Phone),
	}
}

// Validate checks presence and email format locally. It returns nil when the
// form is complete.
func (f ShippingForm) Validate() FieldErrors {
	err := validate.Struct(f.Normalized())
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return FieldErrors{"form": err.Error()}
	}
	out := make(FieldErrors, len(verrs))
	for _, fe := range verrs {
		out[fe.Field()] = fieldMessage(fe)
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	default:
		return "is invalid"
	}
}
