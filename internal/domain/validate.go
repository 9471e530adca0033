package domain

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

// PaymentRequest carries card details for finalizing an order. The details
// are only checked for presence and are never persisted.
type PaymentRequest struct {
	CardNumber      string `json:"cardNumber" validate:"notblank"`
	ExpirationMonth string `json:"expirationMonth" validate:"notblank"`
	ExpirationYear  string `json:"expirationYear" validate:"notblank"`
	SecurityCode    string `json:"securityCode" validate:"notblank"`
	CardOwner       string `json:"cardOwner" validate:"notblank"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(err)
	}
	// report json names so messages match what clients sent
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks the struct tags of v and flattens any field errors into a
// single readable error.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fmt.Sprintf("%s %s", fieldPath(fe.Namespace()), describeTag(fe.Tag())))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func fieldPath(namespace string) string {
	// drop the root struct name
	_, path, found := strings.Cut(namespace, ".")
	if !found {
		return namespace
	}
	return path
}

func describeTag(tag string) string {
	switch tag {
	case "notblank":
		return "must not be blank"
	case "required":
		return "is required"
	default:
		return "failed " + tag + " check"
	}
}
