package services

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidSignature   = errors.New("invalid signature")
	ErrPaymentNotCaptured = errors.New("payment not captured")
	ErrPaymentMismatch    = errors.New("payment does not match order")
	ErrProviderDisabled   = errors.New("payment provider not configured")
	ErrSetupDisabled      = errors.New("admin setup is disabled")
	ErrInvalidSetupToken  = errors.New("invalid setup token")
	ErrSetupClosed        = errors.New("an admin already exists")
	ErrStorageDisabled    = errors.New("object storage not configured")
)

// ValidationError reports a rejected input field. Handlers answer it with 400.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// newValidator returns a validator that reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validationError converts the first validator failure into a ValidationError.
func validationError(err error) error {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return err
	}
	fe := errs[0]
	switch fe.ActualTag() {
	case "required":
		return invalid(fe.Field(), "is required")
	case "email":
		return invalid(fe.Field(), "must be a valid email address")
	case "min":
		return invalid(fe.Field(), "must be at least "+fe.Param()+" characters")
	case "max":
		return invalid(fe.Field(), "must be at most "+fe.Param()+" characters")
	default:
		return invalid(fe.Field(), "is not valid")
	}
}
