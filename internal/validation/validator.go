// Package validation validates typed form structs with go-playground/validator
// and translates failures into the inline messages shown next to form fields.
//
// Field names in errors come from the `form` struct tag, so a handler can key
// messages by the same name the HTML input uses:
//
//	type loginForm struct {
//	    Username string `form:"username" validate:"required"`
//	}
//
//	if verr := validation.ValidateStruct(&f); verr != nil {
//	    errs := verr.FieldErrors() // map["username"] = "This field is required."
//	}
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/pkordes/dive-logbook/internal/domain"
)

// singleton validator instance
var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// ValidationError is a single failed rule on a single field.
type ValidationError struct {
	field   string
	tag     string
	message string
}

// Field returns the form name of the field that failed validation.
func (e *ValidationError) Field() string {
	return e.field
}

// Tag returns the validation tag that failed.
func (e *ValidationError) Tag() string {
	return e.tag
}

// Message returns the text rendered next to the field.
func (e *ValidationError) Message() string {
	return e.message
}

// RequestValidationError collects every field failure of one struct.
type RequestValidationError struct {
	errors []ValidationError
}

// Errors returns the slice of validation errors.
func (ve *RequestValidationError) Errors() []ValidationError {
	return ve.errors
}

// Error implements the error interface, returning a combined error message.
func (ve *RequestValidationError) Error() string {
	if len(ve.errors) == 0 {
		return "validation failed"
	}

	messages := make([]string, 0, len(ve.errors))
	for _, err := range ve.errors {
		messages = append(messages, fmt.Sprintf("%s: %s", err.field, err.message))
	}
	return strings.Join(messages, "; ")
}

// FieldErrors returns the first message for each failing field, keyed by form name.
func (ve *RequestValidationError) FieldErrors() map[string]string {
	out := make(map[string]string, len(ve.errors))
	for _, err := range ve.errors {
		if _, seen := out[err.field]; !seen {
			out[err.field] = err.message
		}
	}
	return out
}

// GetValidator returns the singleton validator instance.
// This function is thread-safe.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("form"), ",")
			if name == "" || name == "-" {
				return f.Name
			}
			return name
		})

		// rating: journal entry star rating, inclusive bounds from domain.
		_ = validate.RegisterValidation("rating", func(fl validator.FieldLevel) bool {
			v := fl.Field().Int()
			return v >= domain.MinRating && v <= domain.MaxRating
		})
	})

	return validate
}

// ValidateStruct validates a struct using the singleton validator.
// Returns nil if validation passes, or *RequestValidationError if validation fails.
func ValidateStruct(s any) *RequestValidationError {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return &RequestValidationError{
			errors: []ValidationError{{field: "unknown", tag: "unknown", message: err.Error()}},
		}
	}

	fieldErrors := make([]ValidationError, len(validationErrs))
	for i, fieldErr := range validationErrs {
		fieldErrors[i] = ValidationError{
			field:   fieldErr.Field(),
			tag:     fieldErr.Tag(),
			message: translateError(fieldErr),
		}
	}
	return &RequestValidationError{errors: fieldErrors}
}

// Messages shown to users. The wording matches what the forms have always shown.
const (
	MsgRequired    = "This field is required."
	MsgEmail       = "Invalid email address."
	MsgInteger     = "Not a valid integer value."
	MsgCSRFInvalid = "The CSRF token is invalid."
)

var errorMessageTemplates = map[string]string{
	"required": MsgRequired,
	"email":    MsgEmail,
}

// translateError converts a validator.FieldError to the message shown in the form.
func translateError(fe validator.FieldError) string {
	if msg, ok := errorMessageTemplates[fe.Tag()]; ok {
		return msg
	}

	switch fe.Tag() {
	case "rating":
		return fmt.Sprintf("Number must be between %d and %d.", domain.MinRating, domain.MaxRating)
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Field must be at least %s characters long.", fe.Param())
		}
		return fmt.Sprintf("Number must be at least %s.", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Field cannot be longer than %s characters.", fe.Param())
		}
		return fmt.Sprintf("Number must be at most %s.", fe.Param())
	default:
		return fmt.Sprintf("Invalid value (%s).", fe.Tag())
	}
}
