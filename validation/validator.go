// Package validation provides input validation utilities.
package validation

import (
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/autorent/autorent-platform/pkg/errors"
)

var (
	validate *validator.Validate
	once     sync.Once
)

// GetValidator returns the singleton validator instance.
func GetValidator() *validator.Validate {
	once.Do(func() {
		validate = validator.New()

		// Use JSON tag names for error messages
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})

		registerCustomValidations(validate)
	})

	return validate
}

func registerCustomValidations(v *validator.Validate) {
	v.RegisterValidation("transmission", validateTransmission)
	v.RegisterValidation("category", validateCategory)
	v.RegisterValidation("payment_method", validatePaymentMethod)
	v.RegisterValidation("booking_status", validateBookingStatus)
	v.RegisterValidation("storage_backend", validateStorageBackend)
}

// Transmission codes used by the car-data API.
func validateTransmission(fl validator.FieldLevel) bool {
	switch strings.ToLower(fl.Field().String()) {
	case "a", "m":
		return true
	}
	return false
}

// Categories. Kept as strings so this package stays below vehicle in the import graph.
var validCategories = map[string]bool{
	"SUV":   true,
	"Sport": true,
	"Sedan": true,
}

func validateCategory(fl validator.FieldLevel) bool {
	return validCategories[fl.Field().String()]
}

var validPaymentMethods = map[string]bool{
	"card": true,
	"cash": true,
}

func validatePaymentMethod(fl validator.FieldLevel) bool {
	return validPaymentMethods[fl.Field().String()]
}

var validBookingStatuses = map[string]bool{
	"confirmed":   true,
	"in progress": true,
	"completed":   true,
	"closed":      true,
	"cancelled":   true,
}

func validateBookingStatus(fl validator.FieldLevel) bool {
	return validBookingStatuses[fl.Field().String()]
}

var validStorageBackends = map[string]bool{
	"memory":    true,
	"file":      true,
	"redis":     true,
	"sqlserver": true,
	"postgres":  true,
	"cosmos":    true,
	"blob":      true,
}

func validateStorageBackend(fl validator.FieldLevel) bool {
	return validStorageBackends[fl.Field().String()]
}

// Validate validates a struct and returns validation errors.
func Validate(s interface{}) error {
	return GetValidator().Struct(s)
}

// ValidateVar validates a single variable.
func ValidateVar(field interface{}, tag string) error {
	return GetValidator().Var(field, tag)
}

// ValidationError represents a single validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return ""
	}
	var sb strings.Builder
	for i, e := range ve {
		if i > 0 {
			sb.WriteString("; ")
		}
		sb.WriteString(e.Field)
		sb.WriteString(": ")
		sb.WriteString(e.Message)
	}
	return sb.String()
}

// ParseValidationErrors converts validator.ValidationErrors to our format.
func ParseValidationErrors(err error) ValidationErrors {
	if err == nil {
		return nil
	}

	var validationErrors ValidationErrors

	if ve, ok := err.(validator.ValidationErrors); ok {
		for _, e := range ve {
			validationErrors = append(validationErrors, ValidationError{
				Field:   e.Field(),
				Message: getErrorMessage(e),
			})
		}
	}

	return validationErrors
}

// ToAppError validates s and converts any failure into a VALIDATION_ERROR with per-field details.
func ToAppError(s interface{}, message string) error {
	err := Validate(s)
	if err == nil {
		return nil
	}

	parsed := ParseValidationErrors(err)
	if len(parsed) == 0 {
		return apperrors.Wrap(err, apperrors.CodeValidation, message)
	}

	details := make(map[string]string, len(parsed))
	for _, e := range parsed {
		details[e.Field] = e.Message
	}
	return apperrors.ValidationWithDetails(message, details)
}

func getErrorMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required", "required_if":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + e.Param()
	case "max":
		return "must be at most " + e.Param()
	case "transmission":
		return "must be a or m"
	case "category":
		return "must be one of: SUV, Sport, Sedan"
	case "payment_method":
		return "must be one of: card, cash"
	case "booking_status":
		return "must be a valid booking status"
	case "storage_backend":
		return "must be one of: memory, file, redis, sqlserver, postgres, cosmos, blob"
	case "oneof":
		return "must be one of: " + e.Param()
	case "url":
		return "must be a valid URL"
	case "gt":
		return "must be greater than " + e.Param()
	case "gte":
		return "must be greater than or equal to " + e.Param()
	case "lte":
		return "must be less than or equal to " + e.Param()
	default:
		return "is invalid"
	}
}
