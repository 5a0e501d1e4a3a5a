package validation

import (
	"fmt"
	"strings"
	"time"

	"ospanel/internal/models"
)

// ValidationError represents a structured validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors collects multiple field errors.
type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (ve *ValidationErrors) Add(field, message string) {
	ve.Errors = append(ve.Errors, ValidationError{Field: field, Message: message})
}

func (ve *ValidationErrors) HasErrors() bool {
	return len(ve.Errors) > 0
}

func (ve *ValidationErrors) Error() string {
	msgs := make([]string, len(ve.Errors))
	for i, e := range ve.Errors {
		msgs[i] = e.Field + ": " + e.Message
	}
	return strings.Join(msgs, "; ")
}

// RequireField checks a required string field is non-empty.
func RequireField(ve *ValidationErrors, field, value string) {
	if strings.TrimSpace(value) == "" {
		ve.Add(field, "is required")
	}
}

// ValidateEnum checks a field is one of allowed values.
func ValidateEnum(ve *ValidationErrors, field, value string, allowed []string) {
	if value == "" {
		return
	}
	for _, a := range allowed {
		if value == a {
			return
		}
	}
	ve.Add(field, fmt.Sprintf("must be one of: %s", strings.Join(allowed, ", ")))
}

// ValidateDate checks a field is a valid date (YYYY-MM-DD).
func ValidateDate(ve *ValidationErrors, field, value string) {
	if value == "" {
		return
	}
	_, err := time.Parse("2006-01-02", value)
	if err != nil {
		ve.Add(field, "must be a valid date (YYYY-MM-DD)")
	}
}

// ValidateNonNegativeFloat checks a field is >= 0.
func ValidateNonNegativeFloat(ve *ValidationErrors, field string, value float64) {
	if value < 0 {
		ve.Add(field, "must be non-negative")
	}
}

// ValidateNonNegativeInt checks a field is >= 0.
func ValidateNonNegativeInt(ve *ValidationErrors, field string, value int) {
	if value < 0 {
		ve.Add(field, "must be non-negative")
	}
}

// ValidateOrder checks an order submitted through the API form path.
// Spreadsheet imports bypass this; they normalize instead of rejecting.
func ValidateOrder(o *models.Order) *ValidationErrors {
	ve := &ValidationErrors{}
	RequireField(ve, "operation", o.Operation)
	RequireField(ve, "product", o.Product)
	ValidateEnum(ve, "status", o.Status, models.CanonicalStatuses)
	if o.CreatedOn != nil {
		ValidateDate(ve, "created_on", *o.CreatedOn)
	}
	ValidateNonNegativeFloat(ve, "gross_value", o.GrossValue)
	ValidateNonNegativeInt(ve, "quantity", o.Quantity)
	if ve.HasErrors() {
		return ve
	}
	return nil
}
