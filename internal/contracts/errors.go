package contracts

import (
	"errors"
	"fmt"
)

// Sentinel errors for conditions callers branch on with errors.Is.
var (
	// ErrUpstreamUnavailable signals the external predictor could not
	// produce usable output. Recovered inside the resolution engine,
	// never surfaced to API callers.
	ErrUpstreamUnavailable = errors.New("external predictor unavailable")

	// ErrNoData signals there is no historical basis for a trend
	// forecast. Distinct from a legitimate zero forecast.
	ErrNoData = errors.New("insufficient historical data")
)

// ValidationError reports a rejected input value
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NewValidationError creates a ValidationError
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// NotFoundError reports a missing medicine, district or formula
type NotFoundError struct {
	Resource string // "medicine", "district", "formula"
	Key      string
	Hint     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.Key)
}

// NewNotFoundError creates a NotFoundError
func NewNotFoundError(resource, key, hint string) *NotFoundError {
	return &NotFoundError{Resource: resource, Key: key, Hint: hint}
}

// InsufficientStockError reports a debit that would take stock negative.
// Available reflects the stock usable for this submission (current stock
// plus any prior quantity for the same natural key being replaced).
type InsufficientStockError struct {
	MedicineID int64
	Available  int64
	Required   int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock: available %d, required %d", e.Available, e.Required)
}

// IsValidation reports whether err is a ValidationError
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsNotFound reports whether err is a NotFoundError
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsInsufficientStock reports whether err is an InsufficientStockError
func IsInsufficientStock(err error) bool {
	var is *InsufficientStockError
	return errors.As(err, &is)
}
