/*
errors.go - Error types for the point-of-sale core

ERROR CATEGORIES:
  1. Validation - malformed or missing request fields (no state change)
  2. Not found - a referenced id is absent
  3. Conflict - not enough stock; the whole order is rolled back
  4. Infrastructure - anything else, wrapped with %w by the store

The HTTP layer classifies with IsClientError / IsNotFound and never
inspects message text.
*/
package pos

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation is returned for malformed input.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned when a referenced row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInsufficientInventory is returned when an ingredient cannot cover an order.
	ErrInsufficientInventory = errors.New("insufficient inventory")

	// ErrEmptyOrder is returned when an order carries no items.
	ErrEmptyOrder = fmt.Errorf("%w: items must be a non-empty list", ErrValidation)
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// ValidationError names the offending field.
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

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// InsufficientInventoryError reports a stock shortfall for one ingredient.
type InsufficientInventoryError struct {
	ItemID    int64
	ItemName  string
	Available int64
	Needed    int64
}

func (e *InsufficientInventoryError) Error() string {
	return fmt.Sprintf("Insufficient inventory for %s. Available: %d, Needed: %d",
		e.ItemName, e.Available, e.Needed)
}

func (e *InsufficientInventoryError) Unwrap() error {
	return ErrInsufficientInventory
}

// MissingInventoryError is returned when a recipe references an ingredient
// that has no inventory row.
type MissingInventoryError struct {
	ItemID    int64
	ProductID int64
}

func (e *MissingInventoryError) Error() string {
	return fmt.Sprintf("Inventory item %d not found (required by product %d)", e.ItemID, e.ProductID)
}

func (e *MissingInventoryError) Unwrap() error {
	return ErrNotFound
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to the request, not the store.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInsufficientInventory)
}

// IsNotFound returns true if the error indicates a missing row.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
