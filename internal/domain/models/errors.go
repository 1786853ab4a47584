package models

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates a catalog entry, producer or producer-day is missing.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates a request was rejected before any write happened.
	ErrInvalidInput = errors.New("invalid input")

	// ErrDuplicateEntry indicates a producer-day already exists for the date.
	ErrDuplicateEntry = errors.New("production already exists for this producer and date")

	// ErrStoreFailure wraps errors raised by the record store.
	ErrStoreFailure = errors.New("record store failure")

	// ErrTogglePending indicates a selection toggle for the same product is still in flight.
	ErrTogglePending = errors.New("selection toggle already pending")

	// ErrCostInUse indicates a cost item is still referenced by a product recipe.
	ErrCostInUse = errors.New("cost is used by at least one product")
)

// ValidationError carries a human readable reason for a rejected input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Unwrap lets errors.Is match ErrInvalidInput.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// Invalid builds a ValidationError.
func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// StoreError marks err as a record store failure, keeping the original cause.
func StoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStoreFailure, err)
}
