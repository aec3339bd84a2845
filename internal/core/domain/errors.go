package domain

import (
	"errors"
	"fmt"
)

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrCustomerNotFound = errors.New("customer not found")
	ErrBillNotFound     = errors.New("bill not found")
	ErrEmptyCart        = errors.New("empty cart")

	// ErrCartClosed is returned when an operation is attempted on a cart that
	// has already been committed or aborted.
	ErrCartClosed = errors.New("cart is no longer open")
)

// ValidationError reports malformed caller input (non-positive quantity,
// unparseable price, missing name). Recoverable: the caller corrects and
// resubmits.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// InsufficientStockError reports a quantity exceeding available stock,
// carrying the available amount so the caller can retry with less.
type InsufficientStockError struct {
	ProductID string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}
