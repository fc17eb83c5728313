/*
errors.go - Centralized error types for the ledger core

PURPOSE:
  All core error types in one place. Orchestrators return these unchanged;
  the API layer maps them to HTTP statuses with the helpers at the bottom.

ERROR CATEGORIES:
  1. Not-found - a referenced entity does not exist; never retried
  2. Validation - rejected before any write begins
  3. Conflict - the operation contradicts current state (stock shortfall)

USAGE:
  if errors.Is(err, ledger.ErrInsufficientStock) {
      var stockErr *ledger.InsufficientStockError
      errors.As(err, &stockErr) // item name and quantities for display
  }
*/
package ledger

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrCustomerNotFound is returned when a customer id does not resolve.
	ErrCustomerNotFound = errors.New("customer not found")

	// ErrOrderNotFound is returned when an order id does not resolve.
	ErrOrderNotFound = errors.New("order not found")

	// ErrItemNotFound is returned when an inventory id does not resolve.
	ErrItemNotFound = errors.New("inventory item not found")

	// ErrPaymentNotFound is returned when a payment id does not resolve.
	ErrPaymentNotFound = errors.New("payment not found")

	// ErrTaxNotFound is returned when a tax record id does not resolve.
	ErrTaxNotFound = errors.New("tax record not found")

	// ErrExpenseNotFound is returned when an expense id does not resolve.
	ErrExpenseNotFound = errors.New("expense not found")

	// ErrInsufficientStock is returned when a requested quantity exceeds
	// what is on hand. The order aborts entirely; there is no partial order.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrValidation is returned for inputs rejected before any write.
	ErrValidation = errors.New("validation failed")

	// ErrCustomerHasOrders is returned when deleting a customer that still
	// owns orders.
	ErrCustomerHasOrders = errors.New("customer has existing orders")

	// ErrDuplicateNumber is returned when an externally-visible number
	// (order, payment) collides within its period.
	ErrDuplicateNumber = errors.New("duplicate document number")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InsufficientStockError reports a stock shortfall with enough detail for
// operator display.
type InsufficientStockError struct {
	ItemID    ItemID
	ItemName  string
	Brand     string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s %s: available %d, requested %d",
		e.Brand, e.ItemName, e.Available, e.Requested)
}

func (e *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}

// ValidationError reports which input field failed validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound returns true if the error indicates a missing entity.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrCustomerNotFound) ||
		errors.Is(err, ErrOrderNotFound) ||
		errors.Is(err, ErrItemNotFound) ||
		errors.Is(err, ErrPaymentNotFound) ||
		errors.Is(err, ErrTaxNotFound) ||
		errors.Is(err, ErrExpenseNotFound)
}

// IsConflict returns true if the error contradicts current state and may
// succeed after that state changes.
func IsConflict(err error) bool {
	return errors.Is(err, ErrInsufficientStock) ||
		errors.Is(err, ErrCustomerHasOrders) ||
		errors.Is(err, ErrDuplicateNumber)
}

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation)
}
