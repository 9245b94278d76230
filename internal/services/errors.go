package services

import (
	"errors"
	"fmt"

	"oms/internal/models"
)

// ErrConflict signals a lost lock or serialization race. The whole workflow
// may be retried; no partial state was committed.
var ErrConflict = errors.New("concurrent update conflict, retry the request")

// ValidationError is malformed input rejected before any mutation.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// NotFoundError is a missing order, product, or user reference.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// InsufficientStockError names the offending product and the shortfall.
// Nothing was mutated: the creating transaction rolled back in full.
type InsufficientStockError struct {
	ProductID   string
	ProductName string
	Requested   int
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s (requested: %d, available: %d)",
		e.ProductName, e.Requested, e.Available)
}

// IllegalTransitionError is a status move the state machine does not allow.
type IllegalTransitionError struct {
	From models.OrderStatus
	To   models.OrderStatus
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("illegal status transition from %s to %s", e.From, e.To)
}
