package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Sentinel errors shared across repository, service and transport layers.
var (
	ErrProductNotFound  = errors.New("product not found")
	ErrCartNotFound     = errors.New("cart not found")
	ErrCartItemNotFound = errors.New("cart item not found")
	ErrOrderNotFound    = errors.New("order not found")
	ErrReviewNotFound   = errors.New("review not found")
	ErrEmptyCart        = errors.New("cart is empty")
	ErrInvalidQuantity  = errors.New("quantity must be at least 1")
	ErrDuplicateReview  = errors.New("user has already reviewed this product")
	ErrNoOpTransition   = errors.New("order already has the requested status")
	ErrAlreadyPaid      = errors.New("order is already paid")
	ErrForbidden        = errors.New("not allowed to perform this action")
)

// InsufficientStockError is returned when a reservation asks for more units
// than the product's stock counter holds.
type InsufficientStockError struct {
	ProductID uuid.UUID
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: %d available, %d requested",
		e.ProductID, e.Available, e.Requested)
}

// ValidationError reports the input fields that failed validation.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid or missing fields: %s", strings.Join(e.Fields, ", "))
}

// InvalidTransitionError is returned for a status change the order state
// machine does not allow.
type InvalidTransitionError struct {
	From OrderStatus
	To   OrderStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot transition order from %s to %s", e.From, e.To)
}

// PriceMismatchError is returned when an order's submitted total does not
// equal the sum of its price components within PriceTolerance.
type PriceMismatchError struct {
	Submitted float64
	Computed  float64
}

func (e *PriceMismatchError) Error() string {
	return fmt.Sprintf("total price %.2f does not match items + tax + shipping = %.2f",
		e.Submitted, e.Computed)
}
