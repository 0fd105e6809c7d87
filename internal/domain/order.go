package domain

import (
	"time"

	"github.com/google/uuid"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// orderTransitions encodes the allowed forward transitions. Cancelled is
// reachable from every non-terminal state; delivered and cancelled are
// terminal.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:    {OrderStatusDelivered, OrderStatusCancelled},
	OrderStatusDelivered:  {},
	OrderStatusCancelled:  {},
}

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool {
	_, ok := orderTransitions[s]
	return ok
}

// Terminal reports whether no further transition is allowed from s.
func (s OrderStatus) Terminal() bool {
	return len(orderTransitions[s]) == 0
}

// CanTransitionTo reports whether moving from s to next is allowed.
// A transition to the same status is never allowed.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// PaymentMethod identifies how an order is paid.
type PaymentMethod string

const (
	PaymentMethodCreditCard     PaymentMethod = "credit_card"
	PaymentMethodDebitCard      PaymentMethod = "debit_card"
	PaymentMethodPaypal         PaymentMethod = "paypal"
	PaymentMethodCashOnDelivery PaymentMethod = "cash_on_delivery"
)

// Valid reports whether m is a supported payment method.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCreditCard, PaymentMethodDebitCard, PaymentMethodPaypal, PaymentMethodCashOnDelivery:
		return true
	}
	return false
}

// PriceTolerance is the maximum accepted drift between the submitted total
// and the sum of its parts.
const PriceTolerance = 0.01

// Order is an immutable record of a checkout. Its line items are a frozen
// snapshot of the purchased products; only status and the payment/delivery
// flags change after creation.
type Order struct {
	ID              uuid.UUID     `json:"id" db:"id"`
	UserID          uuid.UUID     `json:"user_id" db:"user_id"`
	CustomerName    string        `json:"customer_name" db:"customer_name"`
	ShippingAddress string        `json:"shipping_address" db:"shipping_address"`
	PaymentMethod   PaymentMethod `json:"payment_method" db:"payment_method"`
	Items           []OrderItem   `json:"items"`
	ItemsPrice      float64       `json:"items_price" db:"items_price"`
	TaxPrice        float64       `json:"tax_price" db:"tax_price"`
	ShippingPrice   float64       `json:"shipping_price" db:"shipping_price"`
	TotalPrice      float64       `json:"total_price" db:"total_price"`
	Status          OrderStatus   `json:"status" db:"status"`
	IsPaid          bool          `json:"is_paid" db:"is_paid"`
	PaidAt          *time.Time    `json:"paid_at,omitempty" db:"paid_at"`
	IsDelivered     bool          `json:"is_delivered" db:"is_delivered"`
	DeliveredAt     *time.Time    `json:"delivered_at,omitempty" db:"delivered_at"`
	CreatedAt       time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at" db:"updated_at"`
}

// OrderItem is a purchased line with the product name, price and image
// copied at order time, so later product edits never change order history.
type OrderItem struct {
	ID        uuid.UUID `json:"id" db:"id"`
	OrderID   uuid.UUID `json:"order_id" db:"order_id"`
	ProductID uuid.UUID `json:"product_id" db:"product_id"`
	Name      string    `json:"name" db:"name"`
	Quantity  int       `json:"quantity" db:"quantity"`
	UnitPrice float64   `json:"unit_price" db:"unit_price"`
	ImageURL  string    `json:"image_url" db:"image_url"`
}

// OrderItemInput is one requested line of a checkout.
type OrderItemInput struct {
	ProductID uuid.UUID
	Quantity  int
}

// OrderInput carries everything a caller submits to create an order.
type OrderInput struct {
	CustomerName    string
	ShippingAddress string
	PaymentMethod   PaymentMethod
	Items           []OrderItemInput
	ItemsPrice      float64
	TaxPrice        float64
	ShippingPrice   float64
	TotalPrice      float64
}
