package domain

import (
	"time"

	"github.com/google/uuid"
)

// Cart holds a user's pending line items. Each user owns at most one cart;
// it is created lazily on first use and emptied, never deleted, on checkout
// or explicit clear.
type Cart struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// CartItem is one (product, quantity) pair within a cart. A cart holds at
// most one item per product; repeated adds merge by summing quantity.
type CartItem struct {
	ID        uuid.UUID `json:"id" db:"id"`
	CartID    uuid.UUID `json:"cart_id" db:"cart_id"`
	ProductID uuid.UUID `json:"product_id" db:"product_id"`
	Quantity  int       `json:"quantity" db:"quantity"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// CartLine is a cart item joined with the product details needed to render it.
type CartLine struct {
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name"`
	UnitPrice float64   `json:"unit_price"`
	ImageURL  string    `json:"image_url"`
	Stock     int       `json:"stock"`
	Quantity  int       `json:"quantity"`
	LineTotal float64   `json:"line_total"`
}

// CartSummary aggregates a cart with its populated lines and totals.
type CartSummary struct {
	Cart       Cart       `json:"cart"`
	Lines      []CartLine `json:"lines"`
	ItemsPrice float64    `json:"items_price"`
	ItemCount  int        `json:"item_count"`
}
