package domain

import (
	"time"

	"github.com/google/uuid"
)

// DefaultRating is the rating a product carries before any review exists
// and after the last review is deleted.
const DefaultRating = 4.5

// Product represents a product in the catalog. Stock is the authoritative
// availability counter: it is decremented when a unit is reserved into a cart
// or committed to an order, and incremented when a reservation is released.
// Rating and ReviewCount are derived from the product's reviews.
type Product struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	Price       float64   `json:"price" db:"price"`
	ImageURL    string    `json:"image_url" db:"image_url"`
	Stock       int       `json:"stock" db:"stock"`
	Rating      float64   `json:"rating" db:"rating"`
	ReviewCount int       `json:"review_count" db:"review_count"`
	Discount    int       `json:"discount" db:"discount"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}
