package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/domain"
	"storefront/internal/repository"

	"github.com/google/uuid"
)

// CartService defines the business logic for shopping cart operations.
//
// The cart is a pre-reserved view of stock: every unit in a cart line has
// already been taken off the product's stock counter, so two users cannot
// both believe they can buy the last unit. Consequently every mutation here
// pairs a line write with a ledger write, and the pair runs in one
// transaction.
type CartService interface {
	// GetCart returns the user's populated cart, creating it lazily.
	GetCart(ctx context.Context, userID uuid.UUID) (*domain.CartSummary, error)
	// AddItem puts qty more units of a product into the cart, merging with an
	// existing line for the same product.
	AddItem(ctx context.Context, userID, productID uuid.UUID, qty int) (*domain.CartSummary, error)
	// UpdateItem sets an existing line to newQty, reserving or releasing the
	// difference.
	UpdateItem(ctx context.Context, userID, productID uuid.UUID, newQty int) (*domain.CartSummary, error)
	// RemoveItem deletes a line and returns its full quantity to stock.
	RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*domain.CartSummary, error)
	// ClearCart removes every line and returns all reserved units to stock.
	ClearCart(ctx context.Context, userID uuid.UUID) (*domain.CartSummary, error)
}

type cartService struct {
	repos *repository.Repositories
	uow   repository.UnitOfWork
}

// NewCartService creates a new instance of CartService
func NewCartService(repos *repository.Repositories, uow repository.UnitOfWork) CartService {
	return &cartService{repos: repos, uow: uow}
}

// GetCart returns the user's cart with populated lines, creating an empty
// cart on first access.
func (s *cartService) GetCart(ctx context.Context, userID uuid.UUID) (*domain.CartSummary, error) {
	cart, err := s.getOrCreateCart(ctx, s.repos, userID)
	if err != nil {
		return nil, err
	}

	return s.summarize(ctx, s.repos, cart)
}

// AddItem adds qty units of a product to the cart. The requested increment is
// checked against the current stock counter, which already excludes this
// cart's earlier reservation, so the check is against remaining availability
// rather than the combined line quantity.
func (s *cartService) AddItem(ctx context.Context, userID, productID uuid.UUID, qty int) (*domain.CartSummary, error) {
	if qty < 1 {
		return nil, domain.ErrInvalidQuantity
	}

	var summary *domain.CartSummary
	err := s.uow.Execute(ctx, func(repos *repository.Repositories) error {
		cart, err := s.getOrCreateCart(ctx, repos, userID)
		if err != nil {
			return err
		}

		product, err := repos.Products.FindByID(ctx, productID)
		if err != nil {
			return err
		}

		newQty := qty
		existing, err := repos.Carts.GetItem(ctx, cart.ID, productID)
		switch {
		case err == nil:
			newQty = existing.Quantity + qty
		case errors.Is(err, domain.ErrCartItemNotFound):
			// first line for this product
		default:
			return err
		}

		item := &domain.CartItem{
			ID:        uuid.New(),
			CartID:    cart.ID,
			ProductID: product.ID,
			Quantity:  newQty,
		}
		if err := repos.Carts.UpsertItem(ctx, item); err != nil {
			return err
		}

		// Only the increment is reserved; the rest of the line was reserved
		// by earlier adds. ReserveStock fails the whole transaction when
		// fewer than qty units remain, undoing the upsert above.
		if err := repos.Products.ReserveStock(ctx, product.ID, qty); err != nil {
			return err
		}

		summary, err = s.summarize(ctx, repos, cart)
		return err
	})
	if err != nil {
		return nil, err
	}

	return summary, nil
}

// UpdateItem sets an existing cart line to newQty. Growth reserves the delta
// against the stock counter, shrinkage releases it.
func (s *cartService) UpdateItem(ctx context.Context, userID, productID uuid.UUID, newQty int) (*domain.CartSummary, error) {
	if newQty < 1 {
		return nil, domain.ErrInvalidQuantity
	}

	var summary *domain.CartSummary
	err := s.uow.Execute(ctx, func(repos *repository.Repositories) error {
		cart, err := repos.Carts.FindByUserID(ctx, userID)
		if err != nil {
			if errors.Is(err, domain.ErrCartNotFound) {
				return domain.ErrCartItemNotFound
			}
			return err
		}

		item, err := repos.Carts.GetItem(ctx, cart.ID, productID)
		if err != nil {
			return err
		}

		product, err := repos.Products.FindByID(ctx, productID)
		if err != nil {
			return err
		}

		delta := newQty - item.Quantity
		item.Quantity = newQty
		if err := repos.Carts.UpsertItem(ctx, item); err != nil {
			return err
		}

		switch {
		case delta > 0:
			if err := repos.Products.ReserveStock(ctx, product.ID, delta); err != nil {
				return err
			}
		case delta < 0:
			if err := repos.Products.ReleaseStock(ctx, product.ID, -delta); err != nil {
				return err
			}
		}

		summary, err = s.summarize(ctx, repos, cart)
		return err
	})
	if err != nil {
		return nil, err
	}

	return summary, nil
}

// RemoveItem deletes a cart line and returns its reserved units to stock.
// Removing an absent line fails with ErrCartItemNotFound and leaves the
// stock counter untouched.
func (s *cartService) RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*domain.CartSummary, error) {
	var summary *domain.CartSummary
	err := s.uow.Execute(ctx, func(repos *repository.Repositories) error {
		cart, err := repos.Carts.FindByUserID(ctx, userID)
		if err != nil {
			if errors.Is(err, domain.ErrCartNotFound) {
				return domain.ErrCartItemNotFound
			}
			return err
		}

		item, err := repos.Carts.GetItem(ctx, cart.ID, productID)
		if err != nil {
			return err
		}

		if err := repos.Products.ReleaseStock(ctx, productID, item.Quantity); err != nil {
			return err
		}

		if err := repos.Carts.DeleteItem(ctx, cart.ID, productID); err != nil {
			return err
		}

		summary, err = s.summarize(ctx, repos, cart)
		return err
	})
	if err != nil {
		return nil, err
	}

	return summary, nil
}

// ClearCart empties the cart and releases every line's reservation. Units
// abandoned in a cart go back on sale; the post-checkout emptying path lives
// in the order service and does not release, since those units belong to the
// order.
func (s *cartService) ClearCart(ctx context.Context, userID uuid.UUID) (*domain.CartSummary, error) {
	var summary *domain.CartSummary
	err := s.uow.Execute(ctx, func(repos *repository.Repositories) error {
		cart, err := s.getOrCreateCart(ctx, repos, userID)
		if err != nil {
			return err
		}

		lines, err := repos.Carts.ListLines(ctx, cart.ID)
		if err != nil {
			return err
		}

		for _, line := range lines {
			if err := repos.Products.ReleaseStock(ctx, line.ProductID, line.Quantity); err != nil {
				return err
			}
		}

		if err := repos.Carts.ClearItems(ctx, cart.ID); err != nil {
			return err
		}

		summary, err = s.summarize(ctx, repos, cart)
		return err
	})
	if err != nil {
		return nil, err
	}

	return summary, nil
}

func (s *cartService) getOrCreateCart(ctx context.Context, repos *repository.Repositories, userID uuid.UUID) (*domain.Cart, error) {
	cart, err := repos.Carts.FindByUserID(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, domain.ErrCartNotFound) {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	now := time.Now()
	cart = &domain.Cart{
		ID:        uuid.New(),
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := repos.Carts.Create(ctx, cart); err != nil {
		return nil, err
	}

	return cart, nil
}

func (s *cartService) summarize(ctx context.Context, repos *repository.Repositories, cart *domain.Cart) (*domain.CartSummary, error) {
	lines, err := repos.Carts.ListLines(ctx, cart.ID)
	if err != nil {
		return nil, err
	}

	var itemsPrice float64
	var itemCount int
	for _, line := range lines {
		itemsPrice += line.LineTotal
		itemCount += line.Quantity
	}

	return &domain.CartSummary{
		Cart:       *cart,
		Lines:      lines,
		ItemsPrice: itemsPrice,
		ItemCount:  itemCount,
	}, nil
}
