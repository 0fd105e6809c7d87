package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"storefront/internal/domain"
	"storefront/internal/repository"

	"github.com/google/uuid"
)

// OrderService defines the business logic for order assembly and lifecycle.
type OrderService interface {
	// CreateOrder converts the requested items into an immutable order,
	// re-validating and decrementing stock for every line atomically, then
	// empties the user's cart.
	CreateOrder(ctx context.Context, userID uuid.UUID, input domain.OrderInput) (*domain.Order, error)
	// GetOrder returns an order visible to the requester (owner or admin).
	GetOrder(ctx context.Context, orderID, requesterID uuid.UUID, isAdmin bool) (*domain.Order, error)
	// ListUserOrders returns the user's orders, newest first.
	ListUserOrders(ctx context.Context, userID uuid.UUID) ([]domain.Order, error)
	// UpdateStatus advances the order state machine. Cancelling restocks
	// every line; delivering stamps the delivery flags.
	UpdateStatus(ctx context.Context, orderID uuid.UUID, next domain.OrderStatus) (*domain.Order, error)
	// MarkPaid records payment exactly once.
	MarkPaid(ctx context.Context, orderID uuid.UUID) (*domain.Order, error)
}

type orderService struct {
	repos *repository.Repositories
	uow   repository.UnitOfWork
}

// NewOrderService creates a new instance of OrderService
func NewOrderService(repos *repository.Repositories, uow repository.UnitOfWork) OrderService {
	return &orderService{repos: repos, uow: uow}
}

// CreateOrder performs checkout. Validation and the empty-cart check run
// before the transaction and have no side effects; everything from the first
// stock decrement to the cart emptying commits or rolls back as one unit, so
// a failure on the last line of a multi-line order leaves no trace of the
// earlier lines.
//
// Stock is decremented here against the authoritative counter for every
// requested line, independent of what the cart believed it had reserved.
// That re-validation protects against drift between cart contents and the
// submitted item list.
func (s *orderService) CreateOrder(ctx context.Context, userID uuid.UUID, input domain.OrderInput) (*domain.Order, error) {
	if err := validateOrderInput(input); err != nil {
		return nil, err
	}

	cart, err := s.repos.Carts.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrCartNotFound) {
			return nil, domain.ErrEmptyCart
		}
		return nil, err
	}
	lines, err := s.repos.Carts.ListLines(ctx, cart.ID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, domain.ErrEmptyCart
	}

	var order *domain.Order
	err = s.uow.Execute(ctx, func(repos *repository.Repositories) error {
		orderID := uuid.New()
		items := make([]domain.OrderItem, 0, len(input.Items))

		for _, line := range input.Items {
			product, err := repos.Products.FindByID(ctx, line.ProductID)
			if err != nil {
				if errors.Is(err, domain.ErrProductNotFound) {
					return fmt.Errorf("%w: %s", domain.ErrProductNotFound, line.ProductID)
				}
				return err
			}

			if err := repos.Products.ReserveStock(ctx, product.ID, line.Quantity); err != nil {
				return err
			}

			// Snapshot name, price and image now so later product edits
			// cannot rewrite order history.
			items = append(items, domain.OrderItem{
				ID:        uuid.New(),
				OrderID:   orderID,
				ProductID: product.ID,
				Name:      product.Name,
				Quantity:  line.Quantity,
				UnitPrice: product.Price,
				ImageURL:  product.ImageURL,
			})
		}

		computed := input.ItemsPrice + input.TaxPrice + input.ShippingPrice
		if math.Abs(input.TotalPrice-computed) > domain.PriceTolerance {
			return &domain.PriceMismatchError{Submitted: input.TotalPrice, Computed: computed}
		}

		now := time.Now()
		order = &domain.Order{
			ID:              orderID,
			UserID:          userID,
			CustomerName:    input.CustomerName,
			ShippingAddress: input.ShippingAddress,
			PaymentMethod:   input.PaymentMethod,
			Items:           items,
			ItemsPrice:      input.ItemsPrice,
			TaxPrice:        input.TaxPrice,
			ShippingPrice:   input.ShippingPrice,
			TotalPrice:      input.TotalPrice,
			Status:          domain.OrderStatusPending,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := repos.Orders.Create(ctx, order); err != nil {
			return err
		}

		// The order now owns the units it decremented. The lines are
		// re-read inside the transaction because the cart may have grown
		// since the pre-transaction check; any quantity beyond what the
		// order covers still holds a reservation and must go back on sale
		// before the lines are deleted.
		submitted := make(map[uuid.UUID]int, len(input.Items))
		for _, line := range input.Items {
			submitted[line.ProductID] += line.Quantity
		}
		current, err := repos.Carts.ListLines(ctx, cart.ID)
		if err != nil {
			return err
		}
		for _, line := range current {
			excess := line.Quantity - submitted[line.ProductID]
			if excess > 0 {
				if err := repos.Products.ReleaseStock(ctx, line.ProductID, excess); err != nil {
					return err
				}
			}
		}

		return repos.Carts.ClearItems(ctx, cart.ID)
	})
	if err != nil {
		return nil, err
	}

	return order, nil
}

// GetOrder retrieves an order if the requester owns it or is an admin
func (s *orderService) GetOrder(ctx context.Context, orderID, requesterID uuid.UUID, isAdmin bool) (*domain.Order, error) {
	order, err := s.repos.Orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if order.UserID != requesterID && !isAdmin {
		return nil, domain.ErrForbidden
	}

	return order, nil
}

// ListUserOrders retrieves the user's orders
func (s *orderService) ListUserOrders(ctx context.Context, userID uuid.UUID) ([]domain.Order, error) {
	return s.repos.Orders.ListByUserID(ctx, userID)
}

// UpdateStatus advances the order through its state machine. A repeated
// status is rejected rather than silently accepted, and cancellation returns
// every line's units to stock in the same transaction as the status write.
func (s *orderService) UpdateStatus(ctx context.Context, orderID uuid.UUID, next domain.OrderStatus) (*domain.Order, error) {
	if !next.Valid() {
		return nil, &domain.ValidationError{Fields: []string{"status"}}
	}

	var order *domain.Order
	err := s.uow.Execute(ctx, func(repos *repository.Repositories) error {
		var err error
		order, err = repos.Orders.FindByID(ctx, orderID)
		if err != nil {
			return err
		}

		if order.Status == next {
			return domain.ErrNoOpTransition
		}
		if !order.Status.CanTransitionTo(next) {
			return &domain.InvalidTransitionError{From: order.Status, To: next}
		}

		switch next {
		case domain.OrderStatusDelivered:
			now := time.Now()
			order.IsDelivered = true
			order.DeliveredAt = &now
		case domain.OrderStatusCancelled:
			for _, item := range order.Items {
				if err := repos.Products.ReleaseStock(ctx, item.ProductID, item.Quantity); err != nil {
					return err
				}
			}
		}

		order.Status = next
		return repos.Orders.UpdateState(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	return order, nil
}

// MarkPaid stamps the payment flag once
func (s *orderService) MarkPaid(ctx context.Context, orderID uuid.UUID) (*domain.Order, error) {
	var order *domain.Order
	err := s.uow.Execute(ctx, func(repos *repository.Repositories) error {
		var err error
		order, err = repos.Orders.FindByID(ctx, orderID)
		if err != nil {
			return err
		}

		if order.IsPaid {
			return domain.ErrAlreadyPaid
		}

		now := time.Now()
		order.IsPaid = true
		order.PaidAt = &now
		return repos.Orders.UpdateState(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	return order, nil
}

func validateOrderInput(input domain.OrderInput) error {
	var missing []string

	if strings.TrimSpace(input.CustomerName) == "" {
		missing = append(missing, "customer_name")
	}
	if strings.TrimSpace(input.ShippingAddress) == "" {
		missing = append(missing, "shipping_address")
	}
	if !input.PaymentMethod.Valid() {
		missing = append(missing, "payment_method")
	}
	if len(input.Items) == 0 {
		missing = append(missing, "items")
	}
	for _, item := range input.Items {
		if item.Quantity < 1 {
			missing = append(missing, "items.quantity")
			break
		}
	}

	if len(missing) > 0 {
		return &domain.ValidationError{Fields: missing}
	}

	return nil
}
