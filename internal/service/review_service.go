package service

import (
	"context"
	"strings"
	"time"

	"storefront/internal/domain"
	"storefront/internal/repository"

	"github.com/google/uuid"
)

// ReviewService defines the business logic for product reviews and the
// derived rating aggregate. The aggregate is recomputed from the full review
// set on every mutation, in the same transaction as the review write, so it
// shares the per-product serialization of the stock ledger while touching a
// disjoint field set.
type ReviewService interface {
	// AddReview records a user's one allowed review of a product and
	// refreshes the product's rating and review count.
	AddReview(ctx context.Context, productID, userID uuid.UUID, rating int, comment string) (*domain.Review, error)
	// DeleteReview removes a review the requester owns (or any review for an
	// admin) and refreshes the aggregate, resetting it to the default when
	// the last review disappears.
	DeleteReview(ctx context.Context, reviewID, requesterID uuid.UUID, isAdmin bool) error
}

type reviewService struct {
	repos *repository.Repositories
	uow   repository.UnitOfWork
}

// NewReviewService creates a new instance of ReviewService
func NewReviewService(repos *repository.Repositories, uow repository.UnitOfWork) ReviewService {
	return &reviewService{repos: repos, uow: uow}
}

// AddReview inserts a review and recomputes the product aggregate
func (s *reviewService) AddReview(ctx context.Context, productID, userID uuid.UUID, rating int, comment string) (*domain.Review, error) {
	var fields []string
	if rating < 1 || rating > 5 {
		fields = append(fields, "rating")
	}
	if strings.TrimSpace(comment) == "" {
		fields = append(fields, "comment")
	}
	if len(fields) > 0 {
		return nil, &domain.ValidationError{Fields: fields}
	}

	var review *domain.Review
	err := s.uow.Execute(ctx, func(repos *repository.Repositories) error {
		if _, err := repos.Products.FindByID(ctx, productID); err != nil {
			return err
		}

		exists, err := repos.Reviews.ExistsForUserAndProduct(ctx, productID, userID)
		if err != nil {
			return err
		}
		if exists {
			return domain.ErrDuplicateReview
		}

		review = &domain.Review{
			ID:        uuid.New(),
			ProductID: productID,
			UserID:    userID,
			Rating:    rating,
			Comment:   comment,
			CreatedAt: time.Now(),
		}
		if err := repos.Reviews.Create(ctx, review); err != nil {
			return err
		}

		return s.refreshAggregate(ctx, repos, productID)
	})
	if err != nil {
		return nil, err
	}

	return review, nil
}

// DeleteReview removes a review and recomputes the product aggregate
func (s *reviewService) DeleteReview(ctx context.Context, reviewID, requesterID uuid.UUID, isAdmin bool) error {
	return s.uow.Execute(ctx, func(repos *repository.Repositories) error {
		review, err := repos.Reviews.FindByID(ctx, reviewID)
		if err != nil {
			return err
		}

		if review.UserID != requesterID && !isAdmin {
			return domain.ErrForbidden
		}

		if err := repos.Reviews.Delete(ctx, reviewID); err != nil {
			return err
		}

		return s.refreshAggregate(ctx, repos, review.ProductID)
	})
}

// refreshAggregate recomputes rating and count from the remaining reviews,
// falling back to the catalog default when none remain.
func (s *reviewService) refreshAggregate(ctx context.Context, repos *repository.Repositories, productID uuid.UUID) error {
	rating, count, err := repos.Reviews.AggregateForProduct(ctx, productID)
	if err != nil {
		return err
	}

	if count == 0 {
		rating = domain.DefaultRating
	}

	return repos.Products.UpdateRating(ctx, productID, rating, count)
}
