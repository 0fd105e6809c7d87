package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Repositories bundles the data access interfaces handed to a unit of work
// callback. Inside Execute they are all bound to the same transaction.
type Repositories struct {
	Products ProductRepository
	Carts    CartRepository
	Orders   OrderRepository
	Reviews  ReviewRepository
}

// NewRepositories builds the bundle over a database handle or transaction.
func NewRepositories(db DBTX) *Repositories {
	return &Repositories{
		Products: NewProductRepository(db),
		Carts:    NewCartRepository(db),
		Orders:   NewOrderRepository(db),
		Reviews:  NewReviewRepository(db),
	}
}

// UnitOfWork runs a function against transaction-bound repositories with
// all-or-nothing semantics. Cart mutations pair a line write with a stock
// ledger write, and order creation touches several products plus the cart
// plus the order; both must never persist partially.
type UnitOfWork interface {
	Execute(ctx context.Context, fn func(repos *Repositories) error) error
}

type sqlUnitOfWork struct {
	db *sql.DB
}

// NewUnitOfWork creates a UnitOfWork over a SQL database
func NewUnitOfWork(db *sql.DB) UnitOfWork {
	return &sqlUnitOfWork{db: db}
}

// Execute opens a transaction, runs fn with repositories bound to it, and
// commits. Any error from fn rolls back every write made inside it.
func (u *sqlUnitOfWork) Execute(ctx context.Context, fn func(repos *Repositories) error) error {
	tx, err := u.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(NewRepositories(tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
