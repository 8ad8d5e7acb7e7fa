// Package repositories holds the MongoDB persistence layer.
//
// Every mutation of shared state (product stock, cart documents) goes
// through a conditional atomic update on the store side, never a plain
// read-then-write. These conditions are the system's only mutual-exclusion
// primitive.
package repositories

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/lopataa/schoolshop/app/models"
)

var (
	// ErrNotFound is returned when the referenced document does not exist.
	ErrNotFound = errors.New("repositories: not found")

	// ErrInsufficientStock is returned by ReserveStock when the product
	// exists but holds fewer units than requested.
	ErrInsufficientStock = errors.New("repositories: insufficient stock")

	// ErrConflict is returned by optimistic saves that lost a concurrent
	// write race. The ledger delta applied before the save must be undone.
	ErrConflict = errors.New("repositories: concurrent write conflict")
)

// ProductStore is the catalogue plus the stock ledger.
type ProductStore interface {
	Create(ctx context.Context, product *models.Product) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	FindAll(ctx context.Context, filter ProductFilter) ([]models.Product, error)
	Update(ctx context.Context, id primitive.ObjectID, update ProductUpdate) (*models.Product, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	Exists(ctx context.Context, id primitive.ObjectID) (bool, error)

	// ReserveStock atomically decrements stock by qty only if the current
	// stock is at least qty. qty <= 0 is a no-op success. Returns
	// ErrNotFound or ErrInsufficientStock; no side effect on failure.
	ReserveStock(ctx context.Context, id primitive.ObjectID, qty int) error

	// ReleaseStock unconditionally increments stock by qty (no-op when
	// qty <= 0). Missing products are tolerated: release is the rollback
	// half of a reservation and must not block its caller.
	ReleaseStock(ctx context.Context, id primitive.ObjectID, qty int) error
}

// ProductFilter narrows FindAll results.
type ProductFilter struct {
	Category string // "" or "all" matches everything
	Search   string // case-insensitive substring match on name
}

// ProductUpdate carries the mutable catalogue fields; nil means unchanged.
type ProductUpdate struct {
	Name        *string
	Description *string
	Price       *float64
	Category    *string
	Stock       *int
	Images      []string
}

// CartStore persists ephemeral carts.
type CartStore interface {
	Create(ctx context.Context, cart *models.Cart) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Cart, error)

	// Save replaces the cart document, conditioned on the version the
	// caller loaded. Returns ErrConflict when a concurrent writer got
	// there first, ErrNotFound when the document is gone.
	Save(ctx context.Context, cart *models.Cart) error

	Delete(ctx context.Context, id primitive.ObjectID) error

	// DeleteIfExpired atomically deletes the cart only if it is still
	// expired at now, returning the removed document. (nil, nil) means
	// another caller already removed or refreshed it; only the caller
	// that receives the document may release its stock.
	DeleteIfExpired(ctx context.Context, id primitive.ObjectID, now time.Time) (*models.Cart, error)

	// DeleteOneExpired removes any one expired cart, returning it, or
	// (nil, nil) when none remain. Used by the sweep loop.
	DeleteOneExpired(ctx context.Context, now time.Time) (*models.Cart, error)
}

// OrderStore is the append-only order ledger.
type OrderStore interface {
	// Create inserts the order. A duplicate checkout session id fails the
	// unique index and surfaces as ErrConflict.
	Create(ctx context.Context, order *models.Order) error

	FindBySessionID(ctx context.Context, sessionID string) (*models.Order, error)
	FindAll(ctx context.Context) ([]models.Order, error)
}
