// Package services implements the storefront's business rules on top of the
// repositories layer: cart reservations, catalogue management, checkout
// completion, and the background expiry sweep.
package services

import (
	"errors"
	"fmt"

	"github.com/lopataa/schoolshop/app/repositories"
)

var (
	// ErrNotFound means the referenced entity does not exist. An expired
	// cart is reported the same way: once the idle window lapses the cart
	// is gone, regardless of which caller noticed first.
	ErrNotFound = errors.New("not found")

	// ErrValidation covers rejected input, including business rules like
	// ordering more units than the ledger holds.
	ErrValidation = errors.New("validation failed")

	// ErrConflict means a concurrent writer won; the caller may retry.
	ErrConflict = errors.New("conflict")

	// ErrUnauthorized means the supplied credentials were rejected.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrPaymentIncomplete means the checkout session exists but the
	// provider has not confirmed payment for it.
	ErrPaymentIncomplete = errors.New("payment not completed")
)

// ErrInsufficientStock is a validation failure: the shopper asked for more
// units than the ledger holds right now.
var ErrInsufficientStock = fmt.Errorf("%w: insufficient stock", ErrValidation)

// mapRepoErr lifts repository sentinels into the service taxonomy.
func mapRepoErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, repositories.ErrInsufficientStock):
		return ErrInsufficientStock
	case errors.Is(err, repositories.ErrConflict):
		return ErrConflict
	}
	return err
}
