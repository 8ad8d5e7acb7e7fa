// Package payment abstracts the hosted-checkout payment collaborator.
//
// The storefront never touches card data: it creates a hosted checkout
// session, redirects the shopper to the provider's URL, and later retrieves
// the session to learn whether payment completed.
package payment

import (
	"context"
	"errors"
)

// ErrNotConfigured is returned when the provider has no credentials.
// Checkout surfaces it to the client instead of attempting a call that can
// only fail.
var ErrNotConfigured = errors.New("payment: provider is not configured")

// LineItem is one purchasable row handed to the provider.
type LineItem struct {
	Name        string
	Description string
	UnitAmount  int64 // minor units (cents)
	Currency    string
	Quantity    int64
	Images      []string
}

// CreateParams describes a new hosted checkout session.
type CreateParams struct {
	LineItems         []LineItem
	SuccessURL        string
	CancelURL         string
	CustomerEmail     string
	ClientReferenceID string
	Metadata          map[string]string
}

// Session is the handle returned on session creation.
type Session struct {
	ID  string
	URL string
}

// SessionDetails is the state of a session as reported by the provider.
type SessionDetails struct {
	ID            string
	PaymentStatus string // "paid" | "unpaid" | "no_payment_required"
	CustomerEmail string
	Metadata      map[string]string
}

// PaymentStatusPaid is the provider's value for a completed payment.
const PaymentStatusPaid = "paid"

// Provider is the payment collaborator contract consumed by checkout.
type Provider interface {
	CreateSession(ctx context.Context, params CreateParams) (*Session, error)
	RetrieveSession(ctx context.Context, id string) (*SessionDetails, error)
}
