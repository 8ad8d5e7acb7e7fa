package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/lopataa/schoolshop/app/models"
	"github.com/lopataa/schoolshop/app/repositories"
	"github.com/lopataa/schoolshop/config"
	"github.com/lopataa/schoolshop/pkg/event"
	"github.com/lopataa/schoolshop/pkg/logger"
	"github.com/lopataa/schoolshop/pkg/metrics"
	"github.com/lopataa/schoolshop/pkg/payment"
)

// EventOrderCreated is fired with the *models.Order after a checkout
// completes. Listeners handle the live admin feed and the confirmation
// email.
const EventOrderCreated = "order.created"

// CheckoutService runs the two-phase purchase: create a hosted payment
// session for the cart, then after the provider confirms payment, convert
// the cart into a durable order exactly once.
type CheckoutService struct {
	payments payment.Provider
	cart     *CartService
	products repositories.ProductStore
	orders   repositories.OrderStore
}

func NewCheckoutService(payments payment.Provider, cart *CartService, products repositories.ProductStore, orders repositories.OrderStore) *CheckoutService {
	return &CheckoutService{
		payments: payments,
		cart:     cart,
		products: products,
		orders:   orders,
	}
}

// CustomerInfo is the contact data collected at checkout.
type CustomerInfo struct {
	Name    string
	Email   string
	Phone   string
	Address string
}

// CreateSession builds a hosted checkout session from the cart's current
// contents. The cart id and customer info travel in session metadata so
// completion can find them again without any server-side session state.
func (s *CheckoutService) CreateSession(ctx context.Context, cartID primitive.ObjectID, customer CustomerInfo) (*payment.Session, error) {
	cart, err := s.cart.Snapshot(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if len(cart.Items) == 0 {
		return nil, fmt.Errorf("%w: cart is empty", ErrValidation)
	}

	currency := config.StripeCurrency()
	lineItems := make([]payment.LineItem, 0, len(cart.Items))
	for _, line := range cart.Items {
		product, err := s.products.FindByID(ctx, line.ProductID)
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: product %s is no longer available", ErrValidation, line.ProductID.Hex())
		}
		if err != nil {
			return nil, err
		}

		unitAmount := int64(math.Round(product.Price * 100))
		if unitAmount < 1 {
			return nil, fmt.Errorf("%w: product %q has no payable price", ErrValidation, product.Name)
		}

		lineItems = append(lineItems, payment.LineItem{
			Name:        product.Name,
			Description: product.Description,
			UnitAmount:  unitAmount,
			Currency:    currency,
			Quantity:    int64(line.Quantity),
			Images:      httpImages(product.Images),
		})
	}

	session, err := s.payments.CreateSession(ctx, payment.CreateParams{
		LineItems:         lineItems,
		SuccessURL:        config.StripeSuccessURL(),
		CancelURL:         config.StripeCancelURL(),
		CustomerEmail:     customer.Email,
		ClientReferenceID: cartID.Hex(),
		Metadata: map[string]string{
			"cartId":       cartID.Hex(),
			"customerName": customer.Name,
			"email":        customer.Email,
			"phone":        customer.Phone,
			"address":      customer.Address,
		},
	})
	if errors.Is(err, payment.ErrNotConfigured) {
		return nil, fmt.Errorf("%w: payment provider is not configured", ErrValidation)
	}
	if err != nil {
		return nil, fmt.Errorf("checkout: create session: %w", err)
	}

	logger.WithCtx(ctx).Info("checkout session created", "session_id", session.ID, "cart_id", cartID.Hex())
	return session, nil
}

// CompleteSession turns a paid session into an order. It is idempotent on
// the session id: the first caller creates the order and finalizes the
// cart, every later caller gets the same order back with existing=true.
func (s *CheckoutService) CompleteSession(ctx context.Context, sessionID string) (order *models.Order, existing bool, err error) {
	if sessionID == "" {
		return nil, false, fmt.Errorf("%w: session id required", ErrValidation)
	}

	details, err := s.payments.RetrieveSession(ctx, sessionID)
	if errors.Is(err, payment.ErrNotConfigured) {
		return nil, false, fmt.Errorf("%w: payment provider is not configured", ErrValidation)
	}
	if err != nil {
		return nil, false, fmt.Errorf("checkout: retrieve session: %w", err)
	}
	if details.PaymentStatus != payment.PaymentStatusPaid {
		return nil, false, fmt.Errorf("%w: status %q", ErrPaymentIncomplete, details.PaymentStatus)
	}

	if prior, findErr := s.orders.FindBySessionID(ctx, sessionID); findErr == nil {
		return prior, true, nil
	} else if !errors.Is(findErr, repositories.ErrNotFound) {
		return nil, false, findErr
	}

	cartID, err := primitive.ObjectIDFromHex(details.Metadata["cartId"])
	if err != nil {
		return nil, false, fmt.Errorf("%w: session has no cart reference", ErrValidation)
	}

	cart, err := s.cart.Snapshot(ctx, cartID)
	if errors.Is(err, ErrNotFound) {
		// The payment went through but the cart's idle window lapsed and
		// the sweep released its stock before completion arrived. The
		// shopper was charged for units we no longer hold.
		logger.WithCtx(ctx).Error("paid session arrived after cart expiry",
			"session_id", sessionID, "cart_id", cartID.Hex())
		return nil, false, ErrNotFound
	}
	if err != nil {
		return nil, false, err
	}
	if len(cart.Items) == 0 {
		return nil, false, fmt.Errorf("%w: cart is empty", ErrValidation)
	}

	// The confirmation email and the receipt need somewhere to go. The
	// metadata copy is what the shopper typed at checkout; the provider's
	// customer email is the fallback.
	email := details.Metadata["email"]
	if email == "" {
		email = details.CustomerEmail
	}
	if email == "" {
		return nil, false, fmt.Errorf("%w: missing customer email", ErrValidation)
	}

	order = s.buildOrder(ctx, cart, details, email)

	if createErr := s.orders.Create(ctx, order); createErr != nil {
		if errors.Is(createErr, repositories.ErrConflict) {
			// Lost the completion race; hand back the winner's order.
			prior, findErr := s.orders.FindBySessionID(ctx, sessionID)
			if findErr != nil {
				return nil, false, findErr
			}
			return prior, true, nil
		}
		return nil, false, createErr
	}

	// The purchase is recorded; the reserved units now belong to the
	// order, so the cart is deleted without releasing anything.
	if finErr := s.cart.Finalize(ctx, cartID); finErr != nil {
		if errors.Is(finErr, ErrNotFound) {
			logger.WithCtx(ctx).Error("cart expired between order creation and finalization",
				"session_id", sessionID, "cart_id", cartID.Hex(), "order_id", order.ID.Hex())
		} else {
			logger.WithCtx(ctx).Error("cart finalization failed",
				"session_id", sessionID, "cart_id", cartID.Hex(), "error", finErr)
		}
	}

	metrics.OrdersCreated.Inc()
	event.Fire(EventOrderCreated, order)
	logger.WithCtx(ctx).Info("order created",
		"order_id", order.ID.Hex(), "session_id", sessionID, "total", order.Total)
	return order, false, nil
}

// buildOrder freezes the cart's lines with the product data of this
// moment. Products deleted mid-checkout freeze with placeholder details;
// the reservation was still paid for.
func (s *CheckoutService) buildOrder(ctx context.Context, cart *models.Cart, details *payment.SessionDetails, email string) *models.Order {
	items := make([]models.OrderItem, 0, len(cart.Items))
	total := 0.0
	for _, line := range cart.Items {
		item := models.OrderItem{
			ProductID: line.ProductID,
			Name:      "(unavailable product)",
			Quantity:  line.Quantity,
		}
		if product, err := s.products.FindByID(ctx, line.ProductID); err == nil {
			item.Name = product.Name
			item.Price = product.Price
			if len(product.Images) > 0 {
				item.ImageURL = product.Images[0]
			}
		}
		total += item.Price * float64(item.Quantity)
		items = append(items, item)
	}

	return &models.Order{
		Items:             items,
		Total:             math.Round(total*100) / 100,
		CustomerName:      orDefault(details.Metadata["customerName"], "Stripe customer"),
		Email:             email,
		Phone:             orDefault(details.Metadata["phone"], "n/a"),
		Address:           orDefault(details.Metadata["address"], "n/a"),
		CheckoutSessionID: details.ID,
		CartID:            cart.ID,
	}
}

func orDefault(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}

// httpImages keeps only absolute http(s) URLs; the payment provider
// rejects anything else.
func httpImages(images []string) []string {
	out := make([]string, 0, len(images))
	for _, img := range images {
		if strings.HasPrefix(img, "http://") || strings.HasPrefix(img, "https://") {
			out = append(out, img)
		}
	}
	return out
}
