package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/lopataa/schoolshop/app/models"
	"github.com/lopataa/schoolshop/app/repositories"
	"github.com/lopataa/schoolshop/config"
	"github.com/lopataa/schoolshop/pkg/logger"
	"github.com/lopataa/schoolshop/pkg/metrics"
	"github.com/lopataa/schoolshop/pkg/queue"
)

// CartService coordinates carts with the stock ledger. The contract it
// maintains: every quantity sitting in a cart document is backed by stock
// already decremented from the product, at all times, under concurrency.
//
// Every mutation adjusts the ledger first and writes the cart second,
// carrying an undo for the adjustment. If the cart write fails the undo
// runs, so no request ever leaves a half-applied state behind.
type CartService struct {
	carts    repositories.CartStore
	products repositories.ProductStore

	idleWindow time.Duration
	now        func() time.Time
}

func NewCartService(carts repositories.CartStore, products repositories.ProductStore) *CartService {
	return &CartService{
		carts:      carts,
		products:   products,
		idleWindow: config.CartIdleWindow(),
		now:        time.Now,
	}
}

// Create starts a new empty cart with a fresh idle window.
func (s *CartService) Create(ctx context.Context) (*models.Cart, error) {
	cart := &models.Cart{
		Items:     []models.CartItem{},
		ExpiresAt: s.now().Add(s.idleWindow),
	}
	if err := s.carts.Create(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// Get returns the cart joined with live product data, refreshing the idle
// window as a side effect. Reading a cart counts as activity.
func (s *CartService) Get(ctx context.Context, cartID primitive.ObjectID) (*models.CartView, error) {
	cart, err := s.getActiveCart(ctx, cartID)
	if err != nil {
		return nil, err
	}

	cart.ExpiresAt = s.now().Add(s.idleWindow)
	if err := s.carts.Save(ctx, cart); err != nil {
		// A lost refresh race is harmless; the winner refreshed instead.
		if !errors.Is(err, repositories.ErrConflict) {
			return nil, mapRepoErr(err)
		}
	}
	return s.view(ctx, cart)
}

// AddItem reserves qty more units of the product into the cart.
func (s *CartService) AddItem(ctx context.Context, cartID, productID primitive.ObjectID, qty int) (*models.CartView, error) {
	if qty <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", ErrValidation)
	}

	cart, err := s.getActiveCart(ctx, cartID)
	if err != nil {
		return nil, err
	}

	undo, err := s.applyDelta(ctx, productID, qty)
	if err != nil {
		return nil, err
	}

	if line := cart.ItemFor(productID); line != nil {
		line.Quantity += qty
	} else {
		cart.Items = append(cart.Items, models.CartItem{ProductID: productID, Quantity: qty})
	}

	if err := s.saveOrUndo(ctx, cart, undo); err != nil {
		return nil, err
	}
	return s.view(ctx, cart)
}

// UpdateItem sets an existing line to exactly qty units, reserving or
// releasing the difference. qty 0 removes the line; a line that does not
// exist cannot be updated.
func (s *CartService) UpdateItem(ctx context.Context, cartID, productID primitive.ObjectID, qty int) (*models.CartView, error) {
	if qty < 0 {
		return nil, fmt.Errorf("%w: quantity cannot be negative", ErrValidation)
	}

	cart, err := s.getActiveCart(ctx, cartID)
	if err != nil {
		return nil, err
	}

	line := cart.ItemFor(productID)
	if line == nil {
		return nil, ErrNotFound
	}

	undo, err := s.applyDelta(ctx, productID, qty-line.Quantity)
	if err != nil {
		return nil, err
	}

	if qty == 0 {
		cart.RemoveItem(productID)
	} else {
		line.Quantity = qty
	}

	if err := s.saveOrUndo(ctx, cart, undo); err != nil {
		return nil, err
	}
	return s.view(ctx, cart)
}

// RemoveItem drops the product's line and returns its units to the ledger.
func (s *CartService) RemoveItem(ctx context.Context, cartID, productID primitive.ObjectID) (*models.CartView, error) {
	cart, err := s.getActiveCart(ctx, cartID)
	if err != nil {
		return nil, err
	}

	line := cart.ItemFor(productID)
	if line == nil {
		return nil, ErrNotFound
	}

	undo, err := s.applyDelta(ctx, productID, -line.Quantity)
	if err != nil {
		return nil, err
	}
	cart.RemoveItem(productID)

	if err := s.saveOrUndo(ctx, cart, undo); err != nil {
		return nil, err
	}
	return s.view(ctx, cart)
}

// Clear deletes the cart and returns every reserved unit to the ledger.
// The document is removed before any release so a retried Clear can never
// release the same units twice.
func (s *CartService) Clear(ctx context.Context, cartID primitive.ObjectID) error {
	cart, err := s.getActiveCart(ctx, cartID)
	if err != nil {
		return err
	}

	if err := s.carts.Delete(ctx, cart.ID); err != nil {
		return mapRepoErr(err)
	}
	s.releaseItems(ctx, cart.Items)
	return nil
}

// Snapshot returns the raw active cart without refreshing the idle window.
// Checkout uses it to freeze line items without counting as shopper
// activity.
func (s *CartService) Snapshot(ctx context.Context, cartID primitive.ObjectID) (*models.Cart, error) {
	return s.getActiveCart(ctx, cartID)
}

// Finalize deletes the cart WITHOUT releasing its stock. Only valid once a
// purchase for the cart's contents has been recorded; the reserved units
// now belong to the order.
//
// A cart missing or lapsed at this point means expiry beat the checkout to
// it; the ordinary expiry release runs (or already ran) and ErrNotFound is
// surfaced so the caller can treat the order as an anomaly.
func (s *CartService) Finalize(ctx context.Context, cartID primitive.ObjectID) error {
	cart, err := s.carts.FindByID(ctx, cartID)
	if err != nil {
		return mapRepoErr(err)
	}

	now := s.now()
	if cart.Expired(now) {
		s.expire(ctx, cartID, now, "on_demand")
		return ErrNotFound
	}
	return mapRepoErr(s.carts.Delete(ctx, cartID))
}

// ─────────────────────────────────────────────
// Expiry
// ─────────────────────────────────────────────

// getActiveCart loads the cart and enforces expiry on the way. An expired
// cart is removed (releasing its stock) and reported as ErrNotFound, so
// callers never observe a lapsed cart as live.
func (s *CartService) getActiveCart(ctx context.Context, cartID primitive.ObjectID) (*models.Cart, error) {
	cart, err := s.carts.FindByID(ctx, cartID)
	if err != nil {
		return nil, mapRepoErr(err)
	}

	now := s.now()
	if !cart.Expired(now) {
		return cart, nil
	}

	s.expire(ctx, cartID, now, "on_demand")
	return nil, ErrNotFound
}

// expire removes the cart if it is still expired and, when this caller wins
// the removal, releases its reserved stock. The conditional delete is what
// makes the release exactly-once: losers get nothing back and release
// nothing.
func (s *CartService) expire(ctx context.Context, cartID primitive.ObjectID, now time.Time, trigger string) {
	removed, err := s.carts.DeleteIfExpired(ctx, cartID, now)
	if err != nil {
		logger.WithCtx(ctx).Warn("cart expiry delete failed", "cart_id", cartID.Hex(), "error", err)
		return
	}
	if removed == nil {
		return
	}

	s.releaseItems(ctx, removed.Items)
	metrics.CartsExpired.WithLabelValues(trigger).Inc()
	logger.WithCtx(ctx).Info("cart expired", "cart_id", cartID.Hex(), "trigger", trigger, "lines", len(removed.Items))
}

func (s *CartService) releaseItems(ctx context.Context, items []models.CartItem) {
	for _, item := range items {
		s.releaseStock(ctx, item.ProductID, item.Quantity)
	}
}

// releaseStock returns units to the ledger. A failed release would leak
// stock permanently, so it is handed to the job queue for retry instead of
// being dropped.
func (s *CartService) releaseStock(ctx context.Context, productID primitive.ObjectID, qty int) {
	if qty <= 0 {
		return
	}
	if err := s.products.ReleaseStock(ctx, productID, qty); err != nil {
		logger.WithCtx(ctx).Error("stock release failed, queueing retry",
			"product_id", productID.Hex(), "qty", qty, "error", err)
		if qErr := queue.Dispatch(&releaseStockJob{ProductID: productID.Hex(), Qty: qty}); qErr != nil {
			logger.WithCtx(ctx).Error("stock release retry dispatch failed",
				"product_id", productID.Hex(), "qty", qty, "error", qErr)
		}
		return
	}
	metrics.StockReservations.WithLabelValues("released").Inc()
}

// applyDelta adjusts the ledger for one line moving by delta units and
// returns the compensating action for a failed cart write. Increases hit
// the ledger before the cart is written and the undo releases them back;
// decreases release up front and the undo re-reserves.
func (s *CartService) applyDelta(ctx context.Context, productID primitive.ObjectID, delta int) (func(context.Context), error) {
	switch {
	case delta > 0:
		if err := s.products.ReserveStock(ctx, productID, delta); err != nil {
			if errors.Is(err, repositories.ErrInsufficientStock) {
				metrics.StockReservations.WithLabelValues("insufficient").Inc()
			}
			return nil, mapRepoErr(err)
		}
		metrics.StockReservations.WithLabelValues("reserved").Inc()
		return func(ctx context.Context) { s.compensateRelease(ctx, productID, delta) }, nil
	case delta < 0:
		s.releaseStock(ctx, productID, -delta)
		return func(ctx context.Context) { s.compensateReserve(ctx, productID, -delta) }, nil
	default:
		return func(context.Context) {}, nil
	}
}

// saveOrUndo persists the cart with a refreshed idle window. On failure the
// ledger adjustment already applied for this mutation is compensated back
// before the error surfaces, so the failed request leaves no trace.
func (s *CartService) saveOrUndo(ctx context.Context, cart *models.Cart, undo func(context.Context)) error {
	cart.ExpiresAt = s.now().Add(s.idleWindow)
	err := s.carts.Save(ctx, cart)
	if err == nil {
		return nil
	}
	undo(ctx)
	return mapRepoErr(err)
}

// compensateRelease returns units reserved for a cart write that never
// landed. The release is retried through the queue if it fails, since a
// dropped release would leak stock permanently.
func (s *CartService) compensateRelease(ctx context.Context, productID primitive.ObjectID, qty int) {
	if err := s.products.ReleaseStock(ctx, productID, qty); err != nil {
		logger.WithCtx(ctx).Error("compensating release failed, queueing retry",
			"product_id", productID.Hex(), "qty", qty, "error", err)
		if qErr := queue.Dispatch(&releaseStockJob{ProductID: productID.Hex(), Qty: qty}); qErr != nil {
			logger.WithCtx(ctx).Error("compensation retry dispatch failed",
				"product_id", productID.Hex(), "qty", qty, "error", qErr)
		}
		return
	}
	metrics.StockReservations.WithLabelValues("compensated").Inc()
}

// compensateReserve takes back units released for a cart write that never
// landed. The re-reserve can lose to a concurrent buyer; the cart line then
// holds units with no backing, which is logged as an anomaly rather than
// hidden.
func (s *CartService) compensateReserve(ctx context.Context, productID primitive.ObjectID, qty int) {
	if err := s.products.ReserveStock(ctx, productID, qty); err != nil {
		logger.WithCtx(ctx).Error("anomaly: could not re-reserve after failed cart write",
			"product_id", productID.Hex(), "qty", qty, "error", err)
		return
	}
	metrics.StockReservations.WithLabelValues("compensated").Inc()
}

// ─────────────────────────────────────────────
// View join
// ─────────────────────────────────────────────

// view joins the cart with live product data. Deleted products leave a nil
// Product on the line; the reservation itself stays intact.
func (s *CartService) view(ctx context.Context, cart *models.Cart) (*models.CartView, error) {
	items := make([]models.CartViewItem, 0, len(cart.Items))
	for _, line := range cart.Items {
		viewItem := models.CartViewItem{ProductID: line.ProductID, Quantity: line.Quantity}

		product, err := s.products.FindByID(ctx, line.ProductID)
		if err != nil && !errors.Is(err, repositories.ErrNotFound) {
			return nil, err
		}
		viewItem.Product = product

		items = append(items, viewItem)
	}
	return &models.CartView{ID: cart.ID, Items: items, ExpiresAt: cart.ExpiresAt}, nil
}
