package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lopataa/schoolshop/app/repositories"
)

type cartFixture struct {
	svc      *CartService
	carts    *fakeCartStore
	products *fakeProductStore
	now      time.Time
}

func newCartFixture() *cartFixture {
	f := &cartFixture{
		carts:    newFakeCartStore(),
		products: newFakeProductStore(),
		now:      time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	f.svc = &CartService{
		carts:      f.carts,
		products:   f.products,
		idleWindow: 15 * time.Minute,
		now:        func() time.Time { return f.now },
	}
	return f
}

func (f *cartFixture) advance(d time.Duration) { f.now = f.now.Add(d) }

func TestAddItemReservesStock(t *testing.T) {
	f := newCartFixture()
	ctx := context.Background()
	productID := f.products.add("hoodie", 39.90, 10)

	cart, err := f.svc.Create(ctx)
	require.NoError(t, err)

	view, err := f.svc.AddItem(ctx, cart.ID, productID, 3)
	require.NoError(t, err)

	assert.Equal(t, 7, f.products.stock(productID))
	require.Len(t, view.Items, 1)
	assert.Equal(t, 3, view.Items[0].Quantity)
	assert.Equal(t, f.now.Add(15*time.Minute), view.ExpiresAt)
}

func TestAddItemAccumulatesOnExistingLine(t *testing.T) {
	f := newCartFixture()
	ctx := context.Background()
	productID := f.products.add("tee", 14.50, 10)
	cart, _ := f.svc.Create(ctx)

	_, err := f.svc.AddItem(ctx, cart.ID, productID, 2)
	require.NoError(t, err)
	view, err := f.svc.AddItem(ctx, cart.ID, productID, 3)
	require.NoError(t, err)

	require.Len(t, view.Items, 1)
	assert.Equal(t, 5, view.Items[0].Quantity)
	assert.Equal(t, 5, f.products.stock(productID))
}

func TestAddItemInsufficientStock(t *testing.T) {
	f := newCartFixture()
	ctx := context.Background()
	productID := f.products.add("bottle", 21.00, 2)
	cart, _ := f.svc.Create(ctx)

	_, err := f.svc.AddItem(ctx, cart.ID, productID, 3)
	assert.ErrorIs(t, err, ErrValidation)

	// Nothing moved.
	assert.Equal(t, 2, f.products.stock(productID))
	view, err := f.svc.Get(ctx, cart.ID)
	require.NoError(t, err)
	assert.Empty(t, view.Items)
}

func TestAddItemUnknownProduct(t *testing.T) {
	f := newCartFixture()
	ctx := context.Background()
	cart, _ := f.svc.Create(ctx)

	_, err := f.svc.AddItem(ctx, cart.ID, f.products.add("x", 1, 0), 0)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.svc.AddItem(ctx, cart.ID, newFakeProductStore().add("ghost", 1, 5), 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAddItemCompensatesFailedSave(t *testing.T) {
	f := newCartFixture()
	ctx := context.Background()
	productID := f.products.add("tote", 12.00, 10)
	cart, _ := f.svc.Create(ctx)

	f.carts.saveErr = repositories.ErrConflict
	_, err := f.svc.AddItem(ctx, cart.ID, productID, 4)
	assert.ErrorIs(t, err, ErrConflict)

	// The reservation was undone.
	assert.Equal(t, 10, f.products.stock(productID))
}

func TestUpdateItemReservesAndReleasesDelta(t *testing.T) {
	f := newCartFixture()
	ctx := context.Background()
	productID := f.products.add("notebook", 8.90, 5)
	cart, _ := f.svc.Create(ctx)

	_, err := f.svc.AddItem(ctx, cart.ID, productID, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, f.products.stock(productID))

	// Raising to the full remaining stock succeeds.
	view, err := f.svc.UpdateItem(ctx, cart.ID, productID, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, view.Items[0].Quantity)
	assert.Equal(t, 0, f.products.stock(productID))

	// Lowering returns the difference.
	view, err = f.svc.UpdateItem(ctx, cart.ID, productID, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, view.Items[0].Quantity)
	assert.Equal(t, 3, f.products.stock(productID))
}

func TestUpdateItemBeyondStockFails(t *testing.T) {
	f := newCartFixture()
	ctx := context.Background()
	productID := f.products.add("sticker pack", 4.50, 5)
	cart, _ := f.svc.Create(ctx)

	_, err := f.svc.AddItem(ctx, cart.ID, productID, 3)
	require.NoError(t, err)

	_, err = f.svc.UpdateItem(ctx, cart.ID, productID, 6)
	assert.ErrorIs(t, err, ErrValidation)

	// Line and ledger unchanged.
	assert.Equal(t, 2, f.products.stock(productID))
	view, _ := f.svc.Get(ctx, cart.ID)
	assert.Equal(t, 3, view.Items[0].Quantity)
}

func TestUpdateItemToZeroRemovesLine(t *testing.T) {
	f := newCartFixture()
	ctx := context.Background()
	productID := f.products.add("tee", 14.50, 10)
	cart, _ := f.svc.Create(ctx)
	_, err := f.svc.AddItem(ctx, cart.ID, productID, 4)
	require.NoError(t, err)

	view, err := f.svc.UpdateItem(ctx, cart.ID, productID, 0)
	require.NoError(t, err)
	assert.Empty(t, view.Items)
	assert.Equal(t, 10, f.products.stock(productID))
}

func TestUpdateItemMissingLine(t *testing.T) {
	f := newCartFixture()
	ctx := context.Background()
	productID := f.products.add("tee", 14.50, 10)
	cart, _ := f.svc.Create(ctx)

	_, err := f.svc.UpdateItem(ctx, cart.ID, productID, 2)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 10, f.products.stock(productID))
}

func TestUpdateItemCompensatesFailedSave(t *testing.T) {
	f := newCartFixture()
	ctx := context.Background()
	productID := f.products.add("notebook", 8.90, 10)
	cart, _ := f.svc.Create(ctx)
	_, err := f.svc.AddItem(ctx, cart.ID, productID, 5)
	require.NoError(t, err)

	// Lowering the line releases up front; the failed write re-reserves.
	f.carts.saveErr = repositories.ErrConflict
	_, err = f.svc.UpdateItem(ctx, cart.ID, productID, 2)
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, 5, f.products.stock(productID))
}

func TestRemoveItemReleasesStock(t *testing.T) {
	f := newCartFixture()
	ctx := context.Background()
	productID := f.products.add("hoodie", 39.90, 10)
	cart, _ := f.svc.Create(ctx)
	_, err := f.svc.AddItem(ctx, cart.ID, productID, 6)
	require.NoError(t, err)

	view, err := f.svc.RemoveItem(ctx, cart.ID, productID)
	require.NoError(t, err)
	assert.Empty(t, view.Items)
	assert.Equal(t, 10, f.products.stock(productID))

	_, err = f.svc.RemoveItem(ctx, cart.ID, productID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClearReleasesEveryLine(t *testing.T) {
	f := newCartFixture()
	ctx := context.Background()
	first := f.products.add("hoodie", 39.90, 10)
	second := f.products.add("bottle", 21.00, 8)
	cart, _ := f.svc.Create(ctx)
	_, err := f.svc.AddItem(ctx, cart.ID, first, 3)
	require.NoError(t, err)
	_, err = f.svc.AddItem(ctx, cart.ID, second, 5)
	require.NoError(t, err)

	require.NoError(t, f.svc.Clear(ctx, cart.ID))
	assert.Equal(t, 10, f.products.stock(first))
	assert.Equal(t, 8, f.products.stock(second))

	// The cart document is gone with its units.
	_, err = f.svc.Get(ctx, cart.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, f.svc.Clear(ctx, cart.ID), ErrNotFound)
}

func TestGetRefreshesIdleWindow(t *testing.T) {
	f := newCartFixture()
	ctx := context.Background()
	cart, _ := f.svc.Create(ctx)

	f.advance(10 * time.Minute)
	view, err := f.svc.Get(ctx, cart.ID)
	require.NoError(t, err)
	assert.Equal(t, f.now.Add(15*time.Minute), view.ExpiresAt)

	// Repeated activity keeps pushing the deadline out past the original
	// window.
	f.advance(10 * time.Minute)
	_, err = f.svc.Get(ctx, cart.ID)
	require.NoError(t, err)
	f.advance(10 * time.Minute)
	_, err = f.svc.Get(ctx, cart.ID)
	assert.NoError(t, err)
}

func TestExpiredCartIsRemovedOnAccess(t *testing.T) {
	f := newCartFixture()
	ctx := context.Background()
	productID := f.products.add("hoodie", 39.90, 10)
	cart, _ := f.svc.Create(ctx)
	_, err := f.svc.AddItem(ctx, cart.ID, productID, 4)
	require.NoError(t, err)

	f.advance(16 * time.Minute)
	_, err = f.svc.Get(ctx, cart.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// Stock came back, and the cart document is gone.
	assert.Equal(t, 10, f.products.stock(productID))
	_, err = f.carts.FindByID(ctx, cart.ID)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestExpiryReleasesStockExactlyOnce(t *testing.T) {
	f := newCartFixture()
	ctx := context.Background()
	productID := f.products.add("hoodie", 39.90, 10)
	cart, _ := f.svc.Create(ctx)
	_, err := f.svc.AddItem(ctx, cart.ID, productID, 4)
	require.NoError(t, err)

	f.advance(16 * time.Minute)
	_, err = f.svc.Get(ctx, cart.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.svc.Get(ctx, cart.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// A double release would read 14 here.
	assert.Equal(t, 10, f.products.stock(productID))
}

func TestFinalizeKeepsStockReserved(t *testing.T) {
	f := newCartFixture()
	ctx := context.Background()
	productID := f.products.add("hoodie", 39.90, 10)
	cart, _ := f.svc.Create(ctx)
	_, err := f.svc.AddItem(ctx, cart.ID, productID, 4)
	require.NoError(t, err)

	require.NoError(t, f.svc.Finalize(ctx, cart.ID))

	// Finalize hands the units to the order: nothing is released.
	assert.Equal(t, 6, f.products.stock(productID))
	_, err = f.svc.Get(ctx, cart.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, f.svc.Finalize(ctx, cart.ID), ErrNotFound)
}

func TestFinalizeAfterExpiryReleasesStock(t *testing.T) {
	f := newCartFixture()
	ctx := context.Background()
	productID := f.products.add("hoodie", 39.90, 10)
	cart, _ := f.svc.Create(ctx)
	_, err := f.svc.AddItem(ctx, cart.ID, productID, 4)
	require.NoError(t, err)

	f.advance(16 * time.Minute)
	assert.ErrorIs(t, f.svc.Finalize(ctx, cart.ID), ErrNotFound)

	// The lapsed cart went through the ordinary expiry release.
	assert.Equal(t, 10, f.products.stock(productID))
}

func TestViewShowsDeletedProductAsGone(t *testing.T) {
	f := newCartFixture()
	ctx := context.Background()
	productID := f.products.add("hoodie", 39.90, 10)
	cart, _ := f.svc.Create(ctx)
	_, err := f.svc.AddItem(ctx, cart.ID, productID, 2)
	require.NoError(t, err)

	require.NoError(t, f.products.Delete(ctx, productID))

	view, err := f.svc.Get(ctx, cart.ID)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Nil(t, view.Items[0].Product)
	assert.Equal(t, 2, view.Items[0].Quantity)
}
