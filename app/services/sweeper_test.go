package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lopataa/schoolshop/pkg/workerpool"
)

func newTestSweeper(f *cartFixture) *Sweeper {
	return &Sweeper{cart: f.svc, pool: workerpool.New(2), interval: time.Minute}
}

func TestSweepDrainsAllExpiredCarts(t *testing.T) {
	f := newCartFixture()
	ctx := context.Background()
	productID := f.products.add("hoodie", 39.90, 20)

	for i := 0; i < 3; i++ {
		cart, _ := f.svc.Create(ctx)
		_, err := f.svc.AddItem(ctx, cart.ID, productID, 2)
		require.NoError(t, err)
	}
	assert.Equal(t, 14, f.products.stock(productID))

	f.advance(16 * time.Minute)
	sweeper := newTestSweeper(f)
	assert.Equal(t, 3, sweeper.Sweep(ctx))
	assert.Equal(t, 20, f.products.stock(productID))

	// Nothing left for a second pass.
	assert.Equal(t, 0, sweeper.Sweep(ctx))
}

func TestSweepLeavesLiveCartsAlone(t *testing.T) {
	f := newCartFixture()
	ctx := context.Background()
	productID := f.products.add("bottle", 21.00, 10)

	stale, _ := f.svc.Create(ctx)
	_, err := f.svc.AddItem(ctx, stale.ID, productID, 2)
	require.NoError(t, err)

	f.advance(16 * time.Minute)

	fresh, _ := f.svc.Create(ctx)
	_, err = f.svc.AddItem(ctx, fresh.ID, productID, 3)
	require.NoError(t, err)

	sweeper := newTestSweeper(f)
	assert.Equal(t, 1, sweeper.Sweep(ctx))

	// Only the stale cart's units came back.
	assert.Equal(t, 7, f.products.stock(productID))
	_, err = f.svc.Get(ctx, fresh.ID)
	assert.NoError(t, err)
	_, err = f.svc.Get(ctx, stale.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
