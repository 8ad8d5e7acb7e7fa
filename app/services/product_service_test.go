package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lopataa/schoolshop/app/models"
	"github.com/lopataa/schoolshop/app/repositories"
)

func ptr[T any](v T) *T { return &v }

func TestProductCRUD(t *testing.T) {
	store := newFakeProductStore()
	svc := NewProductService(store)
	ctx := context.Background()

	created, err := svc.Create(ctx, &models.Product{
		Name: "hoodie", Price: 39.90, Category: "apparel", Stock: 10,
	})
	require.NoError(t, err)
	require.False(t, created.ID.IsZero())

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "hoodie", got.Name)

	updated, err := svc.Update(ctx, created.ID, repositories.ProductUpdate{
		Price: ptr(34.90),
		Stock: ptr(25),
	})
	require.NoError(t, err)
	assert.Equal(t, 34.90, updated.Price)
	assert.Equal(t, 25, updated.Stock)
	assert.Equal(t, "hoodie", updated.Name)

	require.NoError(t, svc.Delete(ctx, created.ID))
	_, err = svc.Get(ctx, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProductUpdateRejectsNegativeValues(t *testing.T) {
	store := newFakeProductStore()
	svc := NewProductService(store)
	ctx := context.Background()
	id := store.add("tee", 14.50, 5)

	_, err := svc.Update(ctx, id, repositories.ProductUpdate{Price: ptr(-1.0)})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Update(ctx, id, repositories.ProductUpdate{Stock: ptr(-3)})
	assert.ErrorIs(t, err, ErrValidation)

	// Nothing changed.
	p, _ := store.FindByID(ctx, id)
	assert.Equal(t, 14.50, p.Price)
	assert.Equal(t, 5, p.Stock)
}

func TestProductListFilters(t *testing.T) {
	store := newFakeProductStore()
	svc := NewProductService(store)
	ctx := context.Background()

	_, err := svc.Create(ctx, &models.Product{Name: "College hoodie", Category: "apparel", Price: 39.90})
	require.NoError(t, err)
	_, err = svc.Create(ctx, &models.Product{Name: "Canvas tote", Category: "accessories", Price: 12.00})
	require.NoError(t, err)

	all, err := svc.List(ctx, repositories.ProductFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	apparel, err := svc.List(ctx, repositories.ProductFilter{Category: "apparel"})
	require.NoError(t, err)
	require.Len(t, apparel, 1)
	assert.Equal(t, "College hoodie", apparel[0].Name)

	found, err := svc.List(ctx, repositories.ProductFilter{Search: "tote"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Canvas tote", found[0].Name)
}

func TestProductGetUnknown(t *testing.T) {
	svc := NewProductService(newFakeProductStore())
	_, err := svc.Get(context.Background(), newFakeProductStore().add("ghost", 1, 1))
	assert.ErrorIs(t, err, ErrNotFound)
}
