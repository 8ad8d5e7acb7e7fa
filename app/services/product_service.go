package services

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/lopataa/schoolshop/app/models"
	"github.com/lopataa/schoolshop/app/repositories"
	"github.com/lopataa/schoolshop/pkg/cache"
)

const (
	productListCacheKey = "products:all"
	productCacheTTL     = 5 * time.Minute
)

// ProductService manages the catalogue. Reads go through the Redis cache
// when no filter is applied; every write invalidates.
//
// Stock is deliberately NOT exposed for arbitrary decrement here. Shoppers
// only move stock through cart reservations; admins set absolute levels
// through Update.
type ProductService struct {
	products repositories.ProductStore
}

func NewProductService(products repositories.ProductStore) *ProductService {
	return &ProductService{products: products}
}

func (s *ProductService) Create(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := s.products.Create(ctx, product); err != nil {
		return nil, err
	}
	s.invalidate(product.ID)
	return product, nil
}

func (s *ProductService) Get(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	var cached models.Product
	if cache.Get(productCacheKey(id), &cached) {
		return &cached, nil
	}

	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	_ = cache.Set(productCacheKey(id), product, productCacheTTL)
	return product, nil
}

// List returns catalogue entries matching the filter, newest first. Only
// the unfiltered listing is cached; filtered queries go straight through.
func (s *ProductService) List(ctx context.Context, filter repositories.ProductFilter) ([]models.Product, error) {
	unfiltered := (filter.Category == "" || filter.Category == "all") && filter.Search == ""

	if unfiltered {
		var cached []models.Product
		if cache.Get(productListCacheKey, &cached) {
			return cached, nil
		}
	}

	products, err := s.products.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}

	if unfiltered {
		_ = cache.Set(productListCacheKey, products, productCacheTTL)
	}
	return products, nil
}

func (s *ProductService) Update(ctx context.Context, id primitive.ObjectID, update repositories.ProductUpdate) (*models.Product, error) {
	if update.Price != nil && *update.Price < 0 {
		return nil, fmt.Errorf("%w: price cannot be negative", ErrValidation)
	}
	if update.Stock != nil && *update.Stock < 0 {
		return nil, fmt.Errorf("%w: stock cannot be negative", ErrValidation)
	}

	product, err := s.products.Update(ctx, id, update)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	s.invalidate(id)
	return product, nil
}

// Delete removes the product from the catalogue. Carts holding the product
// keep their lines; their views show the product as gone, and the stock
// backing them is simply never returned anywhere visible.
func (s *ProductService) Delete(ctx context.Context, id primitive.ObjectID) error {
	if err := s.products.Delete(ctx, id); err != nil {
		return mapRepoErr(err)
	}
	s.invalidate(id)
	return nil
}

func (s *ProductService) invalidate(id primitive.ObjectID) {
	_ = cache.Del(productListCacheKey, productCacheKey(id))
}

func productCacheKey(id primitive.ObjectID) string {
	return "products:" + id.Hex()
}
