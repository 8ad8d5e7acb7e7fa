package services

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/lopataa/schoolshop/app/models"
	"github.com/lopataa/schoolshop/app/repositories"
)

// fakeProductStore is an in-memory ProductStore with the same atomicity
// guarantees as the real one: reserve checks and decrements under one lock.
type fakeProductStore struct {
	mu         sync.Mutex
	products   map[primitive.ObjectID]*models.Product
	releaseErr error // next ReleaseStock returns this once
}

func newFakeProductStore() *fakeProductStore {
	return &fakeProductStore{products: map[primitive.ObjectID]*models.Product{}}
}

func (f *fakeProductStore) add(name string, price float64, stock int) primitive.ObjectID {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := &models.Product{ID: primitive.NewObjectID(), Name: name, Price: price, Stock: stock}
	f.products[p.ID] = p
	return p.ID
}

func (f *fakeProductStore) stock(id primitive.ObjectID) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.products[id]; ok {
		return p.Stock
	}
	return -1
}

func (f *fakeProductStore) Create(_ context.Context, product *models.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	product.ID = primitive.NewObjectID()
	product.CreatedAt = time.Now()
	product.UpdatedAt = product.CreatedAt
	clone := *product
	f.products[product.ID] = &clone
	return nil
}

func (f *fakeProductStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	clone := *p
	return &clone, nil
}

func (f *fakeProductStore) FindAll(_ context.Context, filter repositories.ProductFilter) ([]models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Product{}
	for _, p := range f.products {
		if filter.Category != "" && filter.Category != "all" && p.Category != filter.Category {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(filter.Search)) {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeProductStore) Update(_ context.Context, id primitive.ObjectID, update repositories.ProductUpdate) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	if update.Name != nil {
		p.Name = *update.Name
	}
	if update.Description != nil {
		p.Description = *update.Description
	}
	if update.Price != nil {
		p.Price = *update.Price
	}
	if update.Category != nil {
		p.Category = *update.Category
	}
	if update.Stock != nil {
		p.Stock = *update.Stock
	}
	if update.Images != nil {
		p.Images = update.Images
	}
	p.UpdatedAt = time.Now()
	clone := *p
	return &clone, nil
}

func (f *fakeProductStore) Delete(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.products[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(f.products, id)
	return nil
}

func (f *fakeProductStore) Exists(_ context.Context, id primitive.ObjectID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.products[id]
	return ok, nil
}

func (f *fakeProductStore) ReserveStock(_ context.Context, id primitive.ObjectID, qty int) error {
	if qty <= 0 {
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok {
		return repositories.ErrNotFound
	}
	if p.Stock < qty {
		return repositories.ErrInsufficientStock
	}
	p.Stock -= qty
	return nil
}

func (f *fakeProductStore) ReleaseStock(_ context.Context, id primitive.ObjectID, qty int) error {
	if qty <= 0 {
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.releaseErr; err != nil {
		f.releaseErr = nil
		return err
	}
	if p, ok := f.products[id]; ok {
		p.Stock += qty
	}
	return nil
}

// fakeCartStore mirrors the real store's optimistic versioning and
// conditional expiry deletes.
type fakeCartStore struct {
	mu      sync.Mutex
	carts   map[primitive.ObjectID]*models.Cart
	saveErr error // next Save returns this once, before any write
}

func newFakeCartStore() *fakeCartStore {
	return &fakeCartStore{carts: map[primitive.ObjectID]*models.Cart{}}
}

func (f *fakeCartStore) Create(_ context.Context, cart *models.Cart) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cart.ID = primitive.NewObjectID()
	cart.Version = 1
	now := time.Now()
	cart.CreatedAt = now
	cart.UpdatedAt = now
	clone := cloneCart(cart)
	f.carts[cart.ID] = clone
	return nil
}

func (f *fakeCartStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.carts[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return cloneCart(c), nil
}

func (f *fakeCartStore) Save(_ context.Context, cart *models.Cart) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.saveErr; err != nil {
		f.saveErr = nil
		return err
	}
	stored, ok := f.carts[cart.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	if stored.Version != cart.Version {
		return repositories.ErrConflict
	}
	cart.Version++
	cart.UpdatedAt = time.Now()
	f.carts[cart.ID] = cloneCart(cart)
	return nil
}

func (f *fakeCartStore) Delete(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.carts[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(f.carts, id)
	return nil
}

func (f *fakeCartStore) DeleteIfExpired(_ context.Context, id primitive.ObjectID, now time.Time) (*models.Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.carts[id]
	if !ok || c.ExpiresAt.After(now) {
		return nil, nil
	}
	delete(f.carts, id)
	return c, nil
}

func (f *fakeCartStore) DeleteOneExpired(_ context.Context, now time.Time) (*models.Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, c := range f.carts {
		if !c.ExpiresAt.After(now) {
			delete(f.carts, id)
			return c, nil
		}
	}
	return nil, nil
}

func cloneCart(c *models.Cart) *models.Cart {
	clone := *c
	clone.Items = append([]models.CartItem{}, c.Items...)
	return &clone
}

// fakeOrderStore enforces the per-session uniqueness the real unique index
// provides.
type fakeOrderStore struct {
	mu     sync.Mutex
	orders []*models.Order
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{}
}

func (f *fakeOrderStore) Create(_ context.Context, order *models.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if order.CheckoutSessionID != "" {
		for _, o := range f.orders {
			if o.CheckoutSessionID == order.CheckoutSessionID {
				return repositories.ErrConflict
			}
		}
	}
	order.ID = primitive.NewObjectID()
	order.CreatedAt = time.Now()
	clone := *order
	f.orders = append(f.orders, &clone)
	return nil
}

func (f *fakeOrderStore) FindBySessionID(_ context.Context, sessionID string) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.orders {
		if o.CheckoutSessionID == sessionID {
			clone := *o
			return &clone, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeOrderStore) FindAll(_ context.Context) ([]models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Order, 0, len(f.orders))
	for i := len(f.orders) - 1; i >= 0; i-- {
		out = append(out, *f.orders[i])
	}
	return out, nil
}
