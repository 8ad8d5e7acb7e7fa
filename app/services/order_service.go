package services

import (
	"context"

	"github.com/lopataa/schoolshop/app/models"
	"github.com/lopataa/schoolshop/app/repositories"
)

// OrderService exposes the order ledger to the admin surface. Orders are
// only ever created by checkout completion; this service is read-only.
type OrderService struct {
	orders repositories.OrderStore
}

func NewOrderService(orders repositories.OrderStore) *OrderService {
	return &OrderService{orders: orders}
}

// List returns all orders, newest first.
func (s *OrderService) List(ctx context.Context) ([]models.Order, error) {
	return s.orders.FindAll(ctx)
}
