package controllers

import (
	"net/http"

	"github.com/lopataa/schoolshop/app/services"
	"github.com/lopataa/schoolshop/pkg/response"
	"github.com/lopataa/schoolshop/pkg/ws"
)

type OrderController struct {
	orders *services.OrderService
	feed   *ws.Hub
}

func NewOrderController(orders *services.OrderService, feed *ws.Hub) *OrderController {
	return &OrderController{orders: orders, feed: feed}
}

// List handles GET /admin/orders.
func (c *OrderController) List(w http.ResponseWriter, r *http.Request) {
	orders, err := c.orders.List(r.Context())
	if err != nil {
		renderError(w, r, err)
		return
	}
	response.Success(w, orders)
}

// Feed handles GET /admin/orders/feed, upgrading to a WebSocket that
// receives an event per created order. Auth happens in middleware before
// this runs.
func (c *OrderController) Feed(w http.ResponseWriter, r *http.Request) {
	ws.Upgrade(w, r, c.feed)
}
