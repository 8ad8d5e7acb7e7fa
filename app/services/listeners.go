package services

import (
	"github.com/lopataa/schoolshop/app/models"
	"github.com/lopataa/schoolshop/config"
	"github.com/lopataa/schoolshop/pkg/event"
	"github.com/lopataa/schoolshop/pkg/logger"
	"github.com/lopataa/schoolshop/pkg/queue"
	"github.com/lopataa/schoolshop/pkg/ws"
)

// RegisterOrderListeners subscribes the order-created side effects: the
// live admin feed broadcast and the queued confirmation email. Call once
// at boot. feed may be nil.
func RegisterOrderListeners(feed *ws.Hub) {
	event.Listen(EventOrderCreated, func(payload interface{}) {
		order, ok := payload.(*models.Order)
		if !ok {
			return
		}

		if feed != nil {
			feed.BroadcastJSON(map[string]interface{}{
				"event": EventOrderCreated,
				"order": order,
			})
		}

		job := &orderEmailJob{
			OrderID:  order.ID.Hex(),
			Email:    order.Email,
			Name:     order.CustomerName,
			Total:    order.Total,
			Currency: config.StripeCurrency(),
		}
		if err := queue.Dispatch(job); err != nil {
			logger.Error("order email dispatch failed", "order_id", job.OrderID, "error", err)
		}
	})
}
