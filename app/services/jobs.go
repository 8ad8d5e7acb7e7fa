package services

import (
	"context"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/lopataa/schoolshop/app/repositories"
	"github.com/lopataa/schoolshop/pkg/mail"
	"github.com/lopataa/schoolshop/pkg/metrics"
	"github.com/lopataa/schoolshop/pkg/queue"
)

// jobLedger is the stock ledger used by queued jobs. Jobs are rebuilt from
// their serialized payload by the worker, so they reach their collaborators
// through this package-level handle set at boot.
var jobLedger repositories.ProductStore

// RegisterJobs wires job types into the queue. Call once at boot, before
// workers start.
func RegisterJobs(products repositories.ProductStore) {
	jobLedger = products
	queue.Register("*services.releaseStockJob", func() queue.Job { return &releaseStockJob{} })
	queue.Register("*services.orderEmailJob", func() queue.Job { return &orderEmailJob{} })
}

// releaseStockJob re-drives a stock release that failed inline. Release is
// an unconditional increment, so at-least-once delivery is acceptable only
// because the queue is the last resort: a job is dispatched exactly when
// the inline release did not happen.
type releaseStockJob struct {
	ProductID string `json:"productId"`
	Qty       int    `json:"qty"`
}

func (j *releaseStockJob) Handle() error {
	id, err := primitive.ObjectIDFromHex(j.ProductID)
	if err != nil {
		return fmt.Errorf("release job: bad product id %q: %w", j.ProductID, err)
	}
	if err := jobLedger.ReleaseStock(context.Background(), id, j.Qty); err != nil {
		return err
	}
	metrics.StockReservations.WithLabelValues("released").Inc()
	return nil
}

// orderEmailJob sends the order confirmation. Queued so a slow or flaky
// SMTP server never delays the checkout response.
type orderEmailJob struct {
	OrderID  string  `json:"orderId"`
	Email    string  `json:"email"`
	Name     string  `json:"name"`
	Total    float64 `json:"total"`
	Currency string  `json:"currency"`
}

func (j *orderEmailJob) Handle() error {
	if j.Email == "" {
		return nil
	}
	body := fmt.Sprintf(
		"Hi %s,\n\nThanks for your purchase! Your order %s for %.2f %s is confirmed.\n\nSchool Shop",
		j.Name, j.OrderID, j.Total, strings.ToUpper(j.Currency))
	return mail.To(j.Email).
		Subject("Your order is confirmed").
		Text(body).
		Send()
}
