package services

import (
	"context"
	"time"

	"github.com/lopataa/schoolshop/config"
	"github.com/lopataa/schoolshop/pkg/logger"
	"github.com/lopataa/schoolshop/pkg/metrics"
	"github.com/lopataa/schoolshop/pkg/schedule"
	"github.com/lopataa/schoolshop/pkg/workerpool"
)

// Sweeper is the background half of cart expiry. On-demand expiry only
// fires when somebody touches a cart; the sweeper catches the carts nobody
// comes back for.
type Sweeper struct {
	cart     *CartService
	pool     *workerpool.Pool
	interval time.Duration
}

func NewSweeper(cart *CartService) *Sweeper {
	return &Sweeper{
		cart:     cart,
		pool:     workerpool.New(4),
		interval: config.CartSweepInterval(),
	}
}

// Start registers the sweep with the scheduler and starts it. Runs until
// ctx is cancelled. WithoutOverlapping keeps a slow sweep from stacking on
// top of itself.
func (w *Sweeper) Start(ctx context.Context) {
	seconds := int(w.interval.Seconds())
	if seconds < 1 {
		seconds = 1
	}

	schedule.Every(seconds).Seconds().
		WithoutOverlapping().
		Name("carts:sweep").
		Run(func() {
			if n := w.Sweep(ctx); n > 0 {
				logger.Info("cart sweep", "expired", n)
			}
		})
	schedule.Start(ctx)
	logger.Info("cart sweeper scheduled", "interval", w.interval)
}

// Sweep drains every cart already expired at the moment it starts. Each
// removal is a conditional find-and-delete, so a sweep racing an on-demand
// expiry or another sweep releases each cart's stock at most once.
func (w *Sweeper) Sweep(ctx context.Context) int {
	now := w.cart.now()
	count := 0
	for {
		removed, err := w.cart.carts.DeleteOneExpired(ctx, now)
		if err != nil {
			logger.WithCtx(ctx).Error("cart sweep failed", "error", err)
			return count
		}
		if removed == nil {
			return count
		}

		items := removed.Items
		if err := w.pool.SubmitWait(func() {
			w.cart.releaseItems(ctx, items)
		}); err != nil {
			// Pool shut down mid-sweep; release inline instead.
			w.cart.releaseItems(ctx, items)
		}
		metrics.CartsExpired.WithLabelValues("sweep").Inc()
		count++
	}
}
