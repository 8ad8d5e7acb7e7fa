// Package server boots the storefront: configuration, collaborators,
// background workers, and the HTTP listener with graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/lopataa/schoolshop/app/controllers"
	"github.com/lopataa/schoolshop/app/repositories"
	"github.com/lopataa/schoolshop/app/routes"
	"github.com/lopataa/schoolshop/app/services"
	"github.com/lopataa/schoolshop/config"
	"github.com/lopataa/schoolshop/pkg/cache"
	"github.com/lopataa/schoolshop/pkg/database"
	"github.com/lopataa/schoolshop/pkg/logger"
	"github.com/lopataa/schoolshop/pkg/payment"
	"github.com/lopataa/schoolshop/pkg/queue"
	"github.com/lopataa/schoolshop/pkg/router"
	"github.com/lopataa/schoolshop/pkg/storage"
	"github.com/lopataa/schoolshop/pkg/ws"
)

const (
	queueWorkers    = 5
	shutdownTimeout = 10 * time.Second
)

// Start runs the storefront until SIGINT/SIGTERM, then drains in-flight
// requests before returning.
func Start() error {
	if err := config.Load(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bootCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	if err := database.Connect(bootCtx); err != nil {
		return fmt.Errorf("server: mongo: %w", err)
	}
	defer func() {
		disconnectCtx, c := context.WithTimeout(context.Background(), 5*time.Second)
		defer c()
		_ = database.Disconnect(disconnectCtx)
	}()

	if config.LogToMongo() {
		sink := logger.NewMongoHandler(database.Collection("logs"))
		logger.UseMongoSink(sink)
		defer sink.Close()
	}

	// Redis is optional; without it the product cache no-ops and the
	// queue falls back to its in-memory driver.
	if err := cache.Connect(); err != nil {
		logger.Warn("redis unavailable, cache disabled", "error", err)
	} else {
		queue.SetDriver(queue.NewRedisDriver(cache.RDB))
	}
	queue.UseCollection(database.Collection("failed_jobs"))

	productRepo := repositories.NewProductRepository(database.DB)
	cartRepo := repositories.NewCartRepository(database.DB)
	orderRepo := repositories.NewOrderRepository(database.DB)
	if err := cartRepo.EnsureIndexes(bootCtx); err != nil {
		return err
	}
	if err := orderRepo.EnsureIndexes(bootCtx); err != nil {
		return err
	}

	var bucket *storage.Bucket
	if config.StorageS3Key() != "" {
		b, err := storage.New(bootCtx)
		if err != nil {
			logger.Warn("object storage unavailable, uploads disabled", "error", err)
		} else {
			bucket = b
		}
	}

	feed := ws.NewHub()
	go feed.Run()

	stripe := payment.NewStripeProvider(config.StripeSecretKey(), config.StripeCurrency())

	cartSvc := services.NewCartService(cartRepo, productRepo)
	productSvc := services.NewProductService(productRepo)
	orderSvc := services.NewOrderService(orderRepo)
	checkoutSvc := services.NewCheckoutService(stripe, cartSvc, productRepo, orderRepo)
	uploadSvc := services.NewUploadService(bucket)
	authSvc := services.NewAuthService()

	services.RegisterJobs(productRepo)
	services.RegisterOrderListeners(feed)
	queue.StartWorkers(ctx, queueWorkers)
	services.NewSweeper(cartSvc).Start(ctx)

	r := router.New()
	routes.Register(r, routes.Controllers{
		Products: controllers.NewProductController(productSvc),
		Carts:    controllers.NewCartController(cartSvc),
		Checkout: controllers.NewCheckoutController(checkoutSvc),
		Orders:   controllers.NewOrderController(orderSvc, feed),
		Admin:    controllers.NewAdminController(authSvc),
		Uploads:  controllers.NewUploadController(uploadSvc),
	})

	srv := &http.Server{
		Addr:         ":" + config.AppPort(),
		Handler:      r.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr, "env", config.AppEnv())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: listen: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	return srv.Shutdown(shutdownCtx)
}
