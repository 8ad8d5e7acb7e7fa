// Package routes declares the HTTP surface: the public storefront API and
// the token-guarded admin API.
package routes

import (
	"net/http"
	"time"

	"github.com/lopataa/schoolshop/app/controllers"
	"github.com/lopataa/schoolshop/config"
	"github.com/lopataa/schoolshop/pkg/metrics"
	"github.com/lopataa/schoolshop/pkg/middleware"
	"github.com/lopataa/schoolshop/pkg/reqid"
	"github.com/lopataa/schoolshop/pkg/response"
	"github.com/lopataa/schoolshop/pkg/router"
)

// Controllers bundles everything Register needs.
type Controllers struct {
	Products *controllers.ProductController
	Carts    *controllers.CartController
	Checkout *controllers.CheckoutController
	Orders   *controllers.OrderController
	Admin    *controllers.AdminController
	Uploads  *controllers.UploadController
}

// Register mounts all routes and global middleware on r.
func Register(r *router.Router, c Controllers) {
	r.Use(
		middleware.Recovery,
		reqid.Middleware(),
		metrics.Middleware(),
		middleware.Logger,
		middleware.CORS(middleware.DefaultCORSOptions(config.CORSOrigins())),
	)

	r.Get("/health", "health", func(w http.ResponseWriter, _ *http.Request) {
		response.Success(w, map[string]string{"status": "ok"})
	})
	r.Get("/metrics", "metrics", metrics.Handler())

	api := r.Group("/api")

	// Public storefront.
	api.Get("/products", "products.list", c.Products.List)
	api.Get("/products/{id}", "products.show", c.Products.Get)

	api.Post("/carts", "carts.create", c.Carts.Create)
	api.Get("/carts/{id}", "carts.show", c.Carts.Get)
	api.Post("/carts/{id}/items", "carts.items.add", c.Carts.AddItem)
	api.Put("/carts/{id}/items/{productId}", "carts.items.update", c.Carts.UpdateItem)
	api.Delete("/carts/{id}/items/{productId}", "carts.items.remove", c.Carts.RemoveItem)
	api.Delete("/carts/{id}/items", "carts.clear", c.Carts.Clear)

	api.Post("/checkout/session", "checkout.session", c.Checkout.CreateSession,
		middleware.RateLimit(10, time.Minute))
	api.Post("/checkout/complete", "checkout.complete", c.Checkout.Complete,
		middleware.RateLimit(30, time.Minute))

	api.Post("/admin/login", "admin.login", c.Admin.Login,
		middleware.RateLimit(5, time.Minute))

	// Admin surface.
	admin := api.Group("/admin", middleware.AdminAuth)
	admin.Post("/products", "admin.products.create", c.Products.Create)
	admin.Put("/products/{id}", "admin.products.update", c.Products.Update)
	admin.Delete("/products/{id}", "admin.products.delete", c.Products.Delete)
	admin.Get("/orders", "admin.orders.list", c.Orders.List)
	admin.Get("/orders/feed", "admin.orders.feed", c.Orders.Feed)
	admin.Post("/uploads", "admin.uploads.presign", c.Uploads.Presign)
}
