package controllers

import (
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/lopataa/schoolshop/app/services"
	"github.com/lopataa/schoolshop/pkg/response"
)

type CartController struct {
	cart *services.CartService
}

func NewCartController(cart *services.CartService) *CartController {
	return &CartController{cart: cart}
}

type addItemInput struct {
	ProductID string `json:"productId" validate:"required,objectid"`
	Quantity  int    `json:"quantity" validate:"gte=1"`
}

type updateItemInput struct {
	Quantity int `json:"quantity" validate:"gte=0"`
}

// Create handles POST /carts.
func (c *CartController) Create(w http.ResponseWriter, r *http.Request) {
	cart, err := c.cart.Create(r.Context())
	if err != nil {
		renderError(w, r, err)
		return
	}
	response.Created(w, cart)
}

// Get handles GET /carts/{id}. Reading refreshes the idle window.
func (c *CartController) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	view, err := c.cart.Get(r.Context(), id)
	if err != nil {
		renderError(w, r, err)
		return
	}
	response.Success(w, view)
}

// AddItem handles POST /carts/{id}/items.
func (c *CartController) AddItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var input addItemInput
	if !bindInput(w, r, &input) {
		return
	}
	productID, _ := primitive.ObjectIDFromHex(input.ProductID)

	view, err := c.cart.AddItem(r.Context(), id, productID, input.Quantity)
	if err != nil {
		renderError(w, r, err)
		return
	}
	response.Success(w, view)
}

// UpdateItem handles PUT /carts/{id}/items/{productId}. Quantity 0 removes
// the line.
func (c *CartController) UpdateItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	productID, ok := pathID(w, r, "productId")
	if !ok {
		return
	}

	var input updateItemInput
	if !bindInput(w, r, &input) {
		return
	}

	view, err := c.cart.UpdateItem(r.Context(), id, productID, input.Quantity)
	if err != nil {
		renderError(w, r, err)
		return
	}
	response.Success(w, view)
}

// RemoveItem handles DELETE /carts/{id}/items/{productId}.
func (c *CartController) RemoveItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	productID, ok := pathID(w, r, "productId")
	if !ok {
		return
	}

	view, err := c.cart.RemoveItem(r.Context(), id, productID)
	if err != nil {
		renderError(w, r, err)
		return
	}
	response.Success(w, view)
}

// Clear handles DELETE /carts/{id}/items. The cart is gone afterwards; the
// shopper starts over with a fresh one.
func (c *CartController) Clear(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := c.cart.Clear(r.Context(), id); err != nil {
		renderError(w, r, err)
		return
	}
	response.Success(w, map[string]bool{"cleared": true})
}
