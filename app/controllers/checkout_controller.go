package controllers

import (
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/lopataa/schoolshop/app/services"
	"github.com/lopataa/schoolshop/pkg/response"
)

type CheckoutController struct {
	checkout *services.CheckoutService
}

func NewCheckoutController(checkout *services.CheckoutService) *CheckoutController {
	return &CheckoutController{checkout: checkout}
}

type createSessionInput struct {
	CartID  string `json:"cartId" validate:"required,objectid"`
	Name    string `json:"name" validate:"required,max=200"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone" validate:"nullable,max=50"`
	Address string `json:"address" validate:"nullable,max=500"`
}

type completeSessionInput struct {
	SessionID string `json:"sessionId" validate:"required"`
}

// CreateSession handles POST /checkout/session. The response carries the
// provider URL to redirect the shopper to.
func (c *CheckoutController) CreateSession(w http.ResponseWriter, r *http.Request) {
	var input createSessionInput
	if !bindInput(w, r, &input) {
		return
	}
	cartID, _ := primitive.ObjectIDFromHex(input.CartID)

	session, err := c.checkout.CreateSession(r.Context(), cartID, services.CustomerInfo{
		Name:    input.Name,
		Email:   input.Email,
		Phone:   input.Phone,
		Address: input.Address,
	})
	if err != nil {
		renderError(w, r, err)
		return
	}
	response.Created(w, map[string]string{
		"sessionId": session.ID,
		"url":       session.URL,
	})
}

// Complete handles POST /checkout/complete. Safe to call repeatedly for
// the same session; only the first call creates the order.
func (c *CheckoutController) Complete(w http.ResponseWriter, r *http.Request) {
	var input completeSessionInput
	if !bindInput(w, r, &input) {
		return
	}

	order, existing, err := c.checkout.CompleteSession(r.Context(), input.SessionID)
	if err != nil {
		renderError(w, r, err)
		return
	}

	body := map[string]interface{}{"order": order, "existing": existing}
	if existing {
		response.Success(w, body)
		return
	}
	response.Created(w, body)
}
