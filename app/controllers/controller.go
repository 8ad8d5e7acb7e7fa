// Package controllers translates HTTP requests into service calls and
// service results into the JSON response envelope.
package controllers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/lopataa/schoolshop/app/services"
	"github.com/lopataa/schoolshop/pkg/bind"
	"github.com/lopataa/schoolshop/pkg/logger"
	"github.com/lopataa/schoolshop/pkg/response"
)

// bindInput decodes and validates the request body into dest. On failure
// it writes the appropriate response and returns false.
func bindInput(w http.ResponseWriter, r *http.Request, dest interface{}) bool {
	errs, err := bind.JSON(r, dest)
	if err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return false
	}
	if len(errs) > 0 {
		response.ValidationError(w, errs)
		return false
	}
	return true
}

// pathID parses the named URL parameter as an ObjectID. On failure it
// writes a 400 and returns false.
func pathID(w http.ResponseWriter, r *http.Request, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, name))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "invalid "+name)
		return primitive.NilObjectID, false
	}
	return id, true
}

// renderError maps the service error taxonomy onto HTTP statuses.
func renderError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		response.NotFound(w, "not found")
	case errors.Is(err, services.ErrValidation):
		response.Error(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, services.ErrConflict):
		response.Error(w, http.StatusConflict, "conflicting update, please retry")
	case errors.Is(err, services.ErrUnauthorized):
		response.Unauthorized(w)
	case errors.Is(err, services.ErrPaymentIncomplete):
		response.Error(w, http.StatusPaymentRequired, err.Error())
	default:
		logger.WithCtx(r.Context()).Error("request failed", "error", err)
		response.Error(w, http.StatusInternalServerError, "internal server error")
	}
}
