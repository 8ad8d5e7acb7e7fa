package controllers

import (
	"net/http"

	"github.com/lopataa/schoolshop/app/services"
	"github.com/lopataa/schoolshop/pkg/response"
)

type AdminController struct {
	auth *services.AuthService
}

func NewAdminController(auth *services.AuthService) *AdminController {
	return &AdminController{auth: auth}
}

type loginInput struct {
	Password string `json:"password" validate:"required"`
}

// Login handles POST /admin/login and issues a bearer token on success.
func (c *AdminController) Login(w http.ResponseWriter, r *http.Request) {
	var input loginInput
	if !bindInput(w, r, &input) {
		return
	}

	token, err := c.auth.Login(input.Password)
	if err != nil {
		renderError(w, r, err)
		return
	}
	response.Success(w, map[string]string{"token": token})
}
