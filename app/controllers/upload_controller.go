package controllers

import (
	"net/http"

	"github.com/lopataa/schoolshop/app/services"
	"github.com/lopataa/schoolshop/pkg/response"
)

type UploadController struct {
	uploads *services.UploadService
}

func NewUploadController(uploads *services.UploadService) *UploadController {
	return &UploadController{uploads: uploads}
}

type presignInput struct {
	Filename    string `json:"filename" validate:"required,max=255"`
	ContentType string `json:"contentType" validate:"required"`
}

// Presign handles POST /admin/uploads. The client PUTs the file to the
// returned URL and stores fileUrl on the product.
func (c *UploadController) Presign(w http.ResponseWriter, r *http.Request) {
	var input presignInput
	if !bindInput(w, r, &input) {
		return
	}

	ticket, err := c.uploads.Presign(r.Context(), input.Filename, input.ContentType)
	if err != nil {
		renderError(w, r, err)
		return
	}
	response.Created(w, ticket)
}
