package controllers

import (
	"net/http"

	"github.com/lopataa/schoolshop/app/models"
	"github.com/lopataa/schoolshop/app/repositories"
	"github.com/lopataa/schoolshop/app/services"
	"github.com/lopataa/schoolshop/pkg/response"
)

type ProductController struct {
	products *services.ProductService
}

func NewProductController(products *services.ProductService) *ProductController {
	return &ProductController{products: products}
}

type createProductInput struct {
	Name        string   `json:"name" validate:"required,max=200"`
	Description string   `json:"description"`
	Price       float64  `json:"price" validate:"gte=0"`
	Category    string   `json:"category" validate:"required"`
	Stock       int      `json:"stock" validate:"gte=0"`
	Images      []string `json:"images"`
}

type updateProductInput struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price"`
	Category    *string  `json:"category"`
	Stock       *int     `json:"stock"`
	Images      []string `json:"images"`
}

// List handles GET /products?category=&search=.
func (c *ProductController) List(w http.ResponseWriter, r *http.Request) {
	filter := repositories.ProductFilter{
		Category: r.URL.Query().Get("category"),
		Search:   r.URL.Query().Get("search"),
	}

	products, err := c.products.List(r.Context(), filter)
	if err != nil {
		renderError(w, r, err)
		return
	}
	response.Success(w, products)
}

// Get handles GET /products/{id}.
func (c *ProductController) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	product, err := c.products.Get(r.Context(), id)
	if err != nil {
		renderError(w, r, err)
		return
	}
	response.Success(w, product)
}

// Create handles POST /admin/products.
func (c *ProductController) Create(w http.ResponseWriter, r *http.Request) {
	var input createProductInput
	if !bindInput(w, r, &input) {
		return
	}

	product, err := c.products.Create(r.Context(), &models.Product{
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price,
		Category:    input.Category,
		Stock:       input.Stock,
		Images:      input.Images,
	})
	if err != nil {
		renderError(w, r, err)
		return
	}
	response.Created(w, product)
}

// Update handles PUT /admin/products/{id}. Absent fields stay unchanged.
func (c *ProductController) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var input updateProductInput
	if !bindInput(w, r, &input) {
		return
	}

	product, err := c.products.Update(r.Context(), id, repositories.ProductUpdate{
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price,
		Category:    input.Category,
		Stock:       input.Stock,
		Images:      input.Images,
	})
	if err != nil {
		renderError(w, r, err)
		return
	}
	response.Success(w, product)
}

// Delete handles DELETE /admin/products/{id}.
func (c *ProductController) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := c.products.Delete(r.Context(), id); err != nil {
		renderError(w, r, err)
		return
	}
	response.Success(w, map[string]string{"deleted": id.Hex()})
}
