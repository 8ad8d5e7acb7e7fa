package validate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lopataa/schoolshop/pkg/validate"
)

type sampleInput struct {
	Name      string `json:"name" validate:"required,max=10"`
	Email     string `json:"email" validate:"nullable,email"`
	ProductID string `json:"productId" validate:"required,objectid"`
	Quantity  int    `json:"quantity" validate:"gte=1,lte=100"`
	Note      string `json:"-" validate:"max=5"`
}

func TestStructPassesValidInput(t *testing.T) {
	errs := validate.Struct(&sampleInput{
		Name:      "hoodie",
		Email:     "ada@example.com",
		ProductID: "656f1f77bcf86cd799439011",
		Quantity:  3,
	})
	assert.False(t, validate.HasErrors(errs))
}

func TestStructRequired(t *testing.T) {
	errs := validate.Struct(&sampleInput{ProductID: "656f1f77bcf86cd799439011", Quantity: 1})
	assert.Contains(t, errs, "name")

	// Whitespace counts as empty.
	errs = validate.Struct(&sampleInput{Name: "   ", ProductID: "656f1f77bcf86cd799439011", Quantity: 1})
	assert.Contains(t, errs, "name")
}

func TestStructNullableSkipsWhenEmpty(t *testing.T) {
	errs := validate.Struct(&sampleInput{
		Name:      "tee",
		ProductID: "656f1f77bcf86cd799439011",
		Quantity:  1,
	})
	assert.NotContains(t, errs, "email")

	errs = validate.Struct(&sampleInput{
		Name:      "tee",
		Email:     "not-an-email",
		ProductID: "656f1f77bcf86cd799439011",
		Quantity:  1,
	})
	assert.Contains(t, errs, "email")
}

func TestStructObjectID(t *testing.T) {
	errs := validate.Struct(&sampleInput{Name: "tee", ProductID: "nope", Quantity: 1})
	assert.Contains(t, errs, "productId")
}

func TestStructBounds(t *testing.T) {
	errs := validate.Struct(&sampleInput{
		Name:      "tee",
		ProductID: "656f1f77bcf86cd799439011",
		Quantity:  0,
	})
	assert.Contains(t, errs, "quantity")

	errs = validate.Struct(&sampleInput{
		Name:      "a very long product name",
		ProductID: "656f1f77bcf86cd799439011",
		Quantity:  101,
	})
	assert.Contains(t, errs, "name")
	assert.Contains(t, errs, "quantity")
}

func TestStructUsesFieldNameWithoutJSONTag(t *testing.T) {
	errs := validate.Struct(&sampleInput{
		Name:      "tee",
		ProductID: "656f1f77bcf86cd799439011",
		Quantity:  1,
		Note:      "too long note",
	})
	assert.Contains(t, errs, "Note")
}
