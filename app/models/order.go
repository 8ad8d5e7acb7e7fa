package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OrderItem is a frozen copy of a product at purchase time. Later edits to
// the product never change what the customer bought.
type OrderItem struct {
	ProductID primitive.ObjectID `bson:"productId" json:"productId"`
	Name      string             `bson:"name" json:"name"`
	Price     float64            `bson:"price" json:"price"`
	Quantity  int                `bson:"quantity" json:"quantity"`
	ImageURL  string             `bson:"imageUrl" json:"imageUrl"`
}

// Order is the durable, append-only record of a completed purchase.
// CheckoutSessionID is the idempotency key: at most one order may exist per
// payment session (unique sparse index).
type Order struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Items             []OrderItem        `bson:"items" json:"items"`
	Total             float64            `bson:"total" json:"total"`
	CustomerName      string             `bson:"customerName" json:"customerName"`
	Email             string             `bson:"email" json:"email"`
	Phone             string             `bson:"phone" json:"phone"`
	Address           string             `bson:"address" json:"address"`
	CheckoutSessionID string             `bson:"checkoutSessionId,omitempty" json:"checkoutSessionId,omitempty"`
	CartID            primitive.ObjectID `bson:"cartId,omitempty" json:"cartId,omitempty"`
	CreatedAt         time.Time          `bson:"createdAt" json:"createdAt"`
}
