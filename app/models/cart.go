package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CartItem is one reserved line in a cart. ProductID is a weak reference:
// the product may be edited or deleted later; the reservation stands on its
// own and is joined with live product data at read time.
type CartItem struct {
	ProductID primitive.ObjectID `bson:"productId" json:"productId"`
	Quantity  int                `bson:"quantity" json:"quantity"`
}

// Cart is an ephemeral reservation container. Every quantity in Items is
// backed by stock already decremented from the product, so deleting a cart
// without releasing is only valid when the purchase went through.
//
// Version guards optimistic saves: a concurrent writer that replaced the
// document bumps it, and the loser's save matches nothing.
type Cart struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Items     []CartItem         `bson:"items" json:"items"`
	ExpiresAt time.Time          `bson:"expiresAt" json:"expiresAt"`
	Version   int64              `bson:"version" json:"-"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// ItemFor returns a pointer to the line for productID, or nil.
func (c *Cart) ItemFor(productID primitive.ObjectID) *CartItem {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return &c.Items[i]
		}
	}
	return nil
}

// RemoveItem drops the line for productID, if present.
func (c *Cart) RemoveItem(productID primitive.ObjectID) {
	kept := c.Items[:0]
	for _, item := range c.Items {
		if item.ProductID != productID {
			kept = append(kept, item)
		}
	}
	c.Items = kept
}

// Expired reports whether the cart's idle window has lapsed at now.
func (c *Cart) Expired(now time.Time) bool {
	return !c.ExpiresAt.After(now)
}

// CartView is a cart joined with live product data for display.
type CartView struct {
	ID        primitive.ObjectID `json:"id"`
	Items     []CartViewItem     `json:"items"`
	ExpiresAt time.Time          `json:"expiresAt"`
}

// CartViewItem carries the reservation plus whatever the product looks like
// right now. Product is nil when the referenced product has been deleted.
type CartViewItem struct {
	ProductID primitive.ObjectID `json:"productId"`
	Quantity  int                `json:"quantity"`
	Product   *Product           `json:"product,omitempty"`
}
