package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/lopataa/schoolshop/app/models"
)

// CartRepository implements CartStore on a MongoDB collection.
type CartRepository struct {
	col *mongo.Collection
}

func NewCartRepository(db *mongo.Database) *CartRepository {
	return &CartRepository{col: db.Collection("carts")}
}

// EnsureIndexes creates the expiresAt index used by the sweep's
// find-and-delete scans.
func (r *CartRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "expiresAt", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("carts: ensure indexes: %w", err)
	}
	return nil
}

func (r *CartRepository) Create(ctx context.Context, cart *models.Cart) error {
	now := time.Now()
	cart.CreatedAt = now
	cart.UpdatedAt = now
	cart.Version = 1
	if cart.Items == nil {
		cart.Items = []models.CartItem{}
	}

	res, err := r.col.InsertOne(ctx, cart)
	if err != nil {
		return fmt.Errorf("carts: insert: %w", err)
	}
	cart.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (r *CartRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Cart, error) {
	var cart models.Cart
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&cart)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("carts: find %s: %w", id.Hex(), err)
	}
	return &cart, nil
}

// Save is an optimistic replace: the filter matches the version the caller
// loaded, so a concurrent writer that bumped it makes this save match
// nothing. On success the in-memory version is bumped to match the store.
func (r *CartRepository) Save(ctx context.Context, cart *models.Cart) error {
	loadedVersion := cart.Version
	cart.Version = loadedVersion + 1
	cart.UpdatedAt = time.Now()

	res, err := r.col.ReplaceOne(ctx,
		bson.M{"_id": cart.ID, "version": loadedVersion},
		cart,
	)
	if err != nil {
		cart.Version = loadedVersion
		return fmt.Errorf("carts: save %s: %w", cart.ID.Hex(), err)
	}
	if res.MatchedCount == 0 {
		cart.Version = loadedVersion

		// Distinguish "document changed underneath us" from "gone".
		count, countErr := r.col.CountDocuments(ctx, bson.M{"_id": cart.ID}, options.Count().SetLimit(1))
		if countErr == nil && count == 0 {
			return ErrNotFound
		}
		return ErrConflict
	}
	return nil
}

func (r *CartRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("carts: delete %s: %w", id.Hex(), err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteIfExpired is the exactly-once expiry primitive: the delete is
// conditioned on both identity and the expiry predicate, so of all racing
// callers at most one receives the removed document back.
func (r *CartRepository) DeleteIfExpired(ctx context.Context, id primitive.ObjectID, now time.Time) (*models.Cart, error) {
	var cart models.Cart
	err := r.col.FindOneAndDelete(ctx, bson.M{
		"_id":       id,
		"expiresAt": bson.M{"$lte": now},
	}).Decode(&cart)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("carts: delete expired %s: %w", id.Hex(), err)
	}
	return &cart, nil
}

func (r *CartRepository) DeleteOneExpired(ctx context.Context, now time.Time) (*models.Cart, error) {
	var cart models.Cart
	err := r.col.FindOneAndDelete(ctx, bson.M{
		"expiresAt": bson.M{"$lte": now},
	}).Decode(&cart)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("carts: delete one expired: %w", err)
	}
	return &cart, nil
}
