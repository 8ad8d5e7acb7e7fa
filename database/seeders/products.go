package seeders

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/lopataa/schoolshop/app/models"
	"github.com/lopataa/schoolshop/app/repositories"
)

func init() {
	Register("products", seedProducts)
}

// seedProducts fills an empty catalogue with demo stock. It is a no-op
// when any product already exists, so it is safe to run repeatedly.
func seedProducts(ctx context.Context, db *mongo.Database) error {
	count, err := db.Collection("products").CountDocuments(ctx, bson.M{})
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	repo := repositories.NewProductRepository(db)
	demo := []models.Product{
		{Name: "College hoodie", Description: "Navy fleece hoodie with embroidered crest", Price: 39.90, Category: "apparel", Stock: 50},
		{Name: "Campus tee", Description: "Classic cotton tee, unisex fit", Price: 14.50, Category: "apparel", Stock: 120},
		{Name: "Insulated bottle", Description: "500 ml stainless steel, keeps drinks cold 12h", Price: 21.00, Category: "accessories", Stock: 75},
		{Name: "Canvas tote", Description: "Heavyweight tote with inner pocket", Price: 12.00, Category: "accessories", Stock: 90},
		{Name: "Hardcover notebook", Description: "A5 dotted, 192 pages", Price: 8.90, Category: "stationery", Stock: 200},
		{Name: "Sticker pack", Description: "Six die-cut vinyl stickers", Price: 4.50, Category: "stationery", Stock: 300},
	}

	for i := range demo {
		if err := repo.Create(ctx, &demo[i]); err != nil {
			return err
		}
	}
	return nil
}
