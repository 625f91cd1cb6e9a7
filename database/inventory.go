package database

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"supermarket/checkout"
	"supermarket/models"
)

var ErrNotFound = errors.New("not found")

// MongoInventory implements checkout.Inventory against the products
// collection. The stock column is the only inventory signal.
type MongoInventory struct {
	col *mongo.Collection
}

func NewMongoInventory(col *mongo.Collection) *MongoInventory {
	return &MongoInventory{col: col}
}

func (inv *MongoInventory) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	var product models.Product
	err := inv.col.FindOne(ctx, bson.M{"_id": id}).Decode(&product)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &product, nil
}

// ConditionalDecrement reduces stock by amount only when at least amount
// units remain. Zero matched documents means insufficient stock or an
// unknown product.
func (inv *MongoInventory) ConditionalDecrement(ctx context.Context, id primitive.ObjectID, amount int) (bool, error) {
	res, err := inv.col.UpdateOne(ctx,
		bson.M{"_id": id, "quantity": bson.M{"$gte": amount}},
		bson.M{
			"$inc": bson.M{"quantity": -amount},
			"$set": bson.M{"updatedAt": time.Now()},
		},
	)
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

func (inv *MongoInventory) Increment(ctx context.Context, id primitive.ObjectID, amount int) error {
	res, err := inv.col.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{
			"$inc": bson.M{"quantity": amount},
			"$set": bson.M{"updatedAt": time.Now()},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

var _ checkout.Inventory = (*MongoInventory)(nil)
