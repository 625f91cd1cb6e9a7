package database

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"supermarket/checkout"
	"supermarket/models"
)

// MongoLedger implements checkout.Ledger plus the order reads and admin
// mutations the controllers need. Line items live in their own collection
// keyed by orderId, so order creation is a multi-document write and must run
// under the transactor.
type MongoLedger struct {
	orders *mongo.Collection
	items  *mongo.Collection
}

func NewMongoLedger(orders, items *mongo.Collection) *MongoLedger {
	return &MongoLedger{orders: orders, items: items}
}

func (l *MongoLedger) InsertOrder(ctx context.Context, order *models.Order) error {
	_, err := l.orders.InsertOne(ctx, order)
	return err
}

func (l *MongoLedger) InsertItem(ctx context.Context, item *models.OrderItem) error {
	_, err := l.items.InsertOne(ctx, item)
	return err
}

func (l *MongoLedger) OrderByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	var order models.Order
	err := l.orders.FindOne(ctx, bson.M{"_id": id}).Decode(&order)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

func (l *MongoLedger) OrdersByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := l.orders.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, err
	}
	var orders []models.Order
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (l *MongoLedger) AllOrders(ctx context.Context) ([]models.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := l.orders.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	var orders []models.Order
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (l *MongoLedger) ItemsByOrder(ctx context.Context, orderID primitive.ObjectID) ([]models.OrderItem, error) {
	cursor, err := l.items.Find(ctx, bson.M{"orderId": orderID})
	if err != nil {
		return nil, err
	}
	var items []models.OrderItem
	if err := cursor.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// UpdateStatusIf moves an order from one status to another, reporting false
// when the order is missing or not in fromStatus anymore.
func (l *MongoLedger) UpdateStatusIf(ctx context.Context, id primitive.ObjectID, fromStatus []string, toStatus string) (bool, error) {
	res, err := l.orders.UpdateOne(ctx,
		bson.M{"_id": id, "status": bson.M{"$in": fromStatus}},
		bson.M{"$set": bson.M{"status": toStatus}},
	)
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

func (l *MongoLedger) UpdateStatus(ctx context.Context, id primitive.ObjectID, toStatus string) error {
	res, err := l.orders.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": toStatus}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteOrder removes an order and cascades to its line items.
func (l *MongoLedger) DeleteOrder(ctx context.Context, tx checkout.Transactor, id primitive.ObjectID) error {
	return tx.WithTransaction(ctx, func(ctx context.Context) error {
		res, err := l.orders.DeleteOne(ctx, bson.M{"_id": id})
		if err != nil {
			return err
		}
		if res.DeletedCount == 0 {
			return ErrNotFound
		}
		_, err = l.items.DeleteMany(ctx, bson.M{"orderId": id})
		return err
	})
}

var _ checkout.Ledger = (*MongoLedger)(nil)

// MongoTransactor implements checkout.Transactor with a mongo session.
// A non-nil error from fn aborts the transaction.
type MongoTransactor struct {
	client *mongo.Client
}

func NewMongoTransactor(client *mongo.Client) *MongoTransactor {
	return &MongoTransactor{client: client}
}

func (t *MongoTransactor) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	sess, err := t.client.StartSession()
	if err != nil {
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

var _ checkout.Transactor = (*MongoTransactor)(nil)
