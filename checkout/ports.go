package checkout

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"supermarket/models"
)

// Inventory is the catalog/stock collaborator. ConditionalDecrement reduces
// a product's stock only when at least amount units remain, reporting false
// otherwise. It is the sole concurrency control for stock.
type Inventory interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	ConditionalDecrement(ctx context.Context, id primitive.ObjectID, amount int) (bool, error)
	Increment(ctx context.Context, id primitive.ObjectID, amount int) error
}

// Ledger persists orders and their line items.
type Ledger interface {
	InsertOrder(ctx context.Context, order *models.Order) error
	InsertItem(ctx context.Context, item *models.OrderItem) error
}

// Transactor runs fn inside a storage transaction. A non-nil error from fn
// rolls back every write made through the ctx it receives.
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Locker is a single-flight guard used to keep a duplicate submission from
// creating a second order while the first one is in flight.
type Locker interface {
	TryLock(ctx context.Context, scope, key string) (bool, error)
	Unlock(ctx context.Context, scope, key string) error
}
