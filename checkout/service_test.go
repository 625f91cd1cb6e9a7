package checkout

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"supermarket/models"
)

// fakeStore backs Inventory, Ledger and Transactor in one in-memory struct.
// WithTransaction snapshots state and restores it when fn fails, mirroring
// the all-or-nothing behavior of the real storage transaction.
type fakeStore struct {
	stock  map[primitive.ObjectID]int
	orders []models.Order
	items  []models.OrderItem

	failItemInsert  bool
	failOrderInsert bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{stock: make(map[primitive.ObjectID]int)}
}

func (f *fakeStore) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	q, ok := f.stock[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return &models.Product{ID: id, Quantity: q}, nil
}

func (f *fakeStore) ConditionalDecrement(ctx context.Context, id primitive.ObjectID, amount int) (bool, error) {
	q, ok := f.stock[id]
	if !ok || q < amount {
		return false, nil
	}
	f.stock[id] = q - amount
	return true, nil
}

func (f *fakeStore) Increment(ctx context.Context, id primitive.ObjectID, amount int) error {
	f.stock[id] += amount
	return nil
}

func (f *fakeStore) InsertOrder(ctx context.Context, order *models.Order) error {
	if f.failOrderInsert {
		return errors.New("insert order: connection reset")
	}
	f.orders = append(f.orders, *order)
	return nil
}

func (f *fakeStore) InsertItem(ctx context.Context, item *models.OrderItem) error {
	if f.failItemInsert {
		return errors.New("insert item: connection reset")
	}
	f.items = append(f.items, *item)
	return nil
}

func (f *fakeStore) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	stockBefore := make(map[primitive.ObjectID]int, len(f.stock))
	for k, v := range f.stock {
		stockBefore[k] = v
	}
	ordersBefore := len(f.orders)
	itemsBefore := len(f.items)

	if err := fn(ctx); err != nil {
		f.stock = stockBefore
		f.orders = f.orders[:ordersBefore]
		f.items = f.items[:itemsBefore]
		return err
	}
	return nil
}

func newTestService(f *fakeStore) *Service {
	return NewService(f, f, f)
}

var testUser = primitive.NewObjectID()

func line(id primitive.ObjectID, qty int, price float64) models.CartLine {
	return models.CartLine{ProductID: id, Name: "item", Price: price, Quantity: qty}
}

func TestCreateOrderSuccess(t *testing.T) {
	productID := primitive.NewObjectID()
	store := newFakeStore()
	store.stock[productID] = 2

	svc := newTestService(store)
	receipt, err := svc.CreateOrder(context.Background(), testUser, []models.CartLine{
		line(productID, 2, 3.50),
	})
	require.NoError(t, err)
	require.NotNil(t, receipt)

	assert.InDelta(t, 7.00, receipt.Total, 1e-9)
	assert.Equal(t, 0, store.stock[productID])

	require.Len(t, store.orders, 1)
	order := store.orders[0]
	assert.Equal(t, receipt.OrderID, order.ID)
	assert.Equal(t, testUser, order.UserID)
	assert.Equal(t, "pending", order.Status)
	assert.InDelta(t, 7.00, order.Total, 1e-9)

	require.Len(t, store.items, 1)
	item := store.items[0]
	assert.Equal(t, order.ID, item.OrderID)
	assert.Equal(t, productID, item.ProductID)
	assert.Equal(t, 2, item.Quantity)
	assert.InDelta(t, 3.50, item.Price, 1e-9)
}

func TestCreateOrderInsufficientStock(t *testing.T) {
	productID := primitive.NewObjectID()
	store := newFakeStore()
	store.stock[productID] = 1

	svc := newTestService(store)
	_, err := svc.CreateOrder(context.Background(), testUser, []models.CartLine{
		line(productID, 2, 3.50),
	})

	var stockErr *StockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, productID, stockErr.ProductID)

	// Ledger and inventory untouched.
	assert.Equal(t, 1, store.stock[productID])
	assert.Empty(t, store.orders)
	assert.Empty(t, store.items)
}

func TestCreateOrderMultiItemRollback(t *testing.T) {
	productA := primitive.NewObjectID()
	productB := primitive.NewObjectID()
	store := newFakeStore()
	store.stock[productA] = 5
	store.stock[productB] = 2

	svc := newTestService(store)
	_, err := svc.CreateOrder(context.Background(), testUser, []models.CartLine{
		line(productA, 3, 1.00),
		line(productB, 3, 1.00),
	})

	var stockErr *StockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, productB, stockErr.ProductID)

	// A's decrement succeeded mid-transaction but must be rolled back.
	assert.Equal(t, 5, store.stock[productA])
	assert.Equal(t, 2, store.stock[productB])
	assert.Empty(t, store.orders)
	assert.Empty(t, store.items)
}

func TestCreateOrderUnknownProduct(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	unknown := primitive.NewObjectID()
	_, err := svc.CreateOrder(context.Background(), testUser, []models.CartLine{
		line(unknown, 1, 2.00),
	})

	var stockErr *StockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, unknown, stockErr.ProductID)
	assert.Empty(t, store.orders)
}

func TestCreateOrderEmptyCart(t *testing.T) {
	svc := newTestService(newFakeStore())
	_, err := svc.CreateOrder(context.Background(), testUser, nil)
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestCreateOrderBadQuantity(t *testing.T) {
	productID := primitive.NewObjectID()
	store := newFakeStore()
	store.stock[productID] = 5

	svc := newTestService(store)
	_, err := svc.CreateOrder(context.Background(), testUser, []models.CartLine{
		line(productID, 0, 1.00),
	})
	assert.ErrorIs(t, err, ErrBadQuantity)
	assert.Equal(t, 5, store.stock[productID])
	assert.Empty(t, store.orders)
}

func TestCreateOrderPersistenceRollback(t *testing.T) {
	productID := primitive.NewObjectID()
	store := newFakeStore()
	store.stock[productID] = 5
	store.failItemInsert = true

	svc := newTestService(store)
	_, err := svc.CreateOrder(context.Background(), testUser, []models.CartLine{
		line(productID, 2, 1.00),
	})

	var persistErr *PersistenceError
	require.ErrorAs(t, err, &persistErr)
	assert.NotNil(t, persistErr.Unwrap())

	// The order insert and decrement preceding the failure are undone.
	assert.Equal(t, 5, store.stock[productID])
	assert.Empty(t, store.orders)
	assert.Empty(t, store.items)
}

// CreateOrder is deliberately not idempotent: the same cart submitted twice
// produces two orders and decrements stock twice. Duplicate-submission
// protection lives with the caller.
func TestCreateOrderDoubleSubmit(t *testing.T) {
	productID := primitive.NewObjectID()
	store := newFakeStore()
	store.stock[productID] = 4

	svc := newTestService(store)
	lines := []models.CartLine{line(productID, 1, 2.00)}

	first, err := svc.CreateOrder(context.Background(), testUser, lines)
	require.NoError(t, err)
	second, err := svc.CreateOrder(context.Background(), testUser, lines)
	require.NoError(t, err)

	assert.NotEqual(t, first.OrderID, second.OrderID)
	assert.Equal(t, 2, store.stock[productID])
	assert.Len(t, store.orders, 2)
	assert.Len(t, store.items, 2)
}
