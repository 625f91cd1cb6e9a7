package cart

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"supermarket/checkout"
	"supermarket/models"
)

type fakeInventory struct {
	products map[primitive.ObjectID]*models.Product
}

func (f *fakeInventory) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, errors.New("not found")
	}
	cp := *p
	return &cp, nil
}

func (f *fakeInventory) ConditionalDecrement(ctx context.Context, id primitive.ObjectID, amount int) (bool, error) {
	p, ok := f.products[id]
	if !ok || p.Quantity < amount {
		return false, nil
	}
	p.Quantity -= amount
	return true, nil
}

func (f *fakeInventory) Increment(ctx context.Context, id primitive.ObjectID, amount int) error {
	if p, ok := f.products[id]; ok {
		p.Quantity += amount
	}
	return nil
}

func inventoryWith(products ...*models.Product) *fakeInventory {
	inv := &fakeInventory{products: make(map[primitive.ObjectID]*models.Product)}
	for _, p := range products {
		inv.products[p.ID] = p
	}
	return inv
}

func product(name string, price float64, stock int) *models.Product {
	return &models.Product{ID: primitive.NewObjectID(), Name: name, Price: price, Quantity: stock}
}

func TestAddSnapshotsNameAndPrice(t *testing.T) {
	apples := product("Apples", 1.20, 10)
	inv := inventoryWith(apples)
	c := New()

	require.NoError(t, c.Add(context.Background(), inv, apples.ID, 2))

	// Later catalog changes must not touch the snapshot.
	apples.Price = 9.99
	apples.Name = "Golden Apples"

	lines := c.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, "Apples", lines[0].Name)
	assert.InDelta(t, 1.20, lines[0].Price, 1e-9)
	assert.Equal(t, 2, lines[0].Quantity)
}

func TestAddMergesQuantities(t *testing.T) {
	apples := product("Apples", 1.20, 10)
	inv := inventoryWith(apples)
	c := New()

	require.NoError(t, c.Add(context.Background(), inv, apples.ID, 2))
	require.NoError(t, c.Add(context.Background(), inv, apples.ID, 3))

	lines := c.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, 5, lines[0].Quantity)
}

func TestAddRejectsOverStock(t *testing.T) {
	apples := product("Apples", 1.20, 3)
	inv := inventoryWith(apples)
	c := New()

	require.NoError(t, c.Add(context.Background(), inv, apples.ID, 2))

	// Existing cart quantity counts against available stock.
	err := c.Add(context.Background(), inv, apples.ID, 2)
	var stockErr *checkout.StockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, apples.ID, stockErr.ProductID)
	assert.Equal(t, 2, c.Lines()[0].Quantity)
}

func TestAddUnknownProduct(t *testing.T) {
	inv := inventoryWith()
	c := New()

	err := c.Add(context.Background(), inv, primitive.NewObjectID(), 1)
	var productErr *ProductError
	assert.ErrorAs(t, err, &productErr)
	assert.Equal(t, 0, c.Len())
}

func TestAddBadQuantity(t *testing.T) {
	c := New()
	err := c.Add(context.Background(), inventoryWith(), primitive.NewObjectID(), 0)
	assert.ErrorIs(t, err, checkout.ErrBadQuantity)
}

func TestUpdateReplacesQuantity(t *testing.T) {
	apples := product("Apples", 1.20, 5)
	inv := inventoryWith(apples)
	c := New()

	require.NoError(t, c.Add(context.Background(), inv, apples.ID, 4))
	// Update replaces rather than adds, so 5 fits 5 in stock.
	require.NoError(t, c.Update(context.Background(), inv, apples.ID, 5))
	assert.Equal(t, 5, c.Lines()[0].Quantity)
}

func TestUpdateRejectsOverStock(t *testing.T) {
	apples := product("Apples", 1.20, 5)
	inv := inventoryWith(apples)
	c := New()

	require.NoError(t, c.Add(context.Background(), inv, apples.ID, 2))
	err := c.Update(context.Background(), inv, apples.ID, 6)
	var stockErr *checkout.StockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 2, c.Lines()[0].Quantity)
}

func TestUpdateZeroRemovesLine(t *testing.T) {
	apples := product("Apples", 1.20, 5)
	inv := inventoryWith(apples)
	c := New()

	require.NoError(t, c.Add(context.Background(), inv, apples.ID, 2))
	require.NoError(t, c.Update(context.Background(), inv, apples.ID, 0))
	assert.Equal(t, 0, c.Len())
}

func TestUpdateMissingLine(t *testing.T) {
	c := New()
	err := c.Update(context.Background(), inventoryWith(), primitive.NewObjectID(), 1)
	assert.ErrorIs(t, err, ErrNotInCart)
}

func TestRemoveKeepsOrder(t *testing.T) {
	a := product("A", 1, 10)
	b := product("B", 2, 10)
	d := product("D", 3, 10)
	inv := inventoryWith(a, b, d)
	c := New()

	require.NoError(t, c.Add(context.Background(), inv, a.ID, 1))
	require.NoError(t, c.Add(context.Background(), inv, b.ID, 1))
	require.NoError(t, c.Add(context.Background(), inv, d.ID, 1))

	assert.True(t, c.Remove(b.ID))
	assert.False(t, c.Remove(b.ID))

	lines := c.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, a.ID, lines[0].ProductID)
	assert.Equal(t, d.ID, lines[1].ProductID)

	// The index stays consistent after removal.
	require.NoError(t, c.Update(context.Background(), inv, d.ID, 4))
	assert.Equal(t, 4, c.Lines()[1].Quantity)
}

func TestLinesIsSideEffectFreeCopy(t *testing.T) {
	apples := product("Apples", 1.20, 10)
	inv := inventoryWith(apples)
	c := New()
	require.NoError(t, c.Add(context.Background(), inv, apples.ID, 2))

	first := c.Lines()
	second := c.Lines()
	assert.Equal(t, first, second)

	first[0].Quantity = 99
	assert.Equal(t, 2, c.Lines()[0].Quantity)
}

func TestTotalAndClear(t *testing.T) {
	a := product("A", 1.50, 10)
	b := product("B", 2.25, 10)
	inv := inventoryWith(a, b)
	c := New()

	require.NoError(t, c.Add(context.Background(), inv, a.ID, 2)) // 3.00
	require.NoError(t, c.Add(context.Background(), inv, b.ID, 4)) // 9.00
	assert.InDelta(t, 12.00, c.Total(), 1e-9)

	c.Clear()
	assert.Equal(t, 0, c.Len())
	assert.Zero(t, c.Total())
	assert.Empty(t, c.Lines())
}
