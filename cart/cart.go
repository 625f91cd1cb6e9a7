// Package cart holds the per-session shopping cart. Stock checks here are
// advisory only; the authoritative check is the conditional decrement run
// by the checkout service.
package cart

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"supermarket/checkout"
	"supermarket/models"
)

var ErrNotInCart = errors.New("product not in cart")

// ProductError reports a product the catalog could not resolve.
type ProductError struct {
	ProductID primitive.ObjectID
	Cause     error
}

func (e *ProductError) Error() string {
	return fmt.Sprintf("product %s not found", e.ProductID.Hex())
}

func (e *ProductError) Unwrap() error { return e.Cause }

// Cart keeps lines in insertion order with a productID index for merging.
// It is not safe for concurrent use; the owning session serializes access.
type Cart struct {
	lines []models.CartLine
	index map[primitive.ObjectID]int
}

func New() *Cart {
	return &Cart{index: make(map[primitive.ObjectID]int)}
}

// Add merges quantity into an existing line or appends a new one snapshotting
// the product's current name and price. It fails when the cart total for the
// product would exceed the live stock.
func (c *Cart) Add(ctx context.Context, inv checkout.Inventory, productID primitive.ObjectID, quantity int) error {
	if quantity <= 0 {
		return checkout.ErrBadQuantity
	}
	product, err := inv.GetByID(ctx, productID)
	if err != nil {
		return &ProductError{ProductID: productID, Cause: err}
	}

	existing := 0
	if i, ok := c.index[productID]; ok {
		existing = c.lines[i].Quantity
	}
	if existing+quantity > product.Quantity {
		return &checkout.StockError{ProductID: productID}
	}

	if i, ok := c.index[productID]; ok {
		c.lines[i].Quantity += quantity
		return nil
	}
	c.index[productID] = len(c.lines)
	c.lines = append(c.lines, models.CartLine{
		ProductID: productID,
		Name:      product.Name,
		Price:     product.Price,
		Quantity:  quantity,
	})
	return nil
}

// Update sets an absolute quantity for an existing line, revalidating against
// current stock only (it replaces, it does not add). Quantity zero removes
// the line.
func (c *Cart) Update(ctx context.Context, inv checkout.Inventory, productID primitive.ObjectID, quantity int) error {
	i, ok := c.index[productID]
	if !ok {
		return ErrNotInCart
	}
	if quantity == 0 {
		c.Remove(productID)
		return nil
	}
	if quantity < 0 {
		return checkout.ErrBadQuantity
	}
	product, err := inv.GetByID(ctx, productID)
	if err != nil {
		return &ProductError{ProductID: productID, Cause: err}
	}
	if quantity > product.Quantity {
		return &checkout.StockError{ProductID: productID}
	}
	c.lines[i].Quantity = quantity
	return nil
}

func (c *Cart) Remove(productID primitive.ObjectID) bool {
	i, ok := c.index[productID]
	if !ok {
		return false
	}
	c.lines = append(c.lines[:i], c.lines[i+1:]...)
	delete(c.index, productID)
	for j := i; j < len(c.lines); j++ {
		c.index[c.lines[j].ProductID] = j
	}
	return true
}

func (c *Cart) Clear() {
	c.lines = nil
	c.index = make(map[primitive.ObjectID]int)
}

// Lines returns the cart contents in insertion order. The copy keeps callers
// from mutating the cart behind its back.
func (c *Cart) Lines() []models.CartLine {
	out := make([]models.CartLine, len(c.lines))
	copy(out, c.lines)
	return out
}

func (c *Cart) Total() float64 {
	var total float64
	for _, line := range c.lines {
		total += line.Price * float64(line.Quantity)
	}
	return total
}

func (c *Cart) Len() int { return len(c.lines) }
