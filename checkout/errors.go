package checkout

import (
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrEmptyCart   = errors.New("cart is empty")
	ErrBadQuantity = errors.New("quantity must be positive")
)

// StockError reports the first product whose conditional decrement matched
// zero rows. A product that does not exist at all surfaces the same way,
// since the decrement filter cannot tell the two apart.
type StockError struct {
	ProductID primitive.ObjectID
}

func (e *StockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s", e.ProductID.Hex())
}

// PersistenceError wraps a storage failure. The transaction it occurred in
// has already been rolled back by the time the caller sees it.
type PersistenceError struct {
	Cause error
}

func (e *PersistenceError) Error() string {
	return "checkout persistence failure: " + e.Cause.Error()
}

func (e *PersistenceError) Unwrap() error { return e.Cause }
