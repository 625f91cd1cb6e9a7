// Package checkout converts a session cart into a durable order with an
// atomic, all-or-nothing stock reservation.
package checkout

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"supermarket/models"
)

type Service struct {
	inventory Inventory
	ledger    Ledger
	tx        Transactor
}

func NewService(inventory Inventory, ledger Ledger, tx Transactor) *Service {
	return &Service{inventory: inventory, ledger: ledger, tx: tx}
}

type Receipt struct {
	OrderID primitive.ObjectID
	Total   float64
}

// CreateOrder records one order plus one line item per cart line, decrementing
// stock conditionally for each item in cart order. Any short stock or storage
// failure aborts the whole transaction; no partial order or decrement survives.
//
// The call is not idempotent: submitting the same cart twice creates two
// orders and decrements stock twice. Callers guard against duplicate
// submission with a Locker and clear the cart only after success.
func (s *Service) CreateOrder(ctx context.Context, userID primitive.ObjectID, lines []models.CartLine) (*Receipt, error) {
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}
	var total float64
	for _, line := range lines {
		if line.Quantity <= 0 {
			return nil, ErrBadQuantity
		}
		total += line.Price * float64(line.Quantity)
	}

	order := &models.Order{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		Total:     total,
		Status:    "pending",
		CreatedAt: time.Now(),
	}

	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.ledger.InsertOrder(ctx, order); err != nil {
			return &PersistenceError{Cause: err}
		}
		// Items are processed in cart order, one conditional decrement each.
		for _, line := range lines {
			ok, err := s.inventory.ConditionalDecrement(ctx, line.ProductID, line.Quantity)
			if err != nil {
				return &PersistenceError{Cause: err}
			}
			if !ok {
				return &StockError{ProductID: line.ProductID}
			}
			item := &models.OrderItem{
				ID:        primitive.NewObjectID(),
				OrderID:   order.ID,
				ProductID: line.ProductID,
				Quantity:  line.Quantity,
				Price:     line.Price,
			}
			if err := s.ledger.InsertItem(ctx, item); err != nil {
				return &PersistenceError{Cause: err}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &Receipt{OrderID: order.ID, Total: total}, nil
}
