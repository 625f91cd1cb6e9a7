package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// CartLine lives only inside a session cart, never in the database.
// Name and price are snapshots taken when the product was added.
type CartLine struct {
	ProductID primitive.ObjectID `json:"productId"`
	Name      string             `json:"name"`
	Price     float64            `json:"price"`
	Quantity  int                `json:"quantity"`
}
