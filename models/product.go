package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Product struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name               string             `bson:"name" json:"name" binding:"required"`
	Description        string             `bson:"description" json:"description"`
	Price              float64            `bson:"price" json:"price" binding:"required"`
	Quantity           int                `bson:"quantity" json:"quantity"`
	Category           string             `bson:"category" json:"category"`
	DiscountPercentage float64            `bson:"discountPercentage" json:"discountPercentage"`
	OfferMessage       string             `bson:"offerMessage" json:"offerMessage"`
	Image              string             `bson:"image" json:"image"`
	CreatedAt          time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt          time.Time          `bson:"updatedAt" json:"updatedAt"`
}
