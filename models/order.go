package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Order struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Quantity   float64            `bson:"quantity" json:"quantity"`
	TotalPrice float64            `bson:"totalPrice" json:"totalPrice"`
	User       primitive.ObjectID `bson:"user" json:"user"`
	Book       primitive.ObjectID `bson:"book" json:"book"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time          `bson:"updatedAt" json:"updatedAt"`
}
