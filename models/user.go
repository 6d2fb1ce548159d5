package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type User struct {
	ID        primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	FirstName string               `bson:"firstName,omitempty" json:"firstName,omitempty"`
	LastName  string               `bson:"lastName,omitempty" json:"lastName,omitempty"`
	Username  string               `bson:"username" json:"username"`
	Email     string               `bson:"email" json:"email"`
	Password  string               `bson:"password" json:"-"` // bcrypt hash
	IsAdmin   bool                 `bson:"isAdmin" json:"isAdmin"`
	Orders    []primitive.ObjectID `bson:"orders" json:"orders"`   // derived from Order.User
	Reviews   []primitive.ObjectID `bson:"reviews" json:"reviews"` // derived from Review.User
	CreatedAt time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// UserSummary is the expanded form of a review's user reference.
type UserSummary struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	FirstName string             `bson:"firstName,omitempty" json:"firstName,omitempty"`
	LastName  string             `bson:"lastName,omitempty" json:"lastName,omitempty"`
	Email     string             `bson:"email" json:"email"`
}
