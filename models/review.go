package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	MinRating = 1
	MaxRating = 5
)

type Review struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Rating    int                `bson:"rating" json:"rating"`
	Comment   string             `bson:"comment,omitempty" json:"comment,omitempty"`
	User      primitive.ObjectID `bson:"user" json:"user"`
	Book      primitive.ObjectID `bson:"book" json:"book"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// ReviewDetail is a projected review with its user expanded. Fields left out
// of the projection stay at their zero value and are omitted from JSON.
type ReviewDetail struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	Rating    int                `bson:"rating,omitempty" json:"rating,omitempty"`
	Comment   string             `bson:"comment,omitempty" json:"comment,omitempty"`
	Book      primitive.ObjectID `bson:"book,omitempty" json:"book,omitempty"`
	User      *UserSummary       `bson:"user,omitempty" json:"user,omitempty"`
	CreatedAt *time.Time         `bson:"createdAt,omitempty" json:"createdAt,omitempty"`
}
