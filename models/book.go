package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	CoverSoft = "soft-cover"
	CoverHard = "hard-cover"
)

type Book struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Title       string               `bson:"title" json:"title"`
	Author      primitive.ObjectID   `bson:"author" json:"author"` // authoritative
	Description string               `bson:"description" json:"description"`
	Price       float64              `bson:"price" json:"price"`
	Cover       string               `bson:"cover" json:"cover"`
	Reviews     []primitive.ObjectID `bson:"reviews" json:"reviews"` // derived from Review.Book
	CreatedAt   time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time            `bson:"updatedAt" json:"updatedAt"`

	// AuthorInfo is filled by listing queries that join the author; never stored.
	AuthorInfo *AuthorSummary `bson:"authorInfo,omitempty" json:"authorInfo,omitempty"`
}
