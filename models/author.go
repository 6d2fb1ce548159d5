package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const DefaultAuthorImage = "default-avatar.png"

type Author struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	FirstName   string               `bson:"firstName" json:"firstName"`
	LastName    string               `bson:"lastName" json:"lastName"`
	Biography   string               `bson:"biography,omitempty" json:"biography,omitempty"`
	Nationality string               `bson:"nationality" json:"nationality"`
	Image       string               `bson:"image" json:"image"`
	Books       []primitive.ObjectID `bson:"books" json:"books"` // derived from Book.Author
	CreatedAt   time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// AuthorSummary is the subset of an author embedded in book listings.
type AuthorSummary struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	FirstName string             `bson:"firstName" json:"firstName"`
	LastName  string             `bson:"lastName" json:"lastName"`
}
