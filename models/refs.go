package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Link is one authoritative reference: Child points at Parent through its
// foreign-key field (e.g. a book and its author).
type Link struct {
	Child  primitive.ObjectID
	Parent primitive.ObjectID
}

// Holder is a parent document and its denormalized back-reference array.
type Holder struct {
	ID   primitive.ObjectID
	Refs []primitive.ObjectID
}
