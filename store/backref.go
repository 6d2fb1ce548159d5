package store

import (
	"context"
	"fmt"

	"github.com/kevinaaaquil/bookstore/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// BackRef is a denormalized array on a parent collection derived from a
// foreign key on a child collection, e.g. authors.books from books.author.
type BackRef struct {
	children   *mongo.Collection
	foreignKey string
	parents    *mongo.Collection
	field      string
}

func (db *DB) AuthorBooks() *BackRef {
	return &BackRef{children: db.Books(), foreignKey: "author", parents: db.Authors(), field: "books"}
}

func (db *DB) BookReviews() *BackRef {
	return &BackRef{children: db.Reviews(), foreignKey: "book", parents: db.Books(), field: "reviews"}
}

func (db *DB) UserReviews() *BackRef {
	return &BackRef{children: db.Reviews(), foreignKey: "user", parents: db.Users(), field: "reviews"}
}

func (db *DB) UserOrders() *BackRef {
	return &BackRef{children: db.Orders(), foreignKey: "user", parents: db.Users(), field: "orders"}
}

// Links reads every child's authoritative reference.
func (b *BackRef) Links(ctx context.Context) ([]models.Link, error) {
	opts := options.Find().SetProjection(bson.M{b.foreignKey: 1})
	cur, err := b.children.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var links []models.Link
	for cur.Next(ctx) {
		child, ok := cur.Current.Lookup("_id").ObjectIDOK()
		if !ok {
			continue
		}
		parent, _ := cur.Current.Lookup(b.foreignKey).ObjectIDOK()
		links = append(links, models.Link{Child: child, Parent: parent})
	}
	return links, cur.Err()
}

// Holders reads every parent's current back-reference array.
func (b *BackRef) Holders(ctx context.Context) ([]models.Holder, error) {
	opts := options.Find().SetProjection(bson.M{b.field: 1})
	cur, err := b.parents.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var holders []models.Holder
	for cur.Next(ctx) {
		id, ok := cur.Current.Lookup("_id").ObjectIDOK()
		if !ok {
			continue
		}
		h := models.Holder{ID: id}
		if arr, ok := cur.Current.Lookup(b.field).ArrayOK(); ok {
			values, err := arr.Values()
			if err != nil {
				return nil, fmt.Errorf("decode %s of %s: %w", b.field, id.Hex(), err)
			}
			for _, v := range values {
				if ref, ok := v.ObjectIDOK(); ok {
					h.Refs = append(h.Refs, ref)
				}
			}
		}
		holders = append(holders, h)
	}
	return holders, cur.Err()
}

// AddRef set-adds child to the parent's array.
func (b *BackRef) AddRef(ctx context.Context, parent, child primitive.ObjectID) error {
	_, err := b.parents.UpdateOne(ctx, bson.M{"_id": parent}, bson.M{"$addToSet": bson.M{b.field: child}})
	return err
}

// PullRef removes every occurrence of child from the parent's array.
func (b *BackRef) PullRef(ctx context.Context, parent, child primitive.ObjectID) error {
	_, err := b.parents.UpdateOne(ctx, bson.M{"_id": parent}, bson.M{"$pull": bson.M{b.field: child}})
	return err
}
