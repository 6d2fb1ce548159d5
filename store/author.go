package store

import (
	"context"
	"time"

	"github.com/kevinaaaquil/bookstore/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (db *DB) InsertAuthor(ctx context.Context, author *models.Author) (primitive.ObjectID, error) {
	now := time.Now()
	author.CreatedAt, author.UpdatedAt = now, now
	if author.Books == nil {
		author.Books = []primitive.ObjectID{}
	}
	if author.Image == "" {
		author.Image = models.DefaultAuthorImage
	}
	res, err := db.Authors().InsertOne(ctx, author, options.InsertOne())
	if err != nil {
		return primitive.NilObjectID, err
	}
	return res.InsertedID.(primitive.ObjectID), nil
}

func (db *DB) AuthorByID(ctx context.Context, id primitive.ObjectID) (*models.Author, error) {
	var a models.Author
	if err := db.Authors().FindOne(ctx, bson.M{"_id": id}).Decode(&a); err != nil {
		return nil, notFound(err)
	}
	return &a, nil
}

// ListAuthors returns authors sorted by first name.
func (db *DB) ListAuthors(ctx context.Context, page Page) ([]models.Author, error) {
	opts := page.apply(options.Find().SetSort(bson.D{{Key: "firstName", Value: 1}}))
	cur, err := db.Authors().Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	authors := []models.Author{}
	if err := cur.All(ctx, &authors); err != nil {
		return nil, err
	}
	return authors, nil
}

func (db *DB) UpdateAuthor(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.Author, error) {
	var a models.Author
	if err := updateByID(ctx, db.Authors(), id, set, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (db *DB) DeleteAuthor(ctx context.Context, id primitive.ObjectID) error {
	return deleteByID(ctx, db.Authors(), id)
}
