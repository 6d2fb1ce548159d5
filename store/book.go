package store

import (
	"context"
	"time"

	"github.com/kevinaaaquil/bookstore/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// BookFilter narrows ListBooks. Nil bounds are open.
type BookFilter struct {
	MinPrice *float64
	MaxPrice *float64
	Page     Page
}

func (f BookFilter) query() bson.M {
	price := bson.M{}
	if f.MinPrice != nil {
		price["$gte"] = *f.MinPrice
	}
	if f.MaxPrice != nil {
		price["$lte"] = *f.MaxPrice
	}
	if len(price) == 0 {
		return bson.M{}
	}
	return bson.M{"price": price}
}

func (db *DB) InsertBook(ctx context.Context, book *models.Book) (primitive.ObjectID, error) {
	now := time.Now()
	book.CreatedAt, book.UpdatedAt = now, now
	if book.Reviews == nil {
		book.Reviews = []primitive.ObjectID{}
	}
	book.AuthorInfo = nil
	res, err := db.Books().InsertOne(ctx, book, options.InsertOne())
	if err != nil {
		return primitive.NilObjectID, err
	}
	return res.InsertedID.(primitive.ObjectID), nil
}

func (db *DB) BookByID(ctx context.Context, id primitive.ObjectID) (*models.Book, error) {
	var book models.Book
	if err := db.Books().FindOne(ctx, bson.M{"_id": id}).Decode(&book); err != nil {
		return nil, notFound(err)
	}
	return &book, nil
}

// BookPrice returns the unit price of a book.
func (db *DB) BookPrice(ctx context.Context, id primitive.ObjectID) (float64, error) {
	var book struct {
		Price float64 `bson:"price"`
	}
	opts := options.FindOne().SetProjection(bson.M{"price": 1})
	if err := db.Books().FindOne(ctx, bson.M{"_id": id}, opts).Decode(&book); err != nil {
		return 0, notFound(err)
	}
	return book.Price, nil
}

// authorJoin embeds the author's summary as authorInfo.
func authorJoin() []bson.D {
	return []bson.D{
		{{Key: "$lookup", Value: bson.M{
			"from":         "authors",
			"localField":   "author",
			"foreignField": "_id",
			"as":           "authorInfo",
		}}},
		{{Key: "$unwind", Value: bson.M{"path": "$authorInfo", "preserveNullAndEmptyArrays": true}}},
		{{Key: "$project", Value: bson.M{
			"authorInfo.books":       0,
			"authorInfo.biography":   0,
			"authorInfo.nationality": 0,
			"authorInfo.image":       0,
			"authorInfo.createdAt":   0,
			"authorInfo.updatedAt":   0,
		}}},
	}
}

// ListBooks returns books sorted by title with their author summary joined.
func (db *DB) ListBooks(ctx context.Context, f BookFilter) ([]models.Book, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: f.query()}},
		{{Key: "$sort", Value: bson.D{{Key: "title", Value: 1}}}},
	}
	pipeline = append(pipeline, f.Page.stages()...)
	pipeline = append(pipeline, authorJoin()...)
	return db.aggregateBooks(ctx, pipeline)
}

// BookWithAuthor is BookByID with the author summary joined.
func (db *DB) BookWithAuthor(ctx context.Context, id primitive.ObjectID) (*models.Book, error) {
	pipeline := mongo.Pipeline{{{Key: "$match", Value: bson.M{"_id": id}}}}
	pipeline = append(pipeline, authorJoin()...)
	books, err := db.aggregateBooks(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	if len(books) == 0 {
		return nil, ErrNotFound
	}
	return &books[0], nil
}

func (db *DB) aggregateBooks(ctx context.Context, pipeline mongo.Pipeline) ([]models.Book, error) {
	cur, err := db.Books().Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	books := []models.Book{}
	if err := cur.All(ctx, &books); err != nil {
		return nil, err
	}
	return books, nil
}

func (db *DB) UpdateBook(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.Book, error) {
	var book models.Book
	if err := updateByID(ctx, db.Books(), id, set, &book); err != nil {
		return nil, err
	}
	return &book, nil
}

// DeleteBook removes a book and returns the deleted document.
func (db *DB) DeleteBook(ctx context.Context, id primitive.ObjectID) (*models.Book, error) {
	var book models.Book
	if err := db.Books().FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&book); err != nil {
		return nil, notFound(err)
	}
	return &book, nil
}
