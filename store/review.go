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

// ReviewFilter narrows ListReviews to a rating range.
type ReviewFilter struct {
	MinRate int
	MaxRate int
	Page    Page
}

func (f ReviewFilter) query() bson.M {
	return bson.M{"rating": bson.M{"$gte": f.MinRate, "$lte": f.MaxRate}}
}

func (db *DB) InsertReview(ctx context.Context, review *models.Review) (primitive.ObjectID, error) {
	now := time.Now()
	review.CreatedAt, review.UpdatedAt = now, now
	res, err := db.Reviews().InsertOne(ctx, review, options.InsertOne())
	if err != nil {
		return primitive.NilObjectID, err
	}
	return res.InsertedID.(primitive.ObjectID), nil
}

func (db *DB) ReviewByID(ctx context.Context, id primitive.ObjectID) (*models.Review, error) {
	var r models.Review
	if err := db.Reviews().FindOne(ctx, bson.M{"_id": id}).Decode(&r); err != nil {
		return nil, notFound(err)
	}
	return &r, nil
}

// ReviewOwner returns the user a review belongs to.
func (db *DB) ReviewOwner(ctx context.Context, id primitive.ObjectID) (primitive.ObjectID, error) {
	return ownerOf(ctx, db.Reviews(), id)
}

// ReviewExists reports whether user already reviewed book, ignoring the review exclude.
func (db *DB) ReviewExists(ctx context.Context, user, book, exclude primitive.ObjectID) (bool, error) {
	return pairExists(ctx, db.Reviews(), user, book, exclude)
}

// ReviewDetails returns reviews matching filter, sorted by rating, projected
// to fields with the user expanded.
func (db *DB) ReviewDetails(ctx context.Context, filter bson.M, fields []string, page Page) ([]models.ReviewDetail, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: filter}},
		{{Key: "$sort", Value: bson.D{{Key: "rating", Value: 1}, {Key: "_id", Value: 1}}}},
	}
	pipeline = append(pipeline, page.stages()...)
	pipeline = append(pipeline,
		bson.D{{Key: "$lookup", Value: bson.M{
			"from":         "users",
			"localField":   "user",
			"foreignField": "_id",
			"as":           "user",
		}}},
		bson.D{{Key: "$unwind", Value: bson.M{"path": "$user", "preserveNullAndEmptyArrays": true}}},
		bson.D{{Key: "$project", Value: projection(fields)}},
	)
	cur, err := db.Reviews().Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	reviews := []models.ReviewDetail{}
	if err := cur.All(ctx, &reviews); err != nil {
		return nil, err
	}
	return reviews, nil
}

// ReviewDetailByID returns one review projected to fields with its user expanded.
func (db *DB) ReviewDetailByID(ctx context.Context, id primitive.ObjectID, fields []string) (*models.ReviewDetail, error) {
	reviews, err := db.ReviewDetails(ctx, bson.M{"_id": id}, fields, Page{})
	if err != nil {
		return nil, err
	}
	if len(reviews) == 0 {
		return nil, ErrNotFound
	}
	return &reviews[0], nil
}

func (db *DB) ReviewsByBook(ctx context.Context, bookID primitive.ObjectID, fields []string) ([]models.ReviewDetail, error) {
	return db.ReviewDetails(ctx, bson.M{"book": bookID}, fields, Page{})
}

func (db *DB) ReviewsByUser(ctx context.Context, userID primitive.ObjectID, fields []string) ([]models.ReviewDetail, error) {
	return db.ReviewDetails(ctx, bson.M{"user": userID}, fields, Page{})
}

// ListReviews returns one page of reviews in the rating range and the total match count.
func (db *DB) ListReviews(ctx context.Context, f ReviewFilter, fields []string) ([]models.ReviewDetail, int64, error) {
	reviews, err := db.ReviewDetails(ctx, f.query(), fields, f.Page)
	if err != nil {
		return nil, 0, err
	}
	total, err := db.Reviews().CountDocuments(ctx, f.query())
	if err != nil {
		return nil, 0, err
	}
	return reviews, total, nil
}

func (db *DB) UpdateReview(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.Review, error) {
	var r models.Review
	if err := updateByID(ctx, db.Reviews(), id, set, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (db *DB) DeleteReview(ctx context.Context, id primitive.ObjectID) error {
	return deleteByID(ctx, db.Reviews(), id)
}

// DeleteReviewsByBook removes every review of a book.
func (db *DB) DeleteReviewsByBook(ctx context.Context, bookID primitive.ObjectID) (int64, error) {
	res, err := db.Reviews().DeleteMany(ctx, bson.M{"book": bookID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func ownerOf(ctx context.Context, coll *mongo.Collection, id primitive.ObjectID) (primitive.ObjectID, error) {
	var doc struct {
		User primitive.ObjectID `bson:"user"`
	}
	opts := options.FindOne().SetProjection(bson.M{"user": 1})
	if err := coll.FindOne(ctx, bson.M{"_id": id}, opts).Decode(&doc); err != nil {
		return primitive.NilObjectID, notFound(err)
	}
	return doc.User, nil
}

func pairExists(ctx context.Context, coll *mongo.Collection, user, book, exclude primitive.ObjectID) (bool, error) {
	filter := bson.M{"user": user, "book": book}
	if !exclude.IsZero() {
		filter["_id"] = bson.M{"$ne": exclude}
	}
	n, err := coll.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
