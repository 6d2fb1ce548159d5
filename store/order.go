package store

import (
	"context"
	"time"

	"github.com/kevinaaaquil/bookstore/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (db *DB) InsertOrder(ctx context.Context, order *models.Order) (primitive.ObjectID, error) {
	now := time.Now()
	order.CreatedAt, order.UpdatedAt = now, now
	res, err := db.Orders().InsertOne(ctx, order, options.InsertOne())
	if err != nil {
		return primitive.NilObjectID, err
	}
	return res.InsertedID.(primitive.ObjectID), nil
}

func (db *DB) OrderByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	var o models.Order
	if err := db.Orders().FindOne(ctx, bson.M{"_id": id}).Decode(&o); err != nil {
		return nil, notFound(err)
	}
	return &o, nil
}

// OrderOwner returns the user an order belongs to.
func (db *DB) OrderOwner(ctx context.Context, id primitive.ObjectID) (primitive.ObjectID, error) {
	return ownerOf(ctx, db.Orders(), id)
}

// OrderExists reports whether an order for (user, book) exists, ignoring the order exclude.
func (db *DB) OrderExists(ctx context.Context, user, book, exclude primitive.ObjectID) (bool, error) {
	return pairExists(ctx, db.Orders(), user, book, exclude)
}

func (db *DB) ListOrders(ctx context.Context, page Page) ([]models.Order, error) {
	return db.findOrders(ctx, bson.M{}, page.apply(options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})))
}

// OrdersByUser returns a user's orders projected to fields.
func (db *DB) OrdersByUser(ctx context.Context, userID primitive.ObjectID, fields []string) ([]models.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetProjection(projection(fields))
	return db.findOrders(ctx, bson.M{"user": userID}, opts)
}

func (db *DB) findOrders(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Order, error) {
	cur, err := db.Orders().Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	orders := []models.Order{}
	if err := cur.All(ctx, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (db *DB) UpdateOrder(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.Order, error) {
	var o models.Order
	if err := updateByID(ctx, db.Orders(), id, set, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

func (db *DB) DeleteOrder(ctx context.Context, id primitive.ObjectID) error {
	return deleteByID(ctx, db.Orders(), id)
}
