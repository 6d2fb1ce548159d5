package store

import (
	"context"
	"time"

	"github.com/kevinaaaquil/bookstore/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (db *DB) InsertUser(ctx context.Context, user *models.User) (primitive.ObjectID, error) {
	now := time.Now()
	user.CreatedAt, user.UpdatedAt = now, now
	if user.Orders == nil {
		user.Orders = []primitive.ObjectID{}
	}
	if user.Reviews == nil {
		user.Reviews = []primitive.ObjectID{}
	}
	res, err := db.Users().InsertOne(ctx, user, options.InsertOne())
	if err != nil {
		return primitive.NilObjectID, err
	}
	return res.InsertedID.(primitive.ObjectID), nil
}

func (db *DB) UserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return db.findUser(ctx, bson.M{"_id": id})
}

func (db *DB) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	return db.findUser(ctx, bson.M{"email": email})
}

func (db *DB) UserByUsername(ctx context.Context, username string) (*models.User, error) {
	return db.findUser(ctx, bson.M{"username": username})
}

func (db *DB) findUser(ctx context.Context, filter bson.M) (*models.User, error) {
	var u models.User
	if err := db.Users().FindOne(ctx, filter).Decode(&u); err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// ListUsers returns users sorted by first name.
func (db *DB) ListUsers(ctx context.Context, page Page) ([]models.User, error) {
	opts := page.apply(options.Find().SetSort(bson.D{{Key: "firstName", Value: 1}}))
	cur, err := db.Users().Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	users := []models.User{}
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (db *DB) UpdateUser(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.User, error) {
	var u models.User
	if err := updateByID(ctx, db.Users(), id, set, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// SetPassword stores a new password hash, which also invalidates outstanding reset links.
func (db *DB) SetPassword(ctx context.Context, id primitive.ObjectID, hash string) error {
	_, err := db.UpdateUser(ctx, id, bson.M{"password": hash})
	return err
}

func (db *DB) DeleteUser(ctx context.Context, id primitive.ObjectID) error {
	return deleteByID(ctx, db.Users(), id)
}
