package store

import (
	"context"
	"errors"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNotFound is returned by lookups and writes addressing a missing document.
var ErrNotFound = errors.New("document not found")

type DB struct {
	Client   *mongo.Client
	Database *mongo.Database
}

func NewMongoDB(ctx context.Context, uri, dbName string) (*DB, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}
	log.Println("Connected to MongoDB")
	return &DB{
		Client:   client,
		Database: client.Database(dbName),
	}, nil
}

func (db *DB) Authors() *mongo.Collection {
	return db.Database.Collection("authors")
}

func (db *DB) Books() *mongo.Collection {
	return db.Database.Collection("books")
}

func (db *DB) Users() *mongo.Collection {
	return db.Database.Collection("users")
}

func (db *DB) Reviews() *mongo.Collection {
	return db.Database.Collection("reviews")
}

func (db *DB) Orders() *mongo.Collection {
	return db.Database.Collection("orders")
}

func (db *DB) EmailLogs() *mongo.Collection {
	return db.Database.Collection("email_logs")
}

// EnsureIndexes creates the unique and lookup indexes the API relies on:
// one user per email and username, one review and one order per (user, book).
func (db *DB) EnsureIndexes(ctx context.Context) error {
	unique := options.Index().SetUnique(true)
	specs := []struct {
		coll   *mongo.Collection
		models []mongo.IndexModel
	}{
		{db.Users(), []mongo.IndexModel{
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: unique},
		}},
		{db.Books(), []mongo.IndexModel{
			{Keys: bson.D{{Key: "author", Value: 1}}},
			{Keys: bson.D{{Key: "price", Value: 1}}},
		}},
		{db.Reviews(), []mongo.IndexModel{
			{Keys: bson.D{{Key: "user", Value: 1}, {Key: "book", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "book", Value: 1}}},
			{Keys: bson.D{{Key: "rating", Value: 1}}},
		}},
		{db.Orders(), []mongo.IndexModel{
			{Keys: bson.D{{Key: "user", Value: 1}, {Key: "book", Value: 1}}, Options: unique},
		}},
	}
	for _, s := range specs {
		if _, err := s.coll.Indexes().CreateMany(ctx, s.models); err != nil {
			return err
		}
	}
	return nil
}

func (db *DB) Disconnect(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return db.Client.Disconnect(ctx)
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}

// IsDuplicateKey reports whether err is a unique index violation.
func IsDuplicateKey(err error) bool {
	return mongo.IsDuplicateKeyError(err)
}

// Page describes a 1-based page of results.
type Page struct {
	Number  int64
	PerPage int64
}

func (p Page) apply(opts *options.FindOptions) *options.FindOptions {
	if p.PerPage <= 0 {
		return opts
	}
	n := p.Number
	if n < 1 {
		n = 1
	}
	return opts.SetSkip((n - 1) * p.PerPage).SetLimit(p.PerPage)
}

func (p Page) stages() []bson.D {
	if p.PerPage <= 0 {
		return nil
	}
	n := p.Number
	if n < 1 {
		n = 1
	}
	return []bson.D{
		{{Key: "$skip", Value: (n - 1) * p.PerPage}},
		{{Key: "$limit", Value: p.PerPage}},
	}
}

// projection builds an inclusion projection for fields. "user" expands to the
// public user summary once the user has been joined.
func projection(fields []string) bson.D {
	proj := bson.D{{Key: "_id", Value: 1}}
	for _, f := range fields {
		if f == "user" {
			proj = append(proj,
				bson.E{Key: "user._id", Value: 1},
				bson.E{Key: "user.firstName", Value: 1},
				bson.E{Key: "user.lastName", Value: 1},
				bson.E{Key: "user.email", Value: 1},
			)
			continue
		}
		if f != "_id" && f != "" {
			proj = append(proj, bson.E{Key: f, Value: 1})
		}
	}
	return proj
}

// updateByID applies $set to one document and decodes the updated version into out.
func updateByID(ctx context.Context, coll *mongo.Collection, id any, set bson.M, out any) error {
	set["updatedAt"] = time.Now()
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(out)
	return notFound(err)
}

func deleteByID(ctx context.Context, coll *mongo.Collection, id any) error {
	res, err := coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
