// Package pricing validates that an order's total covers quantity times the
// unit price of its book, on create and on every update.
package pricing

import (
	"context"
	"errors"
	"fmt"

	"github.com/kevinaaaquil/bookstore/apperr"
	"github.com/kevinaaaquil/bookstore/models"
	"github.com/kevinaaaquil/bookstore/store"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Catalog resolves book prices and existing orders.
type Catalog interface {
	BookPrice(ctx context.Context, bookID primitive.ObjectID) (float64, error)
	OrderExists(ctx context.Context, user, book, exclude primitive.ObjectID) (bool, error)
}

type Guard struct {
	Catalog Catalog
}

// Draft is an order about to be created.
type Draft struct {
	User       primitive.ObjectID
	Book       primitive.ObjectID
	Quantity   float64
	TotalPrice float64
}

// Patch holds the fields an update supplies; nil means unchanged.
type Patch struct {
	User       *primitive.ObjectID
	Book       *primitive.ObjectID
	Quantity   *float64
	TotalPrice *float64
}

// Touches reports whether the patch can affect the price invariant or the
// (user, book) uniqueness.
func (p Patch) Touches() bool {
	return p.User != nil || p.Book != nil || p.Quantity != nil || p.TotalPrice != nil
}

// Expected returns unitPrice × quantity.
func Expected(unitPrice, quantity float64) decimal.Decimal {
	return decimal.NewFromFloat(unitPrice).Mul(decimal.NewFromFloat(quantity))
}

// Check rejects totalPrice below unitPrice × quantity.
func Check(quantity, totalPrice, unitPrice float64) error {
	expected := Expected(unitPrice, quantity)
	total := decimal.NewFromFloat(totalPrice)
	if total.LessThan(expected) {
		return apperr.Validationf("totalPrice %s is less than the expected %s (%s × %s), short by %s",
			total, expected, decimal.NewFromFloat(unitPrice), decimal.NewFromFloat(quantity), expected.Sub(total))
	}
	return nil
}

// CheckCreate validates a new order before it is inserted.
func (g *Guard) CheckCreate(ctx context.Context, d Draft) error {
	price, err := g.price(ctx, d.Book)
	if err != nil {
		return err
	}
	if err := Check(d.Quantity, d.TotalPrice, price); err != nil {
		return err
	}
	return g.unique(ctx, d.User, d.Book, primitive.NilObjectID)
}

// CheckUpdate resolves the order as it would be after applying p, validates
// it and returns it. Nothing is written.
func (g *Guard) CheckUpdate(ctx context.Context, existing models.Order, p Patch) (models.Order, error) {
	next := existing
	if p.User != nil {
		next.User = *p.User
	}
	if p.Book != nil {
		next.Book = *p.Book
	}
	if p.Quantity != nil {
		next.Quantity = *p.Quantity
	}
	if p.TotalPrice != nil {
		next.TotalPrice = *p.TotalPrice
	}

	price, err := g.price(ctx, next.Book)
	if err != nil {
		return existing, err
	}
	if err := Check(next.Quantity, next.TotalPrice, price); err != nil {
		return existing, err
	}
	if next.User != existing.User || next.Book != existing.Book {
		if err := g.unique(ctx, next.User, next.Book, existing.ID); err != nil {
			return existing, err
		}
	}
	return next, nil
}

func (g *Guard) price(ctx context.Context, bookID primitive.ObjectID) (float64, error) {
	price, err := g.Catalog.BookPrice(ctx, bookID)
	if errors.Is(err, store.ErrNotFound) {
		return 0, apperr.NotFound("This book is NOT FOUND!")
	}
	if err != nil {
		return 0, apperr.Internal(fmt.Errorf("book price %s: %w", bookID.Hex(), err), "Something went wrong")
	}
	return price, nil
}

func (g *Guard) unique(ctx context.Context, user, book, exclude primitive.ObjectID) error {
	exists, err := g.Catalog.OrderExists(ctx, user, book, exclude)
	if err != nil {
		return apperr.Internal(fmt.Errorf("order lookup: %w", err), "Something went wrong")
	}
	if exists {
		return apperr.Conflict("An order for this book already exists for this user")
	}
	return nil
}
