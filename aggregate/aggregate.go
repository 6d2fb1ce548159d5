// Package aggregate attaches related reviews and orders to book and user
// results. Each input record gets its own query; queries run concurrently and
// the output keeps the input order.
package aggregate

import (
	"context"

	"github.com/kevinaaaquil/bookstore/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"
)

// maxInFlight bounds concurrent per-record queries.
const maxInFlight = 8

type BookReviewFinder interface {
	ReviewsByBook(ctx context.Context, bookID primitive.ObjectID, fields []string) ([]models.ReviewDetail, error)
}

type UserActivityFinder interface {
	ReviewsByUser(ctx context.Context, userID primitive.ObjectID, fields []string) ([]models.ReviewDetail, error)
	OrdersByUser(ctx context.Context, userID primitive.ObjectID, fields []string) ([]models.Order, error)
}

// BookWithReviews is a book with its review documents in place of review ids.
type BookWithReviews struct {
	models.Book
	Reviews []models.ReviewDetail `json:"reviews"`
}

// UserWithActivity is a user with review and order documents in place of ids.
type UserWithActivity struct {
	models.User
	Reviews []models.ReviewDetail `json:"reviews"`
	Orders  []models.Order        `json:"orders"`
}

// FetchBookReviews returns a copy of each book with the reviews whose book is
// that book, projected to fields.
func FetchBookReviews(ctx context.Context, finder BookReviewFinder, books []models.Book, fields []string) ([]BookWithReviews, error) {
	out := make([]BookWithReviews, len(books))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxInFlight)
	for i := range books {
		book := books[i]
		g.Go(func() error {
			reviews, err := finder.ReviewsByBook(ctx, book.ID, fields)
			if err != nil {
				return err
			}
			out[i] = BookWithReviews{Book: book, Reviews: nonNil(reviews)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// FetchUserReviews returns a copy of each user with the reviews and orders
// whose user is that user, projected to reviewFields and orderFields.
func FetchUserReviews(ctx context.Context, finder UserActivityFinder, users []models.User, reviewFields, orderFields []string) ([]UserWithActivity, error) {
	out := make([]UserWithActivity, len(users))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxInFlight)
	for i := range users {
		user := users[i]
		g.Go(func() error {
			reviews, err := finder.ReviewsByUser(ctx, user.ID, reviewFields)
			if err != nil {
				return err
			}
			orders, err := finder.OrdersByUser(ctx, user.ID, orderFields)
			if err != nil {
				return err
			}
			out[i] = UserWithActivity{User: user, Reviews: nonNil(reviews), Orders: nonNil(orders)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
