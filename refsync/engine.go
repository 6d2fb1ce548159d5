package refsync

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/kevinaaaquil/bookstore/metrics"
	"github.com/kevinaaaquil/bookstore/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Relation string

const (
	AuthorBooks Relation = "author.books"
	BookReviews Relation = "book.reviews"
	UserReviews Relation = "user.reviews"
	UserOrders  Relation = "user.orders"
)

// Source gives the engine access to one relation: the authoritative links,
// the current back-reference arrays and the two array mutations.
type Source interface {
	Links(ctx context.Context) ([]models.Link, error)
	Holders(ctx context.Context) ([]models.Holder, error)
	AddRef(ctx context.Context, parent, child primitive.ObjectID) error
	PullRef(ctx context.Context, parent, child primitive.ObjectID) error
}

// Result summarizes one reconciliation pass.
type Result struct {
	Relation Relation
	Added    int
	Removed  int
}

type Engine struct {
	sources map[Relation]Source
	order   []Relation
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewEngine returns an engine whose background triggers give up after timeout.
func NewEngine(timeout time.Duration) *Engine {
	if timeout <= 0 {
		timeout = time.Minute
	}
	return &Engine{sources: make(map[Relation]Source), timeout: timeout}
}

// Register adds a relation. Relations reconcile in registration order.
func (e *Engine) Register(rel Relation, src Source) {
	if _, ok := e.sources[rel]; !ok {
		e.order = append(e.order, rel)
	}
	e.sources[rel] = src
}

func (e *Engine) source(rel Relation) (Source, error) {
	src, ok := e.sources[rel]
	if !ok {
		return nil, fmt.Errorf("refsync: relation %q not registered", rel)
	}
	return src, nil
}

// Reconcile re-derives one relation's arrays from its authoritative links.
// Every planned operation is attempted; failures are joined into the error and
// the result counts only the operations that succeeded.
func (e *Engine) Reconcile(ctx context.Context, rel Relation) (Result, error) {
	res := Result{Relation: rel}
	src, err := e.source(rel)
	if err != nil {
		return res, err
	}
	links, err := src.Links(ctx)
	if err != nil {
		e.record(res, err)
		return res, fmt.Errorf("refsync %s: read links: %w", rel, err)
	}
	holders, err := src.Holders(ctx)
	if err != nil {
		e.record(res, err)
		return res, fmt.Errorf("refsync %s: read holders: %w", rel, err)
	}

	var errs []error
	for _, op := range Plan(links, holders) {
		if op.Remove {
			if err := src.PullRef(ctx, op.Parent, op.Child); err != nil {
				errs = append(errs, fmt.Errorf("pull %s from %s: %w", op.Child.Hex(), op.Parent.Hex(), err))
				continue
			}
			res.Removed++
			continue
		}
		if err := src.AddRef(ctx, op.Parent, op.Child); err != nil {
			errs = append(errs, fmt.Errorf("add %s to %s: %w", op.Child.Hex(), op.Parent.Hex(), err))
			continue
		}
		res.Added++
	}
	err = errors.Join(errs...)
	e.record(res, err)
	if err != nil {
		return res, fmt.Errorf("refsync %s: %w", rel, err)
	}
	return res, nil
}

// ReconcileAuthorBooks makes every author's books equal to the books naming
// that author.
func (e *Engine) ReconcileAuthorBooks(ctx context.Context) (Result, error) {
	return e.Reconcile(ctx, AuthorBooks)
}

// ReconcileAll runs every registered relation, continuing past failures.
func (e *Engine) ReconcileAll(ctx context.Context) ([]Result, error) {
	results := make([]Result, 0, len(e.order))
	var errs []error
	for _, rel := range e.order {
		res, err := e.Reconcile(ctx, rel)
		results = append(results, res)
		if err != nil {
			errs = append(errs, err)
		}
	}
	return results, errors.Join(errs...)
}

// Attach set-adds child to parent's array in rel.
func (e *Engine) Attach(ctx context.Context, rel Relation, parent, child primitive.ObjectID) error {
	src, err := e.source(rel)
	if err != nil {
		return err
	}
	if err := src.AddRef(ctx, parent, child); err != nil {
		return fmt.Errorf("refsync %s: add %s to %s: %w", rel, child.Hex(), parent.Hex(), err)
	}
	metrics.SyncRefsTotal.WithLabelValues(string(rel), "added").Inc()
	return nil
}

// AttachReviewToBook records a newly created review on its book.
func (e *Engine) AttachReviewToBook(ctx context.Context, bookID, reviewID primitive.ObjectID) error {
	return e.Attach(ctx, BookReviews, bookID, reviewID)
}

// Trigger reconciles rels in the background. The caller never waits and never
// sees the outcome; failures are logged.
func (e *Engine) Trigger(rels ...Relation) {
	e.Go(func() {
		ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
		defer cancel()
		for _, rel := range rels {
			if _, err := e.Reconcile(ctx, rel); err != nil {
				log.Printf("refsync: background %s: %v", rel, err)
			}
		}
	})
}

// Go runs fn in the background. Wait blocks until it returns.
func (e *Engine) Go(fn func()) {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		fn()
	}()
}

// Wait blocks until every background pass has finished.
func (e *Engine) Wait() {
	e.wg.Wait()
}

func (e *Engine) record(res Result, err error) {
	rel := string(res.Relation)
	result := "success"
	if err != nil {
		result = "failure"
	}
	metrics.SyncRunsTotal.WithLabelValues(rel, result).Inc()
	metrics.SyncRefsTotal.WithLabelValues(rel, "added").Add(float64(res.Added))
	metrics.SyncRefsTotal.WithLabelValues(rel, "removed").Add(float64(res.Removed))
}
