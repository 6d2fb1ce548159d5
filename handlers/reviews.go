package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/kevinaaaquil/bookstore/apperr"
	"github.com/kevinaaaquil/bookstore/models"
	"github.com/kevinaaaquil/bookstore/refsync"
	"github.com/kevinaaaquil/bookstore/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	reviewsPerPage  = 5
	reviewNotFound  = "Review NOT FOUND!"
	reviewDuplicate = "You have already reviewed this book!"
)

var reviewFields = []string{"rating", "comment", "book", "user", "createdAt"}

type ReviewsHandler struct {
	DB   *store.DB
	Sync *refsync.Engine
}

type createReviewRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"required,min=6,max=500"`
	User    string `json:"user" validate:"required,mongodb"`
	Book    string `json:"book" validate:"required,mongodb"`
}

type updateReviewRequest struct {
	Rating  *int    `json:"rating" validate:"omitnil,min=1,max=5"`
	Comment *string `json:"comment" validate:"omitnil,min=6,max=500"`
	Book    *string `json:"book" validate:"omitnil,mongodb"`
}

type reviewPage struct {
	Reviews      []models.ReviewDetail `json:"reviews"`
	Page         int64                 `json:"page"`
	TotalPages   int64                 `json:"totalPages"`
	TotalReviews int64                 `json:"totalReviews"`
}

func rateParam(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < models.MinRating || n > models.MaxRating {
		return 0, apperr.Validationf("Invalid %s", name)
	}
	return n, nil
}

func (h *ReviewsHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := pageNumber(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	filter := store.ReviewFilter{Page: store.Page{Number: page, PerPage: reviewsPerPage}}
	if filter.MinRate, err = rateParam(r, "minRate", models.MinRating); err != nil {
		writeError(w, r, err)
		return
	}
	if filter.MaxRate, err = rateParam(r, "maxRate", models.MaxRating); err != nil {
		writeError(w, r, err)
		return
	}
	reviews, total, err := h.DB.ListReviews(r.Context(), filter, reviewFields)
	if err != nil {
		writeError(w, r, storeError(err, reviewNotFound))
		return
	}
	writeJSON(w, http.StatusOK, reviewPage{
		Reviews:      reviews,
		Page:         page,
		TotalPages:   (total + reviewsPerPage - 1) / reviewsPerPage,
		TotalReviews: total,
	})
}

func (h *ReviewsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	review, err := h.DB.ReviewDetailByID(r.Context(), id, reviewFields)
	if err != nil {
		writeError(w, r, storeError(err, reviewNotFound))
		return
	}
	writeJSON(w, http.StatusOK, review)
}

func (h *ReviewsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createReviewRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	userID, bookID := hexID(req.User), hexID(req.Book)
	if err := referencesExist(r, h.DB, userID, bookID); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.unique(r, userID, bookID, primitive.NilObjectID); err != nil {
		writeError(w, r, err)
		return
	}

	review := &models.Review{Rating: req.Rating, Comment: req.Comment, User: userID, Book: bookID}
	id, err := h.DB.InsertReview(r.Context(), review)
	if store.IsDuplicateKey(err) {
		writeError(w, r, apperr.Conflict(reviewDuplicate))
		return
	}
	if err != nil {
		writeError(w, r, apperr.Internal(err, "Something went wrong"))
		return
	}
	review.ID = id

	if err := h.Sync.AttachReviewToBook(r.Context(), bookID, id); err != nil {
		log.Printf("attach review %s: %v", id.Hex(), err)
	}
	if err := h.Sync.Attach(r.Context(), refsync.UserReviews, userID, id); err != nil {
		log.Printf("attach review %s: %v", id.Hex(), err)
	}
	writeJSON(w, http.StatusCreated, review)
}

func (h *ReviewsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req updateReviewRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	existing, err := h.DB.ReviewByID(r.Context(), id)
	if err != nil {
		writeError(w, r, storeError(err, reviewNotFound))
		return
	}

	set := bson.M{}
	setIf(set, "rating", req.Rating)
	setIf(set, "comment", req.Comment)
	if req.Book != nil && hexID(*req.Book) != existing.Book {
		bookID := hexID(*req.Book)
		if err := referencesExist(r, h.DB, existing.User, bookID); err != nil {
			writeError(w, r, err)
			return
		}
		if err := h.unique(r, existing.User, bookID, id); err != nil {
			writeError(w, r, err)
			return
		}
		set["book"] = bookID
	}
	if _, err := h.DB.UpdateReview(r.Context(), id, set); err != nil {
		if store.IsDuplicateKey(err) {
			err = apperr.Conflict(reviewDuplicate)
		}
		writeError(w, r, storeError(err, reviewNotFound))
		return
	}
	h.Sync.Trigger(refsync.BookReviews, refsync.UserReviews)

	review, err := h.DB.ReviewDetailByID(r.Context(), id, reviewFields)
	if err != nil {
		writeError(w, r, storeError(err, reviewNotFound))
		return
	}
	writeJSON(w, http.StatusOK, review)
}

func (h *ReviewsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.DB.DeleteReview(r.Context(), id); err != nil {
		writeError(w, r, storeError(err, reviewNotFound))
		return
	}
	h.Sync.Trigger(refsync.BookReviews, refsync.UserReviews)
	writeMessage(w, http.StatusOK, "Review DELETED successfully")
}

func (h *ReviewsHandler) unique(r *http.Request, userID, bookID, exclude primitive.ObjectID) error {
	dup, err := h.DB.ReviewExists(r.Context(), userID, bookID, exclude)
	if err != nil {
		return apperr.Internal(err, "Something went wrong")
	}
	if dup {
		return apperr.Conflict(reviewDuplicate)
	}
	return nil
}

// References resolves the user and book a review or order points at.
type References interface {
	UserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	BookByID(ctx context.Context, id primitive.ObjectID) (*models.Book, error)
}

// referencesExist checks that both ends of a review or order are present.
func referencesExist(r *http.Request, db References, userID, bookID primitive.ObjectID) error {
	if _, err := db.UserByID(r.Context(), userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound(userNotFound)
		}
		return apperr.Internal(err, "Something went wrong")
	}
	if _, err := db.BookByID(r.Context(), bookID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound(bookNotFound)
		}
		return apperr.Internal(err, "Something went wrong")
	}
	return nil
}
