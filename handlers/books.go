package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/kevinaaaquil/bookstore/aggregate"
	"github.com/kevinaaaquil/bookstore/apperr"
	"github.com/kevinaaaquil/bookstore/models"
	"github.com/kevinaaaquil/bookstore/refsync"
	"github.com/kevinaaaquil/bookstore/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	booksPerPage = 5
	bookNotFound = "This book is NOT FOUND!"
)

// bookReviewFields is what a book listing shows of each review.
var bookReviewFields = []string{"rating", "comment", "user", "createdAt"}

type BooksHandler struct {
	DB   *store.DB
	Sync *refsync.Engine
}

type createBookRequest struct {
	Title       string  `json:"title" validate:"required,min=3,max=200"`
	Author      string  `json:"author" validate:"required,mongodb"`
	Description string  `json:"description" validate:"required,min=5,max=500"`
	Price       float64 `json:"price" validate:"gte=0"`
	Cover       string  `json:"cover" validate:"required,oneof=soft-cover hard-cover"`
}

type updateBookRequest struct {
	Title       *string  `json:"title" validate:"omitnil,min=3,max=200"`
	Author      *string  `json:"author" validate:"omitnil,mongodb"`
	Description *string  `json:"description" validate:"omitnil,min=5,max=500"`
	Price       *float64 `json:"price" validate:"omitnil,gte=0"`
	Cover       *string  `json:"cover" validate:"omitnil,oneof=soft-cover hard-cover"`
}

func (req updateBookRequest) set() bson.M {
	set := bson.M{}
	setIf(set, "title", req.Title)
	setIf(set, "description", req.Description)
	setIf(set, "price", req.Price)
	setIf(set, "cover", req.Cover)
	if req.Author != nil {
		set["author"] = hexID(*req.Author)
	}
	return set
}

func (h *BooksHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := pageNumber(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	filter := store.BookFilter{Page: store.Page{Number: page, PerPage: booksPerPage}}
	if filter.MinPrice, err = queryFloat(r, "minPrice"); err != nil {
		writeError(w, r, err)
		return
	}
	if filter.MaxPrice, err = queryFloat(r, "maxPrice"); err != nil {
		writeError(w, r, err)
		return
	}
	books, err := h.DB.ListBooks(r.Context(), filter)
	if err != nil {
		writeError(w, r, storeError(err, bookNotFound))
		return
	}
	out, err := aggregate.FetchBookReviews(r.Context(), h.DB, books, bookReviewFields)
	if err != nil {
		writeError(w, r, apperr.Internal(err, "Something went wrong"))
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *BooksHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	book, err := h.DB.BookWithAuthor(r.Context(), id)
	if err != nil {
		writeError(w, r, storeError(err, bookNotFound))
		return
	}
	out, err := aggregate.FetchBookReviews(r.Context(), h.DB, []models.Book{*book}, bookReviewFields)
	if err != nil {
		writeError(w, r, apperr.Internal(err, "Something went wrong"))
		return
	}
	writeJSON(w, http.StatusOK, out[0])
}

func (h *BooksHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createBookRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	authorID := hexID(req.Author)
	if err := h.authorExists(r, authorID); err != nil {
		writeError(w, r, err)
		return
	}
	book := &models.Book{
		Title:       req.Title,
		Author:      authorID,
		Description: req.Description,
		Price:       req.Price,
		Cover:       req.Cover,
	}
	id, err := h.DB.InsertBook(r.Context(), book)
	if err != nil {
		writeError(w, r, storeError(err, bookNotFound))
		return
	}
	book.ID = id
	h.Sync.Trigger(refsync.AuthorBooks)
	writeJSON(w, http.StatusCreated, book)
}

func (h *BooksHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req updateBookRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Author != nil {
		if err := h.authorExists(r, hexID(*req.Author)); err != nil {
			writeError(w, r, err)
			return
		}
	}
	book, err := h.DB.UpdateBook(r.Context(), id, req.set())
	if err != nil {
		writeError(w, r, storeError(err, bookNotFound))
		return
	}
	if req.Author != nil {
		h.Sync.Trigger(refsync.AuthorBooks)
	}
	writeJSON(w, http.StatusOK, book)
}

// Delete removes a book and its reviews, then reconciles every array that
// could still hold them.
func (h *BooksHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if _, err := h.DB.DeleteBook(r.Context(), id); err != nil {
		writeError(w, r, storeError(err, bookNotFound))
		return
	}
	if n, err := h.DB.DeleteReviewsByBook(r.Context(), id); err != nil {
		log.Printf("delete reviews of book %s: %v", id.Hex(), err)
	} else if n > 0 {
		log.Printf("deleted %d reviews of book %s", n, id.Hex())
	}
	h.Sync.Trigger(refsync.AuthorBooks, refsync.BookReviews, refsync.UserReviews)
	writeMessage(w, http.StatusOK, "This book is deleted successfully")
}

func (h *BooksHandler) authorExists(r *http.Request, id primitive.ObjectID) error {
	_, err := h.DB.AuthorByID(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound(authorNotFound)
	}
	if err != nil {
		return apperr.Internal(err, "Something went wrong")
	}
	return nil
}
