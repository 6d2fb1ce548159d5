package handlers

import (
	"net/http"

	"github.com/kevinaaaquil/bookstore/models"
	"github.com/kevinaaaquil/bookstore/store"
	"go.mongodb.org/mongo-driver/bson"
)

const (
	authorsPerPage = 5
	authorNotFound = "This author is NOT FOUND!"
)

type AuthorsHandler struct {
	DB *store.DB
}

type createAuthorRequest struct {
	FirstName   string `json:"firstName" validate:"required,min=3,max=20"`
	LastName    string `json:"lastName" validate:"required,min=3,max=20"`
	Biography   string `json:"biography" validate:"omitempty,min=5,max=500"`
	Nationality string `json:"nationality" validate:"required,min=3,max=100"`
	Image       string `json:"image"`
}

type updateAuthorRequest struct {
	FirstName   *string `json:"firstName" validate:"omitnil,min=3,max=20"`
	LastName    *string `json:"lastName" validate:"omitnil,min=3,max=20"`
	Biography   *string `json:"biography" validate:"omitnil,min=5,max=500"`
	Nationality *string `json:"nationality" validate:"omitnil,min=3,max=100"`
	Image       *string `json:"image"`
}

func (req updateAuthorRequest) set() bson.M {
	set := bson.M{}
	setIf(set, "firstName", req.FirstName)
	setIf(set, "lastName", req.LastName)
	setIf(set, "biography", req.Biography)
	setIf(set, "nationality", req.Nationality)
	setIf(set, "image", req.Image)
	return set
}

func setIf[T any](set bson.M, key string, v *T) {
	if v != nil {
		set[key] = *v
	}
}

func (h *AuthorsHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := pageNumber(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	authors, err := h.DB.ListAuthors(r.Context(), store.Page{Number: page, PerPage: authorsPerPage})
	if err != nil {
		writeError(w, r, storeError(err, authorNotFound))
		return
	}
	writeJSON(w, http.StatusOK, authors)
}

func (h *AuthorsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	author, err := h.DB.AuthorByID(r.Context(), id)
	if err != nil {
		writeError(w, r, storeError(err, authorNotFound))
		return
	}
	writeJSON(w, http.StatusOK, author)
}

func (h *AuthorsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createAuthorRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	author := &models.Author{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Biography:   req.Biography,
		Nationality: req.Nationality,
		Image:       req.Image,
	}
	id, err := h.DB.InsertAuthor(r.Context(), author)
	if err != nil {
		writeError(w, r, storeError(err, authorNotFound))
		return
	}
	author.ID = id
	writeJSON(w, http.StatusCreated, author)
}

func (h *AuthorsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req updateAuthorRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	author, err := h.DB.UpdateAuthor(r.Context(), id, req.set())
	if err != nil {
		writeError(w, r, storeError(err, authorNotFound))
		return
	}
	writeJSON(w, http.StatusOK, author)
}

// Delete removes the author only. Books naming the author are left as they are.
func (h *AuthorsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.DB.DeleteAuthor(r.Context(), id); err != nil {
		writeError(w, r, storeError(err, authorNotFound))
		return
	}
	writeMessage(w, http.StatusOK, "This author is DELETED successfully.")
}
