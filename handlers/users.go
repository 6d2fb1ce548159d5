package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/kevinaaaquil/bookstore/aggregate"
	"github.com/kevinaaaquil/bookstore/apperr"
	"github.com/kevinaaaquil/bookstore/middleware"
	"github.com/kevinaaaquil/bookstore/models"
	"github.com/kevinaaaquil/bookstore/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

const (
	usersPerPage = 10
	userNotFound = "User NOT FOUND!"
)

var (
	userReviewFields = []string{"rating", "comment", "book"}
	userOrderFields  = []string{"quantity", "totalPrice", "book", "createdAt"}
)

// UserStore is the persistence the user routes need.
type UserStore interface {
	aggregate.UserActivityFinder
	ListUsers(ctx context.Context, page store.Page) ([]models.User, error)
	UserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	UserByUsername(ctx context.Context, username string) (*models.User, error)
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUser(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.User, error)
	DeleteUser(ctx context.Context, id primitive.ObjectID) error
}

type UsersHandler struct {
	DB UserStore
}

type updateUserRequest struct {
	FirstName *string `json:"firstName" validate:"omitnil,min=3,max=20"`
	LastName  *string `json:"lastName" validate:"omitnil,min=3,max=20"`
	Username  *string `json:"username" validate:"omitnil,min=3,max=20"`
	Email     *string `json:"email" validate:"omitnil,min=5,max=100,email"`
	Password  *string `json:"password" validate:"omitnil,min=6"`
	IsAdmin   *bool   `json:"isAdmin"`
}

func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := pageNumber(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	users, err := h.DB.ListUsers(r.Context(), store.Page{Number: page, PerPage: usersPerPage})
	if err != nil {
		writeError(w, r, storeError(err, userNotFound))
		return
	}
	out, err := aggregate.FetchUserReviews(r.Context(), h.DB, users, userReviewFields, userOrderFields)
	if err != nil {
		writeError(w, r, apperr.Internal(err, "Something went wrong"))
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *UsersHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	user, err := h.DB.UserByID(r.Context(), id)
	if err != nil {
		writeError(w, r, storeError(err, userNotFound))
		return
	}
	out, err := aggregate.FetchUserReviews(r.Context(), h.DB, []models.User{*user}, userReviewFields, userOrderFields)
	if err != nil {
		writeError(w, r, apperr.Internal(err, "Something went wrong"))
		return
	}
	writeJSON(w, http.StatusOK, out[0])
}

// Update changes profile fields. Only admins may change isAdmin.
func (h *UsersHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req updateUserRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if caller, _ := middleware.IdentityFromContext(r.Context()); req.IsAdmin != nil && !caller.IsAdmin {
		writeError(w, r, apperr.Forbidden("You are not allowed! - ONLY ADMINS."))
		return
	}
	if req.Username != nil {
		if err := h.unclaimed(id, "Username already taken", func() (*models.User, error) {
			return h.DB.UserByUsername(r.Context(), *req.Username)
		}); err != nil {
			writeError(w, r, err)
			return
		}
	}
	if req.Email != nil {
		if err := h.unclaimed(id, "Email already taken", func() (*models.User, error) {
			return h.DB.UserByEmail(r.Context(), *req.Email)
		}); err != nil {
			writeError(w, r, err)
			return
		}
	}

	set := bson.M{}
	setIf(set, "firstName", req.FirstName)
	setIf(set, "lastName", req.LastName)
	setIf(set, "username", req.Username)
	setIf(set, "email", req.Email)
	setIf(set, "isAdmin", req.IsAdmin)
	if req.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			writeError(w, r, apperr.Internal(err, "Error encrypting password"))
			return
		}
		set["password"] = string(hash)
	}
	user, err := h.DB.UpdateUser(r.Context(), id, set)
	if err != nil {
		writeError(w, r, storeError(err, userNotFound))
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// Delete removes the user only; their reviews and orders stay and the
// derived arrays are corrected by the next reconciliation pass.
func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.DB.DeleteUser(r.Context(), id); err != nil {
		writeError(w, r, storeError(err, userNotFound))
		return
	}
	writeMessage(w, http.StatusOK, "This user is successfully deleted!")
}

// unclaimed fails when lookup finds a user other than self.
func (h *UsersHandler) unclaimed(self primitive.ObjectID, msg string, lookup func() (*models.User, error)) error {
	other, err := lookup()
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return apperr.Internal(err, "Something went wrong")
	}
	if other.ID != self {
		return apperr.Conflict(msg)
	}
	return nil
}
