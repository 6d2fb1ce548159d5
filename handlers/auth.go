package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/kevinaaaquil/bookstore/apperr"
	"github.com/kevinaaaquil/bookstore/middleware"
	"github.com/kevinaaaquil/bookstore/models"
	"github.com/kevinaaaquil/bookstore/store"
	"golang.org/x/crypto/bcrypt"
)

const userExists = "This user is already exists - PLEASE LOGIN"

type AuthHandler struct {
	DB        *store.DB
	JWTSecret string
	TokenTTL  time.Duration
}

type registerRequest struct {
	FirstName string `json:"firstName" validate:"omitempty,min=3,max=20"`
	LastName  string `json:"lastName" validate:"omitempty,min=3,max=20"`
	Username  string `json:"username" validate:"required,min=3,max=20"`
	Email     string `json:"email" validate:"required,min=5,max=100,email"`
	Password  string `json:"password" validate:"required,min=6"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,min=5,max=100,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// authResponse is the user document plus its access token.
type authResponse struct {
	*models.User
	Token string `json:"token"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	for _, lookup := range []func() (*models.User, error){
		func() (*models.User, error) { return h.DB.UserByUsername(r.Context(), req.Username) },
		func() (*models.User, error) { return h.DB.UserByEmail(r.Context(), req.Email) },
	} {
		_, err := lookup()
		if err == nil {
			writeError(w, r, apperr.Validation(userExists))
			return
		}
		if !errors.Is(err, store.ErrNotFound) {
			writeError(w, r, apperr.Internal(err, "Something went wrong"))
			return
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, r, apperr.Internal(err, "Error encrypting password"))
		return
	}
	user := &models.User{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Username:  req.Username,
		Email:     req.Email,
		Password:  string(hash),
	}
	id, err := h.DB.InsertUser(r.Context(), user)
	if store.IsDuplicateKey(err) {
		writeError(w, r, apperr.Validation(userExists))
		return
	}
	if err != nil {
		writeError(w, r, apperr.Internal(err, "Something went wrong"))
		return
	}
	user.ID = id
	h.respond(w, r, http.StatusCreated, user)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	invalid := apperr.Validation("Invalid email or password")
	user, err := h.DB.UserByEmail(r.Context(), req.Email)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, r, invalid)
		return
	}
	if err != nil {
		writeError(w, r, apperr.Internal(err, "Something went wrong"))
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		writeError(w, r, invalid)
		return
	}
	h.respond(w, r, http.StatusOK, user)
}

func (h *AuthHandler) respond(w http.ResponseWriter, r *http.Request, status int, user *models.User) {
	token, err := middleware.NewToken(h.JWTSecret, user.ID, user.IsAdmin, h.TokenTTL)
	if err != nil {
		writeError(w, r, apperr.Internal(err, "could not create token"))
		return
	}
	writeJSON(w, status, authResponse{User: user, Token: token})
}
