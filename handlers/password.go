package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/kevinaaaquil/bookstore/metrics"
	"github.com/kevinaaaquil/bookstore/models"
	"github.com/kevinaaaquil/bookstore/service"
	"github.com/kevinaaaquil/bookstore/store"
	"github.com/kevinaaaquil/bookstore/views"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

const resetTokenTTL = 10 * time.Minute

// Sender delivers outbound email.
type Sender interface {
	Send(ctx context.Context, e service.Email) error
	Inbox() string
}

// Throttle limits how often a user may request a reset link.
type Throttle interface {
	Allow(ctx context.Context, userID string) (bool, error)
	Release(ctx context.Context, userID string) error
}

type PasswordHandler struct {
	DB        *store.DB
	Mail      Sender
	Throttle  Throttle
	JWTSecret string
	BaseURL   string
}

type resetClaims struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// resetSecret binds a reset link to the password it replaces, so a link
// stops working once it has been used.
func (h *PasswordHandler) resetSecret(u *models.User) []byte {
	return []byte(h.JWTSecret + u.Password)
}

func (h *PasswordHandler) newResetToken(u *models.User, now time.Time) (string, error) {
	claims := &resetClaims{
		ID:    u.ID.Hex(),
		Email: u.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(resetTokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(h.resetSecret(u))
}

func (h *PasswordHandler) verifyResetToken(u *models.User, raw string) error {
	var claims resetClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		return h.resetSecret(u), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return err
	}
	if claims.ID != u.ID.Hex() {
		return errors.New("token issued for another user")
	}
	return nil
}

func render(w http.ResponseWriter, status int, page string, data views.Data) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := views.Render(w, page, data); err != nil {
		log.Printf("render %s: %v", page, err)
	}
}

func (h *PasswordHandler) ForgotPasswordView(w http.ResponseWriter, r *http.Request) {
	render(w, http.StatusOK, views.ForgotPassword, views.Data{})
}

// SendResetLink mails a single-use reset link valid for 10 minutes.
func (h *PasswordHandler) SendResetLink(w http.ResponseWriter, r *http.Request) {
	email := r.FormValue("email")
	if email == "" {
		render(w, http.StatusBadRequest, views.ForgotPassword, views.Data{Error: "Email is required"})
		return
	}
	user, err := h.DB.UserByEmail(r.Context(), email)
	if errors.Is(err, store.ErrNotFound) {
		writeMessage(w, http.StatusNotFound, userNotFound)
		return
	}
	if err != nil {
		log.Printf("forgot password: %v", err)
		writeMessage(w, http.StatusInternalServerError, "Something went wrong.")
		return
	}

	ok, err := h.Throttle.Allow(r.Context(), user.ID.Hex())
	if err != nil {
		log.Printf("forgot password: %v", err)
	} else if !ok {
		render(w, http.StatusTooManyRequests, views.ForgotPassword, views.Data{
			Email: email,
			Error: "A reset link was sent recently. Please check your inbox or try again later.",
		})
		return
	}

	token, err := h.newResetToken(user, time.Now())
	if err != nil {
		log.Printf("forgot password: sign token: %v", err)
		writeMessage(w, http.StatusInternalServerError, "Something went wrong.")
		return
	}
	link := fmt.Sprintf("%s/password/reset-password/%s/%s", h.BaseURL, user.ID.Hex(), token)
	msg := service.Email{
		To:      user.Email,
		Subject: "Reset Password",
		HTML:    `<div><h4>Click on the link below to reset your password!</h4><p>` + link + `</p></div>`,
	}
	if err := h.Mail.Send(r.Context(), msg); err != nil {
		log.Printf("send mail error: %v", err)
		metrics.EmailsSentTotal.WithLabelValues(models.EmailKindPasswordReset, "failure").Inc()
		if err := h.Throttle.Release(r.Context(), user.ID.Hex()); err != nil {
			log.Printf("forgot password: %v", err)
		}
		writeMessage(w, http.StatusInternalServerError, "Something went wrong.")
		return
	}
	metrics.EmailsSentTotal.WithLabelValues(models.EmailKindPasswordReset, "success").Inc()
	logEmail(r.Context(), h.DB, &models.EmailLog{
		Kind:    models.EmailKindPasswordReset,
		ToEmail: user.Email,
		Subject: msg.Subject,
		UserID:  user.ID,
	})
	render(w, http.StatusOK, views.LinkSent, views.Data{Email: user.Email})
}

// resetTarget loads the user named in the link and checks the token.
func (h *PasswordHandler) resetTarget(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "userId"))
	if err != nil {
		writeMessage(w, http.StatusNotFound, userNotFound)
		return nil, false
	}
	user, err := h.DB.UserByID(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeMessage(w, http.StatusNotFound, userNotFound)
		return nil, false
	}
	if err != nil {
		log.Printf("reset password: %v", err)
		writeMessage(w, http.StatusInternalServerError, "Something went wrong.")
		return nil, false
	}
	if err := h.verifyResetToken(user, chi.URLParam(r, "token")); err != nil {
		writeMessage(w, http.StatusBadRequest, "reset link is invalid or has expired")
		return nil, false
	}
	return user, true
}

func (h *PasswordHandler) ResetPasswordView(w http.ResponseWriter, r *http.Request) {
	user, ok := h.resetTarget(w, r)
	if !ok {
		return
	}
	render(w, http.StatusOK, views.ResetPassword, views.Data{Email: user.Email})
}

func (h *PasswordHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	user, ok := h.resetTarget(w, r)
	if !ok {
		return
	}
	password := r.FormValue("password")
	if len(password) < 6 {
		render(w, http.StatusBadRequest, views.ResetPassword, views.Data{
			Email: user.Email,
			Error: `"password" length must be at least 6 characters long`,
		})
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("reset password: %v", err)
		writeMessage(w, http.StatusInternalServerError, "Something went wrong.")
		return
	}
	if err := h.DB.SetPassword(r.Context(), user.ID, string(hash)); err != nil {
		log.Printf("reset password: %v", err)
		writeMessage(w, http.StatusInternalServerError, "Something went wrong.")
		return
	}
	render(w, http.StatusOK, views.PasswordChanged, views.Data{})
}

// EmailLogger records sent email.
type EmailLogger interface {
	InsertEmailLog(ctx context.Context, entry *models.EmailLog) error
}

func logEmail(ctx context.Context, logs EmailLogger, entry *models.EmailLog) {
	if err := logs.InsertEmailLog(ctx, entry); err != nil {
		log.Printf("failed to insert email log: %v", err)
	}
}
