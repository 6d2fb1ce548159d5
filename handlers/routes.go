package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/kevinaaaquil/bookstore/middleware"
	"github.com/kevinaaaquil/bookstore/pricing"
	"github.com/kevinaaaquil/bookstore/refsync"
	"github.com/kevinaaaquil/bookstore/store"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server holds everything the routes depend on.
type Server struct {
	DB        *store.DB
	Sync      *refsync.Engine
	Images    ImageStore
	Mail      Sender
	Throttle  Throttle
	JWTSecret string
	TokenTTL  time.Duration
	BaseURL   string
	MaxUpload int64
}

// Router builds the HTTP API.
func (s *Server) Router() http.Handler {
	secret := s.JWTSecret
	authors := &AuthorsHandler{DB: s.DB}
	books := &BooksHandler{DB: s.DB, Sync: s.Sync}
	auth := &AuthHandler{DB: s.DB, JWTSecret: secret, TokenTTL: s.TokenTTL}
	users := &UsersHandler{DB: s.DB}
	reviews := &ReviewsHandler{DB: s.DB, Sync: s.Sync}
	orders := &OrdersHandler{DB: s.DB, Sync: s.Sync, Guard: &pricing.Guard{Catalog: s.DB}}
	upload := &UploadHandler{Images: s.Images, MaxBytes: s.MaxUpload}
	password := &PasswordHandler{DB: s.DB, Mail: s.Mail, Throttle: s.Throttle, JWTSecret: secret, BaseURL: s.BaseURL}
	contact := &ContactHandler{Mail: s.Mail, Logs: s.DB}

	admin := middleware.VerifyTokenAndAdmin(secret)
	selfOrAdmin := middleware.VerifyTokenAndAuthorization(secret)
	reviewOwner := middleware.VerifyOwnership(secret, s.DB.ReviewOwner, reviewNotFound)
	orderOwner := middleware.VerifyOwnership(secret, s.DB.OrderOwner, orderNotFound)

	r := chi.NewRouter()
	r.Use(middleware.AllowAll())
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(middleware.Instrument)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusOK, "welcome to bookstore.")
	})
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/images/*", upload.Image)

	r.Route("/api", func(r chi.Router) {
		r.Route("/authors", func(r chi.Router) {
			r.Get("/", authors.List)
			r.With(admin).Post("/", authors.Create)
			r.Get("/{id}", authors.Get)
			r.With(admin).Put("/{id}", authors.Update)
			r.With(admin).Delete("/{id}", authors.Delete)
		})
		r.Route("/books", func(r chi.Router) {
			r.Get("/", books.List)
			r.With(admin).Post("/", books.Create)
			r.Get("/{id}", books.Get)
			r.With(admin).Put("/{id}", books.Update)
			r.With(admin).Delete("/{id}", books.Delete)
		})
		r.Post("/auth/register", auth.Register)
		r.Post("/auth/login", auth.Login)
		r.Route("/users", func(r chi.Router) {
			r.With(admin).Get("/", users.List)
			r.With(selfOrAdmin).Get("/{id}", users.Get)
			r.With(selfOrAdmin).Put("/{id}", users.Update)
			r.With(selfOrAdmin).Delete("/{id}", users.Delete)
		})
		r.Route("/reviews", func(r chi.Router) {
			r.Get("/", reviews.List)
			r.With(selfOrAdmin).Post("/", reviews.Create)
			r.Get("/{id}", reviews.Get)
			r.With(reviewOwner).Put("/{id}", reviews.Update)
			r.With(reviewOwner).Delete("/{id}", reviews.Delete)
		})
		r.Route("/orders", func(r chi.Router) {
			r.With(admin).Get("/", orders.List)
			r.With(selfOrAdmin).Post("/", orders.Create)
			r.With(orderOwner).Get("/{id}", orders.Get)
			r.With(orderOwner).Put("/{id}", orders.Update)
			r.With(orderOwner).Delete("/{id}", orders.Delete)
		})
		r.Post("/upload", upload.Upload)
		r.Post("/contact", contact.Send)
	})

	r.Route("/password", func(r chi.Router) {
		r.Get("/forgot-password", password.ForgotPasswordView)
		r.Post("/forgot-password", password.SendResetLink)
		r.Get("/reset-password/{userId}/{token}", password.ResetPasswordView)
		r.Post("/reset-password/{userId}/{token}", password.ResetPassword)
	})
	return r
}
