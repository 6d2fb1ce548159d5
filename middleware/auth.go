package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/kevinaaaquil/bookstore/apperr"
	"github.com/kevinaaaquil/bookstore/store"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type contextKey string

const identityKey contextKey = "identity"

// TokenHeader carries the access token on every protected request.
const TokenHeader = "token"

const maxInspectedBody = 1 << 20

// Identity is the authenticated caller.
type Identity struct {
	ID      string
	IsAdmin bool
}

type Claims struct {
	ID      string `json:"id"`
	IsAdmin bool   `json:"isAdmin"`
	jwt.RegisteredClaims
}

// NewToken signs an access token for a user. A zero ttl issues a token without expiry.
func NewToken(secret string, userID primitive.ObjectID, isAdmin bool, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		ID:      userID.Hex(),
		IsAdmin: isAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func parseToken(secret, raw string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid claims")
	}
	return claims, nil
}

// IdentityFromContext returns the caller attached by VerifyToken.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}

// WithIdentity attaches an identity to ctx.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// VerifyToken rejects requests without a valid token and attaches the caller's identity.
func VerifyToken(secret string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := r.Header.Get(TokenHeader)
			if raw == "" {
				fail(w, apperr.Unauthenticated("NO TOKEN PROVIDED!"))
				return
			}
			claims, err := parseToken(secret, raw)
			if err != nil {
				fail(w, apperr.Unauthenticated("INVALID TOKEN!"))
				return
			}
			ctx := WithIdentity(r.Context(), Identity{ID: claims.ID, IsAdmin: claims.IsAdmin})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// VerifyTokenAndAuthorization lets through admins and callers acting on
// themselves. Routes with an {id} URL parameter are decided on it alone;
// writes without one are decided on the "user" field of the body.
func VerifyTokenAndAuthorization(secret string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return VerifyToken(secret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller, _ := IdentityFromContext(r.Context())
			if caller.IsAdmin {
				next.ServeHTTP(w, r)
				return
			}
			if id := chi.URLParam(r, "id"); id != "" {
				if !sameID(caller.ID, id) {
					fail(w, apperr.Forbidden("You are not allowed!"))
					return
				}
				next.ServeHTTP(w, r)
				return
			}
			if !hasBody(r.Method) {
				fail(w, apperr.Forbidden("You are not allowed!"))
				return
			}
			owner, err := bodyUser(w, r)
			if err != nil {
				fail(w, err)
				return
			}
			if !sameID(caller.ID, owner) {
				fail(w, apperr.Forbidden("You are not allowed!"))
				return
			}
			next.ServeHTTP(w, r)
		}))
	}
}

// VerifyTokenAndAdmin lets through admins only.
func VerifyTokenAndAdmin(secret string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return VerifyToken(secret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if caller, _ := IdentityFromContext(r.Context()); !caller.IsAdmin {
				fail(w, apperr.Forbidden("You are not allowed! - ONLY ADMINS."))
				return
			}
			next.ServeHTTP(w, r)
		}))
	}
}

// OwnerLookup returns the user owning the record with the given id, or
// store.ErrNotFound.
type OwnerLookup func(ctx context.Context, id primitive.ObjectID) (primitive.ObjectID, error)

// VerifyOwnership lets through admins and the owner of the record addressed by {id}.
func VerifyOwnership(secret string, lookup OwnerLookup, notFoundMsg string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return VerifyToken(secret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller, _ := IdentityFromContext(r.Context())
			if caller.IsAdmin {
				next.ServeHTTP(w, r)
				return
			}
			id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
			if err != nil {
				fail(w, apperr.Validation("Invalid id"))
				return
			}
			owner, err := lookup(r.Context(), id)
			if errors.Is(err, store.ErrNotFound) {
				fail(w, apperr.NotFound(notFoundMsg))
				return
			}
			if err != nil {
				fail(w, apperr.Internal(err, "Something went wrong"))
				return
			}
			if !sameID(caller.ID, owner.Hex()) {
				fail(w, apperr.Forbidden("You are not allowed!"))
				return
			}
			next.ServeHTTP(w, r)
		}))
	}
}

// sameID compares two ids by their canonical ObjectID value.
func sameID(a, b string) bool {
	x, err := primitive.ObjectIDFromHex(a)
	if err != nil {
		return false
	}
	y, err := primitive.ObjectIDFromHex(b)
	if err != nil {
		return false
	}
	return x == y
}

func hasBody(method string) bool {
	return method == http.MethodPost || method == http.MethodPut || method == http.MethodPatch
}

// bodyUser reads the "user" field of a JSON body and restores the body for the handler.
func bodyUser(w http.ResponseWriter, r *http.Request) (string, *apperr.Error) {
	if r.Body == nil {
		return "", nil
	}
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxInspectedBody))
	r.Body.Close()
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return "", apperr.TooLarge("Request body too large")
	}
	if err != nil {
		return "", apperr.Validation("Invalid request body")
	}
	r.Body = io.NopCloser(bytes.NewReader(raw))
	if len(bytes.TrimSpace(raw)) == 0 {
		return "", nil
	}
	var body struct {
		User string `json:"user"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return "", apperr.Validation("Invalid request body")
	}
	return body.User, nil
}

func fail(w http.ResponseWriter, e *apperr.Error) {
	if e.Err != nil {
		log.Printf("authorization: %v", e.Err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.Status())
	json.NewEncoder(w).Encode(map[string]string{"message": e.Message})
}
