package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/kevinaaaquil/bookstore/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const secret = "test-secret"

func token(t *testing.T, id primitive.ObjectID, admin bool) string {
	t.Helper()
	tok, err := NewToken(secret, id, admin, 0)
	require.NoError(t, err)
	return tok
}

// echo writes the caller id and the body it received.
func echo(w http.ResponseWriter, r *http.Request) {
	caller, _ := IdentityFromContext(r.Context())
	body, _ := io.ReadAll(r.Body)
	w.Header().Set("X-Caller", caller.ID)
	w.Write(body)
}

func do(h http.Handler, method, path, tok, body string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if tok != "" {
		req.Header.Set(TokenHeader, tok)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func message(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["message"]
}

func TestVerifyToken(t *testing.T) {
	h := VerifyToken(secret)(http.HandlerFunc(echo))
	user := primitive.NewObjectID()

	rec := do(h, http.MethodGet, "/", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "NO TOKEN PROVIDED!", message(t, rec))

	rec = do(h, http.MethodGet, "/", "not-a-jwt", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "INVALID TOKEN!", message(t, rec))

	forged, err := NewToken("other-secret", user, true, 0)
	require.NoError(t, err)
	rec = do(h, http.MethodGet, "/", forged, "")
	assert.Equal(t, "INVALID TOKEN!", message(t, rec))

	rec = do(h, http.MethodGet, "/", token(t, user, false), "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, user.Hex(), rec.Header().Get("X-Caller"))
}

func TestVerifyToken_Expired(t *testing.T) {
	claims := &Claims{
		ID: primitive.NewObjectID().Hex(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)

	rec := do(VerifyToken(secret)(http.HandlerFunc(echo)), http.MethodGet, "/", tok, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestNewToken_TTL(t *testing.T) {
	tok, err := NewToken(secret, primitive.NewObjectID(), true, time.Hour)
	require.NoError(t, err)
	claims, err := parseToken(secret, tok)
	require.NoError(t, err)
	assert.True(t, claims.IsAdmin)
	require.NotNil(t, claims.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestVerifyTokenAndAuthorization(t *testing.T) {
	r := chi.NewRouter()
	r.With(VerifyTokenAndAuthorization(secret)).Get("/users/{id}", echo)
	r.With(VerifyTokenAndAuthorization(secret)).Put("/users/{id}", echo)
	r.With(VerifyTokenAndAuthorization(secret)).Post("/reviews", echo)

	self, other := primitive.NewObjectID(), primitive.NewObjectID()

	t.Run("self by url", func(t *testing.T) {
		rec := do(r, http.MethodGet, "/users/"+self.Hex(), token(t, self, false), "")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("url compare is canonical", func(t *testing.T) {
		rec := do(r, http.MethodGet, "/users/"+strings.ToUpper(self.Hex()), token(t, self, false), "")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("other user", func(t *testing.T) {
		rec := do(r, http.MethodGet, "/users/"+other.Hex(), token(t, self, false), "")
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "You are not allowed!", message(t, rec))
	})

	t.Run("admin", func(t *testing.T) {
		rec := do(r, http.MethodGet, "/users/"+other.Hex(), token(t, self, true), "")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("self by body keeps body", func(t *testing.T) {
		body := `{"user":"` + self.Hex() + `","rating":5}`
		rec := do(r, http.MethodPost, "/reviews", token(t, self, false), body)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, body, rec.Body.String())
	})

	t.Run("body for someone else", func(t *testing.T) {
		body := `{"user":"` + other.Hex() + `"}`
		rec := do(r, http.MethodPost, "/reviews", token(t, self, false), body)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		rec := do(r, http.MethodPost, "/reviews", token(t, self, false), "{")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("url id wins over body user", func(t *testing.T) {
		body := `{"user":"` + self.Hex() + `","password":"pwned123","email":"evil@x.io"}`
		rec := do(r, http.MethodPut, "/users/"+other.Hex(), token(t, self, false), body)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "You are not allowed!", message(t, rec))
	})

	t.Run("self by url ignores body user", func(t *testing.T) {
		body := `{"user":"` + other.Hex() + `","firstName":"Alice"}`
		rec := do(r, http.MethodPut, "/users/"+self.Hex(), token(t, self, false), body)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, body, rec.Body.String())
	})

	t.Run("no body without url id", func(t *testing.T) {
		rec := do(r, http.MethodPost, "/reviews", token(t, self, false), "")
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("oversize body", func(t *testing.T) {
		body := `{"user":"` + self.Hex() + `","comment":"` + strings.Repeat("a", maxInspectedBody) + `"}`
		rec := do(r, http.MethodPost, "/reviews", token(t, self, false), body)
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
		assert.Equal(t, "Request body too large", message(t, rec))
	})
}

func TestVerifyTokenAndAdmin(t *testing.T) {
	h := VerifyTokenAndAdmin(secret)(http.HandlerFunc(echo))
	user := primitive.NewObjectID()

	rec := do(h, http.MethodGet, "/", token(t, user, false), "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "You are not allowed! - ONLY ADMINS.", message(t, rec))

	rec = do(h, http.MethodGet, "/", token(t, user, true), "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestVerifyOwnership(t *testing.T) {
	owner, stranger := primitive.NewObjectID(), primitive.NewObjectID()
	order, broken := primitive.NewObjectID(), primitive.NewObjectID()
	lookup := func(_ context.Context, id primitive.ObjectID) (primitive.ObjectID, error) {
		switch id {
		case order:
			return owner, nil
		case broken:
			return primitive.NilObjectID, errors.New("connection refused")
		}
		return primitive.NilObjectID, store.ErrNotFound
	}
	r := chi.NewRouter()
	r.With(VerifyOwnership(secret, lookup, "Order NOT FOUND!")).Get("/orders/{id}", echo)

	cases := []struct {
		name   string
		caller primitive.ObjectID
		admin  bool
		id     string
		status int
	}{
		{"owner", owner, false, order.Hex(), http.StatusOK},
		{"other user", stranger, false, order.Hex(), http.StatusForbidden},
		{"admin", stranger, true, order.Hex(), http.StatusOK},
		{"missing for owner", owner, false, primitive.NewObjectID().Hex(), http.StatusNotFound},
		{"missing for stranger", stranger, false, primitive.NewObjectID().Hex(), http.StatusNotFound},
		{"invalid id", owner, false, "nope", http.StatusBadRequest},
		{"lookup failure", owner, false, broken.Hex(), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(r, http.MethodGet, "/orders/"+tc.id, token(t, tc.caller, tc.admin), "")
			assert.Equal(t, tc.status, rec.Code)
		})
	}
}

func TestAllowAll(t *testing.T) {
	h := AllowAll()(http.HandlerFunc(echo))
	rec := do(h, http.MethodOptions, "/", "", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), TokenHeader)
}
