package handlers

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/kevinaaaquil/bookstore/middleware"
	"github.com/kevinaaaquil/bookstore/models"
	"github.com/kevinaaaquil/bookstore/pricing"
	"github.com/kevinaaaquil/bookstore/refsync"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ordersRouter mounts the order routes behind the same middleware as Router.
func ordersRouter(t *testing.T, db *memDB) http.Handler {
	t.Helper()
	engine := refsync.NewEngine(time.Second)
	t.Cleanup(engine.Wait)
	h := &OrdersHandler{DB: db, Sync: engine, Guard: &pricing.Guard{Catalog: db}}
	owner := middleware.VerifyOwnership(unitSecret, db.OrderOwner, orderNotFound)

	r := chi.NewRouter()
	r.With(middleware.VerifyTokenAndAdmin(unitSecret)).Get("/orders", h.List)
	r.With(middleware.VerifyTokenAndAuthorization(unitSecret)).Post("/orders", h.Create)
	r.With(owner).Get("/orders/{id}", h.Get)
	r.With(owner).Put("/orders/{id}", h.Update)
	r.With(owner).Delete("/orders/{id}", h.Delete)
	return r
}

func orderBody(user, book primitive.ObjectID, quantity, total float64) string {
	b, _ := json.Marshal(map[string]any{"user": user.Hex(), "book": book.Hex(), "quantity": quantity, "totalPrice": total})
	return string(b)
}

func TestOrders_Create(t *testing.T) {
	db := newMemDB()
	alice, bob := db.addUser("alice", false), db.addUser("bob", false)
	book := db.addBook(10)
	r := ordersRouter(t, db)

	t.Run("priced for the caller", func(t *testing.T) {
		rec := call(r, http.MethodPost, "/orders", bearer(t, alice, false), orderBody(alice, book, 2, 20))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var got models.Order
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, alice, got.User)
		assert.Equal(t, 20.0, db.order(got.ID).TotalPrice)
	})

	t.Run("for someone else", func(t *testing.T) {
		rec := call(r, http.MethodPost, "/orders", bearer(t, alice, false), orderBody(bob, book, 1, 10))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("underpriced", func(t *testing.T) {
		rec := call(r, http.MethodPost, "/orders", bearer(t, bob, false), orderBody(bob, book, 2, 15))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, messageOf(t, rec), "short by 5")
	})

	t.Run("second order for the same book", func(t *testing.T) {
		rec := call(r, http.MethodPost, "/orders", bearer(t, alice, false), orderBody(alice, book, 1, 10))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown book", func(t *testing.T) {
		rec := call(r, http.MethodPost, "/orders", bearer(t, bob, false), orderBody(bob, primitive.NewObjectID(), 1, 10))
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, bookNotFound, messageOf(t, rec))
	})

	t.Run("no token", func(t *testing.T) {
		rec := call(r, http.MethodPost, "/orders", "", orderBody(bob, book, 1, 10))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestOrders_Ownership(t *testing.T) {
	db := newMemDB()
	alice, bob, admin := db.addUser("alice", false), db.addUser("bob", false), db.addUser("root", true)
	book := db.addBook(10)
	order := db.addOrder(alice, book, 1, 10)
	r := ordersRouter(t, db)
	path := "/orders/" + order.Hex()

	cases := []struct {
		name   string
		method string
		path   string
		token  string
		code   int
	}{
		{"owner reads", http.MethodGet, path, bearer(t, alice, false), http.StatusOK},
		{"admin reads", http.MethodGet, path, bearer(t, admin, true), http.StatusOK},
		{"stranger reads", http.MethodGet, path, bearer(t, bob, false), http.StatusForbidden},
		{"stranger deletes", http.MethodDelete, path, bearer(t, bob, false), http.StatusForbidden},
		{"unknown order", http.MethodGet, "/orders/" + primitive.NewObjectID().Hex(), bearer(t, bob, false), http.StatusNotFound},
		{"malformed id", http.MethodGet, "/orders/nope", bearer(t, bob, false), http.StatusBadRequest},
		{"non-admin lists", http.MethodGet, "/orders", bearer(t, alice, false), http.StatusForbidden},
		{"admin lists", http.MethodGet, "/orders", bearer(t, admin, true), http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := call(r, tc.method, tc.path, tc.token, "")
			assert.Equal(t, tc.code, rec.Code, rec.Body.String())
		})
	}

	rec := call(r, http.MethodDelete, path, bearer(t, alice, false), "")
	require.Equal(t, http.StatusOK, rec.Code)
	rec = call(r, http.MethodGet, path, bearer(t, admin, true), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOrders_Update(t *testing.T) {
	db := newMemDB()
	alice, bob, admin := db.addUser("alice", false), db.addUser("bob", false), db.addUser("root", true)
	book := db.addBook(10)
	order := db.addOrder(alice, book, 2, 20)
	r := ordersRouter(t, db)
	path := "/orders/" + order.Hex()

	t.Run("quantity alone breaks the price", func(t *testing.T) {
		rec := call(r, http.MethodPut, path, bearer(t, alice, false), `{"quantity":3}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, messageOf(t, rec), "short by 10")
		assert.Equal(t, 2.0, db.order(order).Quantity)
	})

	t.Run("quantity with total", func(t *testing.T) {
		rec := call(r, http.MethodPut, path, bearer(t, alice, false), `{"quantity":3,"totalPrice":30}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, 3.0, db.order(order).Quantity)
		assert.Equal(t, 30.0, db.order(order).TotalPrice)
	})

	t.Run("empty patch writes nothing", func(t *testing.T) {
		before := db.updates
		rec := call(r, http.MethodPut, path, bearer(t, alice, false), `{}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, before, db.updates)
	})

	t.Run("owner cannot reassign", func(t *testing.T) {
		rec := call(r, http.MethodPut, path, bearer(t, alice, false), `{"user":"`+bob.Hex()+`"}`)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, alice, db.order(order).User)
	})

	t.Run("admin reassigns to unknown user", func(t *testing.T) {
		rec := call(r, http.MethodPut, path, bearer(t, admin, true), `{"user":"`+primitive.NewObjectID().Hex()+`"}`)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("admin reassigns", func(t *testing.T) {
		rec := call(r, http.MethodPut, path, bearer(t, admin, true), `{"user":"`+bob.Hex()+`"}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, bob, db.order(order).User)
	})

	t.Run("previous owner loses access", func(t *testing.T) {
		rec := call(r, http.MethodGet, path, bearer(t, alice, false), "")
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}
