package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kevinaaaquil/bookstore/middleware"
	"github.com/kevinaaaquil/bookstore/models"
	"github.com/kevinaaaquil/bookstore/store"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const unitSecret = "unit-secret"

// memDB keeps users, books and orders in memory and serves the store
// methods the user and order routes call.
type memDB struct {
	mu      sync.Mutex
	users   map[primitive.ObjectID]*models.User
	books   map[primitive.ObjectID]*models.Book
	orders  map[primitive.ObjectID]*models.Order
	updates int
}

func newMemDB() *memDB {
	return &memDB{
		users:  make(map[primitive.ObjectID]*models.User),
		books:  make(map[primitive.ObjectID]*models.Book),
		orders: make(map[primitive.ObjectID]*models.Order),
	}
}

func (m *memDB) addUser(username string, admin bool) primitive.ObjectID {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := primitive.NewObjectID()
	m.users[id] = &models.User{ID: id, Username: username, Email: username + "@example.com", IsAdmin: admin}
	return id
}

func (m *memDB) addBook(price float64) primitive.ObjectID {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := primitive.NewObjectID()
	m.books[id] = &models.Book{ID: id, Title: "Dune", Price: price}
	return id
}

func (m *memDB) addOrder(user, book primitive.ObjectID, quantity, total float64) primitive.ObjectID {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := primitive.NewObjectID()
	m.orders[id] = &models.Order{ID: id, User: user, Book: book, Quantity: quantity, TotalPrice: total}
	return id
}

func (m *memDB) order(id primitive.ObjectID) models.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.orders[id]
}

func (m *memDB) user(id primitive.ObjectID) models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.users[id]
}

func (m *memDB) UserByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memDB) userWhere(match func(*models.User) bool) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memDB) UserByUsername(_ context.Context, username string) (*models.User, error) {
	return m.userWhere(func(u *models.User) bool { return u.Username == username })
}

func (m *memDB) UserByEmail(_ context.Context, email string) (*models.User, error) {
	return m.userWhere(func(u *models.User) bool { return u.Email == email })
}

func (m *memDB) ListUsers(_ context.Context, _ store.Page) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, *u)
	}
	return out, nil
}

func (m *memDB) UpdateUser(_ context.Context, id primitive.ObjectID, set bson.M) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	m.updates++
	for k, v := range set {
		switch k {
		case "firstName":
			u.FirstName = v.(string)
		case "lastName":
			u.LastName = v.(string)
		case "username":
			u.Username = v.(string)
		case "email":
			u.Email = v.(string)
		case "password":
			u.Password = v.(string)
		case "isAdmin":
			u.IsAdmin = v.(bool)
		}
	}
	cp := *u
	return &cp, nil
}

func (m *memDB) DeleteUser(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.users, id)
	return nil
}

func (m *memDB) ReviewsByUser(context.Context, primitive.ObjectID, []string) ([]models.ReviewDetail, error) {
	return []models.ReviewDetail{}, nil
}

func (m *memDB) OrdersByUser(_ context.Context, userID primitive.ObjectID, _ []string) ([]models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Order{}
	for _, o := range m.orders {
		if o.User == userID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (m *memDB) BookByID(_ context.Context, id primitive.ObjectID) (*models.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.books[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (m *memDB) BookPrice(ctx context.Context, id primitive.ObjectID) (float64, error) {
	b, err := m.BookByID(ctx, id)
	if err != nil {
		return 0, err
	}
	return b.Price, nil
}

func (m *memDB) OrderExists(_ context.Context, user, book, exclude primitive.ObjectID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, o := range m.orders {
		if id != exclude && o.User == user && o.Book == book {
			return true, nil
		}
	}
	return false, nil
}

func (m *memDB) OrderOwner(_ context.Context, id primitive.ObjectID) (primitive.ObjectID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return primitive.NilObjectID, store.ErrNotFound
	}
	return o.User, nil
}

func (m *memDB) ListOrders(_ context.Context, _ store.Page) ([]models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Order, 0, len(m.orders))
	for _, o := range m.orders {
		out = append(out, *o)
	}
	return out, nil
}

func (m *memDB) OrderByID(_ context.Context, id primitive.ObjectID) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *memDB) InsertOrder(_ context.Context, order *models.Order) (primitive.ObjectID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := primitive.NewObjectID()
	cp := *order
	cp.ID = id
	cp.CreatedAt = time.Now()
	m.orders[id] = &cp
	return id, nil
}

func (m *memDB) UpdateOrder(_ context.Context, id primitive.ObjectID, set bson.M) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	m.updates++
	o.Quantity = set["quantity"].(float64)
	o.TotalPrice = set["totalPrice"].(float64)
	o.User = set["user"].(primitive.ObjectID)
	o.Book = set["book"].(primitive.ObjectID)
	cp := *o
	return &cp, nil
}

func (m *memDB) DeleteOrder(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.orders, id)
	return nil
}

func bearer(t *testing.T, id primitive.ObjectID, admin bool) string {
	t.Helper()
	tok, err := middleware.NewToken(unitSecret, id, admin, 0)
	require.NoError(t, err)
	return tok
}

// call sends body (when non-empty) as JSON and returns the recorder.
func call(h http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set(middleware.TokenHeader, token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func messageOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	msg, _ := body["message"].(string)
	return msg
}
