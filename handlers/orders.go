package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/kevinaaaquil/bookstore/apperr"
	"github.com/kevinaaaquil/bookstore/middleware"
	"github.com/kevinaaaquil/bookstore/models"
	"github.com/kevinaaaquil/bookstore/pricing"
	"github.com/kevinaaaquil/bookstore/refsync"
	"github.com/kevinaaaquil/bookstore/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const orderNotFound = "Order NOT FOUND!"

// OrderStore is the persistence the order routes need.
type OrderStore interface {
	References
	ListOrders(ctx context.Context, page store.Page) ([]models.Order, error)
	OrderByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	InsertOrder(ctx context.Context, order *models.Order) (primitive.ObjectID, error)
	UpdateOrder(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.Order, error)
	DeleteOrder(ctx context.Context, id primitive.ObjectID) error
}

type OrdersHandler struct {
	DB    OrderStore
	Sync  *refsync.Engine
	Guard *pricing.Guard
}

type createOrderRequest struct {
	Quantity   float64 `json:"quantity" validate:"gte=0"`
	TotalPrice float64 `json:"totalPrice" validate:"gte=0"`
	User       string  `json:"user" validate:"required,mongodb"`
	Book       string  `json:"book" validate:"required,mongodb"`
}

type updateOrderRequest struct {
	Quantity   *float64 `json:"quantity" validate:"omitnil,gte=0"`
	TotalPrice *float64 `json:"totalPrice" validate:"omitnil,gte=0"`
	User       *string  `json:"user" validate:"omitnil,mongodb"`
	Book       *string  `json:"book" validate:"omitnil,mongodb"`
}

func (req updateOrderRequest) patch() pricing.Patch {
	p := pricing.Patch{Quantity: req.Quantity, TotalPrice: req.TotalPrice}
	if req.User != nil {
		id := hexID(*req.User)
		p.User = &id
	}
	if req.Book != nil {
		id := hexID(*req.Book)
		p.Book = &id
	}
	return p
}

func (h *OrdersHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := pageNumber(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	p := store.Page{}
	if r.URL.Query().Has("pageNumber") {
		p = store.Page{Number: page, PerPage: usersPerPage}
	}
	orders, err := h.DB.ListOrders(r.Context(), p)
	if err != nil {
		writeError(w, r, storeError(err, orderNotFound))
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *OrdersHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	order, err := h.DB.OrderByID(r.Context(), id)
	if err != nil {
		writeError(w, r, storeError(err, orderNotFound))
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *OrdersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	draft := pricing.Draft{
		User:       hexID(req.User),
		Book:       hexID(req.Book),
		Quantity:   req.Quantity,
		TotalPrice: req.TotalPrice,
	}
	if err := referencesExist(r, h.DB, draft.User, draft.Book); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Guard.CheckCreate(r.Context(), draft); err != nil {
		writeError(w, r, err)
		return
	}
	order := &models.Order{
		Quantity:   draft.Quantity,
		TotalPrice: draft.TotalPrice,
		User:       draft.User,
		Book:       draft.Book,
	}
	id, err := h.DB.InsertOrder(r.Context(), order)
	if err != nil {
		writeError(w, r, storeError(err, orderNotFound))
		return
	}
	order.ID = id
	if err := h.Sync.Attach(r.Context(), refsync.UserOrders, order.User, id); err != nil {
		log.Printf("attach order %s: %v", id.Hex(), err)
	}
	writeJSON(w, http.StatusCreated, order)
}

// Update re-validates the price against the order as it would be after the
// change and writes nothing when the check fails.
func (h *OrdersHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req updateOrderRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	existing, err := h.DB.OrderByID(r.Context(), id)
	if err != nil {
		writeError(w, r, storeError(err, orderNotFound))
		return
	}
	patch := req.patch()
	if !patch.Touches() {
		writeJSON(w, http.StatusOK, existing)
		return
	}
	if patch.User != nil && *patch.User != existing.User {
		if err := h.reassignable(r, *patch.User); err != nil {
			writeError(w, r, err)
			return
		}
	}
	next, err := h.Guard.CheckUpdate(r.Context(), *existing, patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	order, err := h.DB.UpdateOrder(r.Context(), id, bson.M{
		"quantity":   next.Quantity,
		"totalPrice": next.TotalPrice,
		"user":       next.User,
		"book":       next.Book,
	})
	if err != nil {
		writeError(w, r, storeError(err, orderNotFound))
		return
	}
	if next.User != existing.User {
		h.Sync.Trigger(refsync.UserOrders)
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *OrdersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.DB.DeleteOrder(r.Context(), id); err != nil {
		writeError(w, r, storeError(err, orderNotFound))
		return
	}
	h.Sync.Trigger(refsync.UserOrders)
	writeMessage(w, http.StatusOK, "Order DELETED successfully.")
}

// reassignable allows moving an order to another existing user, admins only.
func (h *OrdersHandler) reassignable(r *http.Request, userID primitive.ObjectID) error {
	if caller, _ := middleware.IdentityFromContext(r.Context()); !caller.IsAdmin {
		return apperr.Forbidden("You are not allowed!")
	}
	_, err := h.DB.UserByID(r.Context(), userID)
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound(userNotFound)
	}
	if err != nil {
		return apperr.Internal(err, "Something went wrong")
	}
	return nil
}
