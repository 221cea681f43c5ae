package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"houdini-hq/houdini/pkg/item"
	"houdini-hq/houdini/pkg/middleware"
)

// Order is the resource served by the sample routes.
type Order struct {
	ID        int       `json:"id"`
	Customer  string    `json:"customer"`
	Total     float64   `json:"total"`
	CreatedAt time.Time `json:"created_at"`
}

// ErrOrderNotFound is returned for unknown order IDs.
var ErrOrderNotFound = errors.New("order not found")

// InvalidOrderError describes a rejected order payload.
type InvalidOrderError struct {
	Field  string
	Reason string
}

func (e *InvalidOrderError) Error() string {
	return fmt.Sprintf("invalid order: %s %s", e.Field, e.Reason)
}

type orderStore struct {
	mu     sync.RWMutex
	nextID int
	orders map[int]Order
}

func newOrderStore() *orderStore {
	return &orderStore{nextID: 1, orders: make(map[int]Order)}
}

func (s *orderStore) get(id int) (Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[id]
	if !ok {
		return Order{}, fmt.Errorf("order %d: %w", id, ErrOrderNotFound)
	}
	return o, nil
}

func (s *orderStore) add(o Order) Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	o.ID = s.nextID
	o.CreatedAt = time.Now().UTC()
	s.nextID++
	s.orders[o.ID] = o
	return o
}

func (s *Server) getOrder(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "order id must be an integer")
		return
	}

	s.collector.CaptureBreadcrumb("loading order", "orders", "info", item.Fields{"order_id": id})

	order, err := s.orders.get(id)
	if errors.Is(err, ErrOrderNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, order)
}

func (s *Server) createOrder(w http.ResponseWriter, r *http.Request) {
	var in Order
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "request body must be a JSON order")
		return
	}

	if err := validateOrder(in); err != nil {
		// Validation failures are handled here but still reported.
		middleware.ReportError(r.Context(), err)
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	order := s.orders.add(in)
	s.collector.SetTag("order.customer", order.Customer)
	s.collector.RecordMetric("orders.created", order.Total, item.Fields{"customer": order.Customer})

	writeJSON(w, http.StatusCreated, order)
}

func validateOrder(o Order) error {
	switch {
	case o.Customer == "":
		return &InvalidOrderError{Field: "customer", Reason: "is required"}
	case o.Total <= 0:
		return &InvalidOrderError{Field: "total", Reason: "must be positive"}
	}
	return nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
