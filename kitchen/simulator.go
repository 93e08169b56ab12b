package kitchen

import (
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
)

// Simulator is an in-memory kitchen for development and tests. Orders
// progress Preparing -> Out for delivery -> Delivered on wall-clock time.
type Simulator struct {
	mu       sync.Mutex
	nextID   int64
	orders   map[int64]*Order
	prep     time.Duration
	delivery time.Duration
	now      func() time.Time
}

// NewSimulator creates a simulator with the given phase durations.
// Non-positive durations fall back to 10s preparation and 2m delivery.
func NewSimulator(prep, delivery time.Duration) *Simulator {
	if prep <= 0 {
		prep = 10 * time.Second
	}
	if delivery <= 0 {
		delivery = 2 * time.Minute
	}
	return &Simulator{
		nextID:   1,
		orders:   make(map[int64]*Order),
		prep:     prep,
		delivery: delivery,
		now:      time.Now,
	}
}

// PlaceOrder records a new order and returns it with its assigned ID.
func (s *Simulator) PlaceOrder(pizzas []Pizza) *Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	order := &Order{
		OrderID:  s.nextID,
		PlacedAt: s.now(),
		Pizzas:   pizzas,
	}
	s.nextID++
	s.orders[order.OrderID] = order
	return order
}

// Orders returns all placed orders, oldest first.
func (s *Simulator) Orders() []Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Order, 0, len(s.orders))
	for _, o := range s.orders {
		out = append(out, *o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderID < out[j].OrderID })
	return out
}

// Status derives the current snapshot for one order from its age.
func (s *Simulator) Status(orderID int64) (*OrderStatus, bool) {
	s.mu.Lock()
	order, ok := s.orders[orderID]
	now := s.now()
	s.mu.Unlock()
	if !ok {
		return nil, false
	}
	text, delivered := statusAt(order.PlacedAt, now, s.prep, s.delivery)
	return &OrderStatus{
		OrderID:    order.OrderID,
		PlacedAt:   order.PlacedAt,
		StatusText: text,
		Delivered:  delivered,
		Pizzas:     order.Pizzas,
	}, true
}

func statusAt(placedAt, now time.Time, prep, delivery time.Duration) (string, bool) {
	elapsed := now.Sub(placedAt)
	switch {
	case elapsed < prep:
		return StatusPreparing, false
	case elapsed < prep+delivery:
		return StatusOutForDelivery, false
	default:
		return StatusDelivered, true
	}
}

// Seed places n sample orders drawn from a fixed menu.
func (s *Simulator) Seed(n int) {
	menu := []Pizza{
		{Name: "Margherita", Size: 12, Price: 9.99},
		{Name: "Pepperoni", Size: 14, Price: 12.49, Toppings: []string{"extra pepperoni"}},
		{Name: "Hawaiian", Size: 12, Price: 11.99, Toppings: []string{"ham", "pineapple"}},
		{Name: "Veggie Supreme", Size: 16, Price: 13.99, Toppings: []string{"peppers", "mushrooms", "olives"}},
	}
	for i := 0; i < n; i++ {
		s.PlaceOrder([]Pizza{menu[i%len(menu)]})
	}
}

// Handler returns the simulator's HTTP API.
func (s *Simulator) Handler() http.Handler {
	r := chi.NewRouter()
	r.Post("/orders", s.handlePlaceOrder)
	r.Get("/orders", s.handleListOrders)
	r.Get("/orders/{orderID}/status", s.handleOrderStatus)
	r.Get("/ping", s.handlePing)
	return r
}

func (s *Simulator) handlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req PlaceOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid order payload", http.StatusBadRequest)
		return
	}
	order := s.PlaceOrder(req.Pizzas)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(order)
}

func (s *Simulator) handleListOrders(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.Orders())
}

func (s *Simulator) handleOrderStatus(w http.ResponseWriter, r *http.Request) {
	orderID, err := strconv.ParseInt(chi.URLParam(r, "orderID"), 10, 64)
	if err != nil {
		http.Error(w, "invalid order id", http.StatusBadRequest)
		return
	}
	status, ok := s.Status(orderID)
	if !ok {
		http.Error(w, "order not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(status)
}

func (s *Simulator) handlePing(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
