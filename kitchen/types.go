package kitchen

import "time"

// Status labels reported by the kitchen as an order progresses.
const (
	StatusPreparing      = "Preparing"
	StatusOutForDelivery = "Out for delivery"
	StatusDelivered      = "Delivered"
)

// Pizza is a single line item on an order.
type Pizza struct {
	Name     string   `json:"name"`
	Size     int      `json:"size"`
	Price    float64  `json:"price"`
	Toppings []string `json:"toppings,omitempty"`
}

// Order is a placed kitchen order.
type Order struct {
	OrderID  int64     `json:"order_id"`
	PlacedAt time.Time `json:"placed_at"`
	Pizzas   []Pizza   `json:"pizzas"`
}

// OrderStatus is the kitchen's view of one order at a point in time.
// Delivered marks the end of the order's lifecycle; the status text is a
// human label and carries no machine meaning beyond display.
type OrderStatus struct {
	OrderID    int64     `json:"order_id"`
	PlacedAt   time.Time `json:"placed_at"`
	StatusText string    `json:"status_text"`
	Delivered  bool      `json:"delivered"`
	Pizzas     []Pizza   `json:"pizzas,omitempty"`
}

// PlaceOrderRequest creates a new kitchen order.
type PlaceOrderRequest struct {
	Pizzas []Pizza `json:"pizzas"`
}
