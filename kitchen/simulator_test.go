package kitchen

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"
)

func TestStatusAt(t *testing.T) {
	placed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	prep := 10 * time.Second
	delivery := 2 * time.Minute

	cases := []struct {
		elapsed   time.Duration
		text      string
		delivered bool
	}{
		{0, StatusPreparing, false},
		{9 * time.Second, StatusPreparing, false},
		{10 * time.Second, StatusOutForDelivery, false},
		{90 * time.Second, StatusOutForDelivery, false},
		{130 * time.Second, StatusDelivered, true},
		{time.Hour, StatusDelivered, true},
	}
	for _, tc := range cases {
		text, delivered := statusAt(placed, placed.Add(tc.elapsed), prep, delivery)
		if text != tc.text || delivered != tc.delivered {
			t.Errorf("statusAt(+%v) = (%q, %v), want (%q, %v)",
				tc.elapsed, text, delivered, tc.text, tc.delivered)
		}
	}
}

func TestSimulatorLifecycle(t *testing.T) {
	sim := NewSimulator(10*time.Second, 2*time.Minute)
	clock := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	sim.now = func() time.Time { return clock }

	order := sim.PlaceOrder([]Pizza{{Name: "Margherita", Size: 12, Price: 9.99}})
	if order.OrderID != 1 {
		t.Fatalf("OrderID = %d, want 1", order.OrderID)
	}

	status, ok := sim.Status(order.OrderID)
	if !ok {
		t.Fatal("Status: order missing")
	}
	if status.StatusText != StatusPreparing || status.Delivered {
		t.Errorf("fresh order status = (%q, %v), want (%q, false)",
			status.StatusText, status.Delivered, StatusPreparing)
	}

	clock = clock.Add(30 * time.Second)
	status, _ = sim.Status(order.OrderID)
	if status.StatusText != StatusOutForDelivery {
		t.Errorf("status after 30s = %q, want %q", status.StatusText, StatusOutForDelivery)
	}

	clock = clock.Add(3 * time.Minute)
	status, _ = sim.Status(order.OrderID)
	if !status.Delivered {
		t.Error("Delivered = false after prep+delivery elapsed")
	}
	if status.StatusText != StatusDelivered {
		t.Errorf("status = %q, want %q", status.StatusText, StatusDelivered)
	}

	if _, ok := sim.Status(999); ok {
		t.Error("Status(999) found an order that was never placed")
	}
}

func TestSimulatorHandler(t *testing.T) {
	sim := NewSimulator(10*time.Second, 2*time.Minute)
	srv := httptest.NewServer(sim.Handler())
	defer srv.Close()
	client := NewClient(srv.URL, 5*time.Second)
	ctx := context.Background()

	if err := client.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}

	order, err := client.PlaceOrder(ctx, &PlaceOrderRequest{
		Pizzas: []Pizza{{Name: "Hawaiian", Size: 12, Price: 11.99}},
	})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}

	status, err := client.FetchOrderStatus(ctx, order.OrderID)
	if err != nil {
		t.Fatalf("FetchOrderStatus: %v", err)
	}
	if status.StatusText != StatusPreparing {
		t.Errorf("StatusText = %q, want %q", status.StatusText, StatusPreparing)
	}
	if len(status.Pizzas) != 1 || status.Pizzas[0].Name != "Hawaiian" {
		t.Errorf("Pizzas = %+v, want one Hawaiian", status.Pizzas)
	}

	orders, err := client.ListOrders(ctx)
	if err != nil {
		t.Fatalf("ListOrders: %v", err)
	}
	if len(orders) != 1 {
		t.Errorf("len(orders) = %d, want 1", len(orders))
	}

	if _, err := client.FetchOrderStatus(ctx, 12345); !IsNotFound(err) {
		t.Errorf("FetchOrderStatus(12345) err = %v, want not-found", err)
	}
}
