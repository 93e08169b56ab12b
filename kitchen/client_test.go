package kitchen

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testServer(handler http.HandlerFunc) (*httptest.Server, *Client) {
	srv := httptest.NewServer(handler)
	client := NewClient(srv.URL, 5*time.Second)
	return srv, client
}

func TestFetchOrderStatus(t *testing.T) {
	placed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	srv, client := testServer(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/orders/42/status" {
			t.Errorf("path = %q, want /orders/42/status", r.URL.Path)
		}
		json.NewEncoder(w).Encode(OrderStatus{
			OrderID:    42,
			PlacedAt:   placed,
			StatusText: StatusOutForDelivery,
			Delivered:  false,
			Pizzas:     []Pizza{{Name: "Pepperoni", Size: 14, Price: 12.49}},
		})
	})
	defer srv.Close()

	status, err := client.FetchOrderStatus(context.Background(), 42)
	if err != nil {
		t.Fatalf("FetchOrderStatus: %v", err)
	}
	if status.OrderID != 42 {
		t.Errorf("OrderID = %d, want 42", status.OrderID)
	}
	if status.StatusText != StatusOutForDelivery {
		t.Errorf("StatusText = %q, want %q", status.StatusText, StatusOutForDelivery)
	}
	if status.Delivered {
		t.Error("Delivered = true, want false")
	}
	if !status.PlacedAt.Equal(placed) {
		t.Errorf("PlacedAt = %v, want %v", status.PlacedAt, placed)
	}
	if len(status.Pizzas) != 1 || status.Pizzas[0].Name != "Pepperoni" {
		t.Errorf("Pizzas = %+v, want one Pepperoni", status.Pizzas)
	}
}

func TestFetchOrderStatusNotFound(t *testing.T) {
	srv, client := testServer(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "order not found", http.StatusNotFound)
	})
	defer srv.Close()

	_, err := client.FetchOrderStatus(context.Background(), 99)
	if err == nil {
		t.Fatal("expected error for unknown order")
	}
	var qe *QueryError
	if !errors.As(err, &qe) {
		t.Fatalf("error type = %T, want *QueryError", err)
	}
	if qe.StatusCode != http.StatusNotFound {
		t.Errorf("StatusCode = %d, want 404", qe.StatusCode)
	}
	if qe.OrderID != 99 {
		t.Errorf("OrderID = %d, want 99", qe.OrderID)
	}
	if !IsNotFound(err) {
		t.Error("IsNotFound = false, want true")
	}
}

func TestFetchOrderStatusServerError(t *testing.T) {
	srv, client := testServer(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "status store unavailable", http.StatusInternalServerError)
	})
	defer srv.Close()

	_, err := client.FetchOrderStatus(context.Background(), 7)
	var qe *QueryError
	if !errors.As(err, &qe) {
		t.Fatalf("error type = %T, want *QueryError", err)
	}
	if qe.StatusCode != http.StatusInternalServerError {
		t.Errorf("StatusCode = %d, want 500", qe.StatusCode)
	}
	if IsNotFound(err) {
		t.Error("IsNotFound = true for a 500")
	}
}

func TestFetchOrderStatusBadPayload(t *testing.T) {
	srv, client := testServer(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("{not json"))
	})
	defer srv.Close()

	_, err := client.FetchOrderStatus(context.Background(), 7)
	var qe *QueryError
	if !errors.As(err, &qe) {
		t.Fatalf("error type = %T, want *QueryError", err)
	}
	if qe.StatusCode != 0 {
		t.Errorf("StatusCode = %d, want 0 for a decode failure", qe.StatusCode)
	}
}

func TestFetchOrderStatusTransportError(t *testing.T) {
	srv, client := testServer(func(w http.ResponseWriter, r *http.Request) {})
	srv.Close()

	_, err := client.FetchOrderStatus(context.Background(), 7)
	var qe *QueryError
	if !errors.As(err, &qe) {
		t.Fatalf("error type = %T, want *QueryError", err)
	}
	if qe.StatusCode != 0 {
		t.Errorf("StatusCode = %d, want 0 for a transport failure", qe.StatusCode)
	}
	if qe.Unwrap() == nil {
		t.Error("Unwrap() = nil, want the transport error")
	}
}

func TestPlaceOrder(t *testing.T) {
	srv, client := testServer(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/orders" {
			t.Errorf("got %s %s, want POST /orders", r.Method, r.URL.Path)
		}
		var req PlaceOrderRequest
		json.NewDecoder(r.Body).Decode(&req)
		json.NewEncoder(w).Encode(Order{OrderID: 1, PlacedAt: time.Now(), Pizzas: req.Pizzas})
	})
	defer srv.Close()

	order, err := client.PlaceOrder(context.Background(), &PlaceOrderRequest{
		Pizzas: []Pizza{{Name: "Margherita", Size: 12, Price: 9.99}},
	})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if order.OrderID != 1 {
		t.Errorf("OrderID = %d, want 1", order.OrderID)
	}
	if len(order.Pizzas) != 1 {
		t.Errorf("len(Pizzas) = %d, want 1", len(order.Pizzas))
	}
}

func TestReconfigure(t *testing.T) {
	first, client := testServer(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request hit the old backend")
	})
	defer first.Close()

	second := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}))
	defer second.Close()

	client.Reconfigure(second.URL, time.Second)
	if client.BaseURL() != second.URL {
		t.Errorf("BaseURL = %q, want %q", client.BaseURL(), second.URL)
	}
	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("Ping after Reconfigure: %v", err)
	}
}
