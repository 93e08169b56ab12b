package www

import (
	"encoding/json"
	"net/http"

	"github.com/dilloncoffman/BlazingPizzas/kitchen"
)

func (h *Handlers) apiListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.engine.Kitchen().ListOrders(r.Context())
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusBadGateway)
		return
	}
	h.jsonOK(w, orders)
}

func (h *Handlers) apiGetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := orderIDParam(r)
	if !ok {
		h.jsonError(w, "invalid order id", http.StatusBadRequest)
		return
	}
	status, err := h.engine.Kitchen().FetchOrderStatus(r.Context(), id)
	if err != nil {
		if kitchen.IsNotFound(err) {
			h.jsonError(w, "order not found", http.StatusNotFound)
			return
		}
		h.jsonError(w, err.Error(), http.StatusBadGateway)
		return
	}
	h.jsonOK(w, status)
}

// apiPlaceTestOrder places an order at the kitchen and immediately
// starts watching it. Meant for exercising a deployment end to end.
func (h *Handlers) apiPlaceTestOrder(w http.ResponseWriter, r *http.Request) {
	var req kitchen.PlaceOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.Pizzas) == 0 {
		req.Pizzas = []kitchen.Pizza{{Name: "Margherita", Size: 12, Price: 9.50}}
	}

	order, err := h.engine.Kitchen().PlaceOrder(r.Context(), &req)
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusBadGateway)
		return
	}
	if err := h.engine.StartWatch(order.OrderID); err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(order)
}
