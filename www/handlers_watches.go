package www

import (
	"encoding/json"
	"net/http"
	"strconv"
)

func (h *Handlers) apiListWatches(w http.ResponseWriter, r *http.Request) {
	h.jsonOK(w, h.engine.ListWatches())
}

func (h *Handlers) apiStartWatch(w http.ResponseWriter, r *http.Request) {
	id, ok := orderIDParam(r)
	if !ok {
		h.jsonError(w, "invalid order id", http.StatusBadRequest)
		return
	}
	if err := h.engine.StartWatch(id); err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	snap, _ := h.engine.Watch(id)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(snap)
}

// apiGetWatch serves live watches from the engine and falls back to the
// persisted row for stopped ones, so a reload after delivery still has
// something to show.
func (h *Handlers) apiGetWatch(w http.ResponseWriter, r *http.Request) {
	id, ok := orderIDParam(r)
	if !ok {
		h.jsonError(w, "invalid order id", http.StatusBadRequest)
		return
	}
	if snap, ok := h.engine.Watch(id); ok {
		h.jsonOK(w, snap)
		return
	}
	row, err := h.engine.DB().GetWatchedOrder(id)
	if err != nil {
		h.jsonError(w, "watch not found", http.StatusNotFound)
		return
	}
	h.jsonOK(w, row)
}

func (h *Handlers) apiStopWatch(w http.ResponseWriter, r *http.Request) {
	id, ok := orderIDParam(r)
	if !ok {
		h.jsonError(w, "invalid order id", http.StatusBadRequest)
		return
	}
	h.engine.StopWatch(id)
	w.WriteHeader(http.StatusNoContent)
}

// apiOrderHistory lists the status transitions recorded for one order,
// whether or not it is still watched.
func (h *Handlers) apiOrderHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := orderIDParam(r)
	if !ok {
		h.jsonError(w, "invalid order id", http.StatusBadRequest)
		return
	}
	limit := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			limit = n
		}
	}
	recs, err := h.engine.DB().ListOrderHistory(id, limit)
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.jsonOK(w, recs)
}
