package www

import (
	"context"
	"net/http"
	"time"
)

func (h *Handlers) apiStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	kitchenOK := h.engine.Kitchen().Ping(ctx) == nil

	h.jsonOK(w, map[string]any{
		"status":         "ok",
		"storefront":     h.engine.AppConfig().Storefront,
		"kitchen":        kitchenOK,
		"kitchen_url":    h.engine.Kitchen().BaseURL(),
		"database":       h.engine.DB().Driver(),
		"messaging":      h.engine.MsgConnected(),
		"active_watches": h.engine.ActiveCount(),
		"sse_clients":    h.eventHub.ClientCount(),
		"uptime_s":       int64(time.Since(h.engine.StartedAt()).Seconds()),
	})
}
