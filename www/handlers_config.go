package www

import (
	"encoding/json"
	"log"
	"net/http"
	"time"
)

func (h *Handlers) apiGetConfig(w http.ResponseWriter, r *http.Request) {
	cfg := h.engine.AppConfig()
	cfg.Lock()
	defer cfg.Unlock()
	h.jsonOK(w, map[string]any{
		"storefront": cfg.Storefront,
		"kitchen":    cfg.Kitchen,
		"messaging":  cfg.Messaging,
	})
}

// apiUpdateKitchenConfig saves new kitchen settings and hot-reloads the
// shared client. Durations arrive as strings ("4s", "500ms").
func (h *Handlers) apiUpdateKitchenConfig(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BaseURL      string `json:"base_url"`
		PollInterval string `json:"poll_interval"`
		Timeout      string `json:"timeout"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	cfg := h.engine.AppConfig()
	cfg.Lock()
	if req.BaseURL != "" {
		cfg.Kitchen.BaseURL = req.BaseURL
	}
	if req.PollInterval != "" {
		d, err := time.ParseDuration(req.PollInterval)
		if err != nil || d <= 0 {
			cfg.Unlock()
			h.jsonError(w, "invalid poll_interval", http.StatusBadRequest)
			return
		}
		cfg.Kitchen.PollInterval = d
	}
	if req.Timeout != "" {
		d, err := time.ParseDuration(req.Timeout)
		if err != nil || d <= 0 {
			cfg.Unlock()
			h.jsonError(w, "invalid timeout", http.StatusBadRequest)
			return
		}
		cfg.Kitchen.Timeout = d
	}
	section := cfg.Kitchen
	cfg.Unlock()

	if err := cfg.Save(h.engine.ConfigPath()); err != nil {
		log.Printf("config: save error: %v", err)
		h.jsonError(w, "failed to save config", http.StatusInternalServerError)
		return
	}
	h.engine.ApplyKitchenConfig()

	log.Printf("config: kitchen section saved")
	h.jsonOK(w, section)
}

// apiUpdateMessagingConfig saves new messaging settings. The messaging
// plane is wired at startup, so changes apply on the next restart.
func (h *Handlers) apiUpdateMessagingConfig(w http.ResponseWriter, r *http.Request) {
	cfg := h.engine.AppConfig()

	cfg.Lock()
	section := cfg.Messaging
	cfg.Unlock()

	// Decode over the current section so omitted fields keep their values.
	if err := json.NewDecoder(r.Body).Decode(&section); err != nil {
		h.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if section.Backend != "mqtt" && section.Backend != "kafka" {
		h.jsonError(w, "backend must be mqtt or kafka", http.StatusBadRequest)
		return
	}

	cfg.Lock()
	cfg.Messaging = section
	cfg.Unlock()

	if err := cfg.Save(h.engine.ConfigPath()); err != nil {
		log.Printf("config: save error: %v", err)
		h.jsonError(w, "failed to save config", http.StatusInternalServerError)
		return
	}

	log.Printf("config: messaging section saved")
	h.jsonOK(w, map[string]any{
		"messaging":        section,
		"restart_required": true,
	})
}
