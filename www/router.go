package www

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/sessions"

	"github.com/dilloncoffman/BlazingPizzas/engine"
)

type Handlers struct {
	engine   *engine.Engine
	sessions *sessions.CookieStore
	eventHub *EventHub
}

func NewRouter(eng *engine.Engine) (http.Handler, func()) {
	hub := NewEventHub()
	hub.Start()
	hub.SetupEngineListeners(eng)

	h := &Handlers{
		engine:   eng,
		sessions: newSessionStore(eng.AppConfig().Web.SessionSecret),
		eventHub: hub,
	}

	h.ensureDefaultAdmin(eng.DB())

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	// SSE
	r.Get("/events", h.handleSSE)

	// Public API: the storefront page watches its own orders without
	// an admin session.
	r.Route("/api", func(r chi.Router) {
		r.Get("/watches", h.apiListWatches)
		r.Post("/watches/{orderID}", h.apiStartWatch)
		r.Get("/watches/{orderID}", h.apiGetWatch)
		r.Delete("/watches/{orderID}", h.apiStopWatch)

		r.Get("/orders", h.apiListOrders)
		r.Get("/orders/{orderID}", h.apiGetOrder)
		r.Get("/orders/{orderID}/history", h.apiOrderHistory)

		r.Get("/status", h.apiStatus)

		r.Post("/login", h.apiLogin)
		r.Post("/logout", h.apiLogout)
		r.Get("/session", h.apiSession)
	})

	// Protected API
	r.Group(func(r chi.Router) {
		r.Use(h.requireAuth)
		r.Post("/api/test-orders", h.apiPlaceTestOrder)
		r.Get("/api/config", h.apiGetConfig)
		r.Put("/api/config/kitchen", h.apiUpdateKitchenConfig)
		r.Put("/api/config/messaging", h.apiUpdateMessagingConfig)
		r.Post("/api/config/password", h.apiChangePassword)
	})

	stopFn := func() {
		hub.Stop()
	}

	return r, stopFn
}
