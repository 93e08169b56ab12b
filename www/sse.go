package www

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/dilloncoffman/BlazingPizzas/engine"
	"github.com/dilloncoffman/BlazingPizzas/track"
)

type SSEEvent struct {
	Event   string
	Data    string
	OrderID int64 // 0 reaches every client regardless of filter
}

// EventHub fans tracking events out to SSE clients. A client may ask
// for a single order's events; everything else is dropped before it
// reaches that client's channel.
type EventHub struct {
	mu        sync.RWMutex
	clients   map[chan SSEEvent]int64 // channel -> order filter (0 = all)
	broadcast chan SSEEvent
	stopOnce  sync.Once
	stopChan  chan struct{}
}

func NewEventHub() *EventHub {
	return &EventHub{
		clients:   make(map[chan SSEEvent]int64),
		broadcast: make(chan SSEEvent, 256),
		stopChan:  make(chan struct{}),
	}
}

func (h *EventHub) Start() {
	go h.run()
}

func (h *EventHub) Stop() {
	h.stopOnce.Do(func() { close(h.stopChan) })
}

func (h *EventHub) run() {
	keepalive := time.NewTicker(30 * time.Second)
	defer keepalive.Stop()

	for {
		select {
		case <-h.stopChan:
			return
		case evt := <-h.broadcast:
			h.deliver(evt)
		case <-keepalive.C:
			h.deliver(SSEEvent{Event: "keepalive", Data: "ping"})
		}
	}
}

func (h *EventHub) deliver(evt SSEEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch, filter := range h.clients {
		if filter != 0 && evt.OrderID != 0 && evt.OrderID != filter {
			continue
		}
		select {
		case ch <- evt:
		default:
			// drop if full
		}
	}
}

// BroadcastTo queues an event for clients watching orderID (or all
// clients when orderID is 0). A full queue drops the event.
func (h *EventHub) BroadcastTo(orderID int64, event, data string) {
	select {
	case h.broadcast <- SSEEvent{Event: event, Data: data, OrderID: orderID}:
	default:
	}
}

func (h *EventHub) AddClient(orderFilter int64) chan SSEEvent {
	ch := make(chan SSEEvent, 64)
	h.mu.Lock()
	h.clients[ch] = orderFilter
	h.mu.Unlock()
	return ch
}

func (h *EventHub) RemoveClient(ch chan SSEEvent) {
	h.mu.Lock()
	delete(h.clients, ch)
	h.mu.Unlock()
	close(ch)
}

func (h *EventHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

type viewEventBody struct {
	OrderID int64      `json:"order_id"`
	View    track.View `json:"view"`
}

func viewEventJSON(orderID int64, view track.View) (string, bool) {
	data, err := json.Marshal(viewEventBody{OrderID: orderID, View: view})
	if err != nil {
		log.Printf("sse: marshal view for order %d: %v", orderID, err)
		return "", false
	}
	return string(data), true
}

// SetupEngineListeners wires engine events to SSE broadcasts.
func (h *EventHub) SetupEngineListeners(eng *engine.Engine) {
	eng.Events.SubscribeTypes(func(evt engine.Event) {
		ev := evt.Payload.(engine.ViewChangedEvent)
		if data, ok := viewEventJSON(ev.OrderID, ev.View); ok {
			h.BroadcastTo(ev.OrderID, "view", data)
		}
	}, engine.EventViewChanged)

	eng.Events.SubscribeTypes(func(evt engine.Event) {
		ev := evt.Payload.(engine.StatusChangedEvent)
		h.BroadcastTo(ev.OrderID, "status-changed",
			fmt.Sprintf(`{"order_id":%d,"old_status":%q,"new_status":%q,"delivered":%t}`,
				ev.OrderID, ev.OldStatus, ev.NewStatus, ev.Delivered))
	}, engine.EventStatusChanged)

	eng.Events.SubscribeTypes(func(evt engine.Event) {
		ev := evt.Payload.(engine.OrderDeliveredEvent)
		h.BroadcastTo(ev.OrderID, "order-delivered", fmt.Sprintf(`{"order_id":%d}`, ev.OrderID))
	}, engine.EventOrderDelivered)

	eng.Events.SubscribeTypes(func(evt engine.Event) {
		ev := evt.Payload.(engine.TrackingFailedEvent)
		h.BroadcastTo(ev.OrderID, "tracking-failed",
			fmt.Sprintf(`{"order_id":%d,"detail":%q}`, ev.OrderID, ev.Error))
	}, engine.EventTrackingFailed)

	eng.Events.SubscribeTypes(func(evt engine.Event) {
		ev := evt.Payload.(engine.WatchStartedEvent)
		h.BroadcastTo(ev.OrderID, "watch-started", fmt.Sprintf(`{"order_id":%d}`, ev.OrderID))
	}, engine.EventWatchStarted)

	eng.Events.SubscribeTypes(func(evt engine.Event) {
		ev := evt.Payload.(engine.WatchStoppedEvent)
		h.BroadcastTo(ev.OrderID, "watch-stopped", fmt.Sprintf(`{"order_id":%d}`, ev.OrderID))
	}, engine.EventWatchStopped)
}

// handleSSE serves the event stream. ?order=N narrows the stream to one
// order and replays its current view so the client does not wait a full
// poll interval for its first paint.
func (h *Handlers) handleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	var orderFilter int64
	if q := r.URL.Query().Get("order"); q != "" {
		id, err := strconv.ParseInt(q, 10, 64)
		if err != nil || id <= 0 {
			http.Error(w, "invalid order", http.StatusBadRequest)
			return
		}
		orderFilter = id
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := h.eventHub.AddClient(orderFilter)
	defer h.eventHub.RemoveClient(ch)

	if orderFilter != 0 {
		if view, ok := h.engine.WatchView(orderFilter); ok {
			if data, ok := viewEventJSON(orderFilter, view); ok {
				fmt.Fprintf(w, "event: view\ndata: %s\n\n", data)
				flusher.Flush()
			}
		}
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case evt := <-ch:
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", evt.Event, evt.Data); err != nil {
				log.Printf("sse: write error: %v", err)
				return
			}
			flusher.Flush()
		}
	}
}
