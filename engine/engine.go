package engine

import (
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/dilloncoffman/BlazingPizzas/config"
	"github.com/dilloncoffman/BlazingPizzas/kitchen"
	"github.com/dilloncoffman/BlazingPizzas/store"
	"github.com/dilloncoffman/BlazingPizzas/track"
)

type LogFunc func(format string, args ...any)

// LiveState mirrors published views into a shared store so other
// processes can read them. Implementations must never block on the
// caller; tracker locks are held while views are delivered.
type LiveState interface {
	SetView(orderID int64, view track.View)
	RemoveOrder(orderID int64)
}

// Messenger is the slice of the messaging client the engine needs for
// diagnostics.
type Messenger interface {
	IsConnected() bool
}

type Config struct {
	AppConfig  *config.Config
	ConfigPath string
	DB         *store.DB
	Kitchen    *kitchen.Client
	Live       LiveState
	LogFunc    LogFunc
	Debug      bool
}

// Engine owns one tracker per watched order and fans their publications
// out through the event bus. Bus handlers must not call back into
// methods that take the engine lock.
type Engine struct {
	cfg        *config.Config
	configPath string
	db         *store.DB
	kitchen    *kitchen.Client
	live       LiveState
	msg        Messenger
	Events     *EventBus
	logFn      LogFunc
	debug      bool
	startedAt  time.Time

	mu      sync.Mutex
	watches map[int64]*track.Tracker

	transMu  sync.Mutex
	lastSeen map[int64]string
}

func New(c Config) *Engine {
	logFn := c.LogFunc
	if logFn == nil {
		logFn = log.Printf
	}
	return &Engine{
		cfg:        c.AppConfig,
		configPath: c.ConfigPath,
		db:         c.DB,
		kitchen:    c.Kitchen,
		live:       c.Live,
		Events:     NewEventBus(),
		logFn:      logFn,
		debug:      c.Debug,
		startedAt:  time.Now(),
		watches:    make(map[int64]*track.Tracker),
		lastSeen:   make(map[int64]string),
	}
}

// Start wires the event handlers and resumes watches that were active
// when the process last stopped.
func (e *Engine) Start() {
	e.wireEventHandlers()
	e.resumeWatches()
	e.logFn("engine: started")
}

// Stop cancels every live poll loop. Watch rows stay active in the
// database so the next Start resumes them.
func (e *Engine) Stop() {
	e.mu.Lock()
	for _, t := range e.watches {
		t.Stop()
	}
	e.mu.Unlock()
	e.logFn("engine: stopped")
}

// StartWatch begins polling the kitchen for an order. Watching an order
// that is already watched restarts its loop from the loading view.
func (e *Engine) StartWatch(orderID int64) error {
	if orderID <= 0 {
		return fmt.Errorf("invalid order id %d", orderID)
	}
	if err := e.db.UpsertWatchedOrder(orderID); err != nil {
		return fmt.Errorf("persist watch for order %d: %w", orderID, err)
	}

	e.cfg.Lock()
	interval := e.cfg.Kitchen.PollInterval
	e.cfg.Unlock()

	e.mu.Lock()
	t, ok := e.watches[orderID]
	if !ok {
		t = track.NewTracker(e.kitchen, &trackEmitter{bus: e.Events}, interval)
		e.watches[orderID] = t
	}
	t.Start(orderID)
	e.mu.Unlock()

	e.Events.Emit(Event{Type: EventWatchStarted, Payload: WatchStartedEvent{OrderID: orderID}})
	return nil
}

// StopWatch ends polling for an order. Stopping an order that is not
// watched only retires any stale database row.
func (e *Engine) StopWatch(orderID int64) {
	e.mu.Lock()
	t, ok := e.watches[orderID]
	if ok {
		t.Stop()
		delete(e.watches, orderID)
	}
	e.mu.Unlock()

	if err := e.db.MarkWatchStopped(orderID); err != nil {
		e.logFn("engine: mark watch %d stopped: %v", orderID, err)
	}
	if ok {
		e.Events.Emit(Event{Type: EventWatchStopped, Payload: WatchStoppedEvent{OrderID: orderID}})
	}
}

// WatchView returns the current view for a watched order. The second
// return is false when the order has no tracker, watched or finished.
func (e *Engine) WatchView(orderID int64) (track.View, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	t, ok := e.watches[orderID]
	if !ok {
		return track.View{}, false
	}
	return t.View(), true
}

// WatchSnapshot pairs an order with its current view for API listings.
type WatchSnapshot struct {
	OrderID int64      `json:"order_id"`
	Active  bool       `json:"active"`
	View    track.View `json:"view"`
}

// Watch returns the full snapshot for one watched order.
func (e *Engine) Watch(orderID int64) (WatchSnapshot, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	t, ok := e.watches[orderID]
	if !ok {
		return WatchSnapshot{}, false
	}
	return WatchSnapshot{OrderID: orderID, Active: t.Active(), View: t.View()}, true
}

// ListWatches returns every known watch, delivered and failed ones
// included, ordered by order ID.
func (e *Engine) ListWatches() []WatchSnapshot {
	e.mu.Lock()
	out := make([]WatchSnapshot, 0, len(e.watches))
	for id, t := range e.watches {
		out = append(out, WatchSnapshot{OrderID: id, Active: t.Active(), View: t.View()})
	}
	e.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].OrderID < out[j].OrderID })
	return out
}

// ActiveCount reports how many poll loops are currently live.
func (e *Engine) ActiveCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, t := range e.watches {
		if t.Active() {
			n++
		}
	}
	return n
}

// ApplyKitchenConfig pushes the current kitchen settings to the shared
// client. The poll interval applies to watches started afterward.
func (e *Engine) ApplyKitchenConfig() {
	e.cfg.Lock()
	base, timeout := e.cfg.Kitchen.BaseURL, e.cfg.Kitchen.Timeout
	e.cfg.Unlock()
	e.kitchen.Reconfigure(base, timeout)
	e.logFn("engine: kitchen client reconfigured (%s)", base)
}

// AttachMessaging hands the engine a connected messaging client for
// status reporting.
func (e *Engine) AttachMessaging(m Messenger) {
	e.msg = m
}

// MsgConnected reports whether the ops messaging plane is reachable.
func (e *Engine) MsgConnected() bool {
	return e.msg != nil && e.msg.IsConnected()
}

// Accessors
func (e *Engine) DB() *store.DB             { return e.db }
func (e *Engine) AppConfig() *config.Config { return e.cfg }
func (e *Engine) ConfigPath() string        { return e.configPath }
func (e *Engine) Kitchen() *kitchen.Client  { return e.kitchen }
func (e *Engine) StartedAt() time.Time      { return e.startedAt }

// resumeWatches restarts poll loops for watch rows left active by a
// previous run. The last recorded status seeds the transition map so
// resuming does not duplicate history rows.
func (e *Engine) resumeWatches() {
	ids, err := e.db.ListActiveWatchIDs()
	if err != nil {
		e.logFn("engine: list active watches: %v", err)
		return
	}
	for _, id := range ids {
		rec, err := e.db.LatestStatus(id)
		if err != nil {
			e.logFn("engine: latest status for order %d: %v", id, err)
		} else if rec != nil {
			e.transMu.Lock()
			e.lastSeen[id] = rec.Status
			e.transMu.Unlock()
		}
		if err := e.StartWatch(id); err != nil {
			e.logFn("engine: resume watch %d: %v", id, err)
		}
	}
	if len(ids) > 0 {
		e.logFn("engine: resumed %d watches", len(ids))
	}
}

func (e *Engine) debugf(format string, args ...any) {
	if e.debug {
		e.logFn(format, args...)
	}
}
