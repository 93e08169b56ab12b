package engine

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dilloncoffman/BlazingPizzas/config"
	"github.com/dilloncoffman/BlazingPizzas/kitchen"
	"github.com/dilloncoffman/BlazingPizzas/store"
	"github.com/dilloncoffman/BlazingPizzas/track"
)

// fakeKitchen serves a single controllable status for every order, so
// tests can walk an order through its lifecycle deterministically.
type fakeKitchen struct {
	mu     sync.Mutex
	status kitchen.OrderStatus
	fail   bool
}

func newFakeKitchen() *fakeKitchen {
	return &fakeKitchen{status: kitchen.OrderStatus{
		PlacedAt:   time.Now().UTC(),
		StatusText: kitchen.StatusPreparing,
	}}
}

func (f *fakeKitchen) set(status string, delivered bool) {
	f.mu.Lock()
	f.status.StatusText = status
	f.status.Delivered = delivered
	f.mu.Unlock()
}

func (f *fakeKitchen) setFail(fail bool) {
	f.mu.Lock()
	f.fail = fail
	f.mu.Unlock()
}

func (f *fakeKitchen) handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/orders/{orderID}/status", func(w http.ResponseWriter, req *http.Request) {
		id, _ := strconv.ParseInt(chi.URLParam(req, "orderID"), 10, 64)
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.fail {
			http.Error(w, "kitchen unavailable", http.StatusInternalServerError)
			return
		}
		st := f.status
		st.OrderID = id
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(st)
	})
	return r
}

// testEngine builds a started engine against a fake kitchen and a
// throwaway sqlite database. seed runs before the engine starts, so
// tests can stage watch rows for resume.
func testEngine(t *testing.T, seed func(db *store.DB)) (*Engine, *fakeKitchen) {
	t.Helper()

	fake := newFakeKitchen()
	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)

	cfg := config.Defaults()
	cfg.Database.SQLite.Path = filepath.Join(t.TempDir(), "engine_test.db")
	cfg.Kitchen.BaseURL = srv.URL
	cfg.Kitchen.PollInterval = 5 * time.Millisecond
	cfg.Kitchen.Timeout = 2 * time.Second

	db, err := store.Open(&cfg.Database)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if seed != nil {
		seed(db)
	}

	eng := New(Config{
		AppConfig: cfg,
		DB:        db,
		Kitchen:   kitchen.NewClient(srv.URL, cfg.Kitchen.Timeout),
		LogFunc:   t.Logf,
	})
	eng.Start()
	t.Cleanup(eng.Stop)
	return eng, fake
}

type eventCollector struct {
	mu     sync.Mutex
	events []Event
}

func collect(eng *Engine, types ...EventType) *eventCollector {
	c := &eventCollector{}
	eng.Events.SubscribeTypes(func(evt Event) {
		c.mu.Lock()
		c.events = append(c.events, evt)
		c.mu.Unlock()
	}, types...)
	return c
}

func (c *eventCollector) ofType(t EventType) []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []Event
	for _, e := range c.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func historyCount(t *testing.T, eng *Engine, orderID int64) int {
	t.Helper()
	recs, err := eng.DB().ListOrderHistory(orderID, 0)
	if err != nil {
		t.Fatalf("list history: %v", err)
	}
	return len(recs)
}

func TestEngineWatchLifecycle(t *testing.T) {
	eng, fake := testEngine(t, nil)
	events := collect(eng, EventStatusChanged, EventOrderDelivered)

	if err := eng.StartWatch(42); err != nil {
		t.Fatalf("StartWatch: %v", err)
	}

	waitFor(t, "preparing in history", func() bool { return historyCount(t, eng, 42) == 1 })

	w, err := eng.DB().GetWatchedOrder(42)
	if err != nil {
		t.Fatalf("get watch row: %v", err)
	}
	if w.State != store.WatchStateActive {
		t.Errorf("watch state = %q, want active", w.State)
	}

	fake.set(kitchen.StatusOutForDelivery, false)
	waitFor(t, "out for delivery in history", func() bool { return historyCount(t, eng, 42) == 2 })

	fake.set(kitchen.StatusDelivered, true)
	waitFor(t, "delivered view", func() bool {
		v, ok := eng.WatchView(42)
		return ok && v.Phase == track.PhaseTracking && v.Snapshot != nil && v.Snapshot.Delivered
	})

	// Repeated fetches of an unchanged status must not add rows: one
	// per distinct label only.
	recs, err := eng.DB().ListOrderHistory(42, 0)
	if err != nil {
		t.Fatalf("list history: %v", err)
	}
	want := []string{kitchen.StatusPreparing, kitchen.StatusOutForDelivery, kitchen.StatusDelivered}
	if len(recs) != len(want) {
		t.Fatalf("history rows = %d, want %d", len(recs), len(want))
	}
	for i, rec := range recs {
		if rec.Status != want[i] {
			t.Errorf("history[%d] = %q, want %q", i, rec.Status, want[i])
		}
	}
	if !recs[2].Delivered {
		t.Error("final history row should be marked delivered")
	}

	changes := events.ofType(EventStatusChanged)
	if len(changes) != 3 {
		t.Fatalf("status change events = %d, want 3", len(changes))
	}
	first := changes[0].Payload.(StatusChangedEvent)
	if first.OldStatus != "" || first.NewStatus != kitchen.StatusPreparing {
		t.Errorf("first transition = %q -> %q, want \"\" -> %q", first.OldStatus, first.NewStatus, kitchen.StatusPreparing)
	}
	last := changes[2].Payload.(StatusChangedEvent)
	if last.OldStatus != kitchen.StatusOutForDelivery || !last.Delivered {
		t.Errorf("last transition = %+v, want out-for-delivery -> delivered", last)
	}
	if n := len(events.ofType(EventOrderDelivered)); n != 1 {
		t.Errorf("delivered events = %d, want 1", n)
	}

	// Delivery retires the watch row and ends the loop, but the final
	// view stays readable.
	w, err = eng.DB().GetWatchedOrder(42)
	if err != nil {
		t.Fatalf("get watch row after delivery: %v", err)
	}
	if w.State != store.WatchStateStopped {
		t.Errorf("watch state after delivery = %q, want stopped", w.State)
	}
	if n := eng.ActiveCount(); n != 0 {
		t.Errorf("active count after delivery = %d, want 0", n)
	}
	if v, ok := eng.WatchView(42); !ok || v.Snapshot == nil || !v.Snapshot.Delivered {
		t.Errorf("final view = %+v ok=%v, want delivered tracking view", v, ok)
	}
}

func TestEngineStopWatch(t *testing.T) {
	eng, _ := testEngine(t, nil)
	events := collect(eng, EventWatchStopped)

	if err := eng.StartWatch(7); err != nil {
		t.Fatalf("StartWatch: %v", err)
	}
	waitFor(t, "history row", func() bool { return historyCount(t, eng, 7) == 1 })

	eng.StopWatch(7)

	if _, ok := eng.WatchView(7); ok {
		t.Error("expected no view after StopWatch")
	}
	if n := len(eng.ListWatches()); n != 0 {
		t.Errorf("watch listing size = %d, want 0", n)
	}
	w, err := eng.DB().GetWatchedOrder(7)
	if err != nil {
		t.Fatalf("get watch row: %v", err)
	}
	if w.State != store.WatchStateStopped {
		t.Errorf("watch state = %q, want stopped", w.State)
	}

	// Stopping again is a no-op and must not emit a second event.
	eng.StopWatch(7)
	if n := len(events.ofType(EventWatchStopped)); n != 1 {
		t.Errorf("watch stopped events = %d, want 1", n)
	}
}

func TestEngineFetchFailureEndsWatch(t *testing.T) {
	eng, fake := testEngine(t, nil)
	fake.setFail(true)
	events := collect(eng, EventTrackingFailed)

	if err := eng.StartWatch(9); err != nil {
		t.Fatalf("StartWatch: %v", err)
	}
	waitFor(t, "tracking failure", func() bool { return len(events.ofType(EventTrackingFailed)) == 1 })

	v, ok := eng.WatchView(9)
	if !ok || v.Phase != track.PhaseInvalid {
		t.Errorf("view = %+v ok=%v, want invalid phase", v, ok)
	}
	if n := eng.ActiveCount(); n != 0 {
		t.Errorf("active count = %d, want 0", n)
	}
	if n := historyCount(t, eng, 9); n != 0 {
		t.Errorf("history rows = %d, want 0", n)
	}

	// The watch row survives a failure so the order can be retried.
	w, err := eng.DB().GetWatchedOrder(9)
	if err != nil {
		t.Fatalf("get watch row: %v", err)
	}
	if w.State != store.WatchStateActive {
		t.Errorf("watch state after failure = %q, want active", w.State)
	}

	fake.setFail(false)
	if err := eng.StartWatch(9); err != nil {
		t.Fatalf("restart watch: %v", err)
	}
	waitFor(t, "recovery to tracking", func() bool {
		v, ok := eng.WatchView(9)
		return ok && v.Phase == track.PhaseTracking
	})
}

func TestEngineResume(t *testing.T) {
	eng, fake := testEngine(t, func(db *store.DB) {
		if err := db.UpsertWatchedOrder(42); err != nil {
			t.Fatalf("seed watch: %v", err)
		}
		if _, err := db.AppendStatusHistory(42, kitchen.StatusPreparing, false, nil); err != nil {
			t.Fatalf("seed history: %v", err)
		}
	})
	events := collect(eng, EventStatusChanged)

	// Start() already resumed the seeded watch.
	waitFor(t, "resumed tracking view", func() bool {
		v, ok := eng.WatchView(42)
		return ok && v.Phase == track.PhaseTracking
	})

	// The seeded status must not be recorded again.
	time.Sleep(50 * time.Millisecond)
	if n := historyCount(t, eng, 42); n != 1 {
		t.Errorf("history rows after resume = %d, want 1", n)
	}

	fake.set(kitchen.StatusOutForDelivery, false)
	waitFor(t, "new transition after resume", func() bool { return historyCount(t, eng, 42) == 2 })

	changes := events.ofType(EventStatusChanged)
	if len(changes) != 1 {
		t.Fatalf("status change events = %d, want 1", len(changes))
	}
	ev := changes[0].Payload.(StatusChangedEvent)
	if ev.OldStatus != kitchen.StatusPreparing || ev.NewStatus != kitchen.StatusOutForDelivery {
		t.Errorf("transition = %q -> %q, want preparing -> out for delivery", ev.OldStatus, ev.NewStatus)
	}
}

type fakeLiveState struct {
	mu      sync.Mutex
	views   map[int64]track.View
	removed []int64
}

func (f *fakeLiveState) SetView(orderID int64, view track.View) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.views == nil {
		f.views = make(map[int64]track.View)
	}
	f.views[orderID] = view
}

func (f *fakeLiveState) RemoveOrder(orderID int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, orderID)
}

func (f *fakeLiveState) view(orderID int64) (track.View, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.views[orderID]
	return v, ok
}

func TestEngineLiveStateMirror(t *testing.T) {
	fake := newFakeKitchen()
	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)

	cfg := config.Defaults()
	cfg.Database.SQLite.Path = filepath.Join(t.TempDir(), "engine_test.db")
	cfg.Kitchen.BaseURL = srv.URL
	cfg.Kitchen.PollInterval = 5 * time.Millisecond

	db, err := store.Open(&cfg.Database)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	live := &fakeLiveState{}
	eng := New(Config{
		AppConfig: cfg,
		DB:        db,
		Kitchen:   kitchen.NewClient(srv.URL, 2*time.Second),
		Live:      live,
		LogFunc:   t.Logf,
	})
	eng.Start()
	t.Cleanup(eng.Stop)

	if err := eng.StartWatch(13); err != nil {
		t.Fatalf("StartWatch: %v", err)
	}
	waitFor(t, "tracking view in mirror", func() bool {
		v, ok := live.view(13)
		return ok && v.Phase == track.PhaseTracking
	})

	eng.StopWatch(13)
	waitFor(t, "mirror entry removed", func() bool {
		live.mu.Lock()
		defer live.mu.Unlock()
		return len(live.removed) == 1 && live.removed[0] == 13
	})
}

func TestEngineStartWatchValidation(t *testing.T) {
	eng, _ := testEngine(t, nil)
	if err := eng.StartWatch(0); err == nil {
		t.Error("expected error for order id 0")
	}
	if err := eng.StartWatch(-4); err == nil {
		t.Error("expected error for negative order id")
	}
}

func TestEngineListWatchesOrdered(t *testing.T) {
	eng, _ := testEngine(t, nil)
	for _, id := range []int64{30, 10, 20} {
		if err := eng.StartWatch(id); err != nil {
			t.Fatalf("StartWatch(%d): %v", id, err)
		}
	}
	list := eng.ListWatches()
	if len(list) != 3 {
		t.Fatalf("len = %d, want 3", len(list))
	}
	for i, want := range []int64{10, 20, 30} {
		if list[i].OrderID != want {
			t.Errorf("list[%d].OrderID = %d, want %d", i, list[i].OrderID, want)
		}
	}
}
