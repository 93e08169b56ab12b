package track

import (
	"context"
	"sync"
	"time"

	"github.com/dilloncoffman/BlazingPizzas/kitchen"
)

// DefaultInterval is the delay between successive status fetches.
const DefaultInterval = 4 * time.Second

// StatusFetcher retrieves the current snapshot for an order.
type StatusFetcher interface {
	FetchOrderStatus(ctx context.Context, orderID int64) (*kitchen.OrderStatus, error)
}

// Emitter receives view updates and failure reports from a Tracker.
// Calls arrive with the Tracker's lock held, so implementations must not
// call back into the Tracker.
type Emitter interface {
	EmitViewChanged(orderID int64, view View)
	EmitTrackingFailed(orderID int64, err error)
}

// session is one run of the poll loop. A Tracker has at most one live
// session; starting a new watch supersedes and cancels the previous one.
type session struct {
	orderID  int64
	stopOnce sync.Once
	stopCh   chan struct{}
}

func newSession(orderID int64) *session {
	return &session{orderID: orderID, stopCh: make(chan struct{})}
}

func (s *session) cancel() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

func (s *session) live() bool {
	select {
	case <-s.stopCh:
		return false
	default:
		return true
	}
}

// Tracker polls the kitchen for one order until it is delivered, the
// watch is stopped, or a fetch fails. Each successful fetch replaces the
// snapshot wholesale and publishes the new view to the emitter.
type Tracker struct {
	fetcher  StatusFetcher
	emitter  Emitter
	interval time.Duration

	mu       sync.Mutex
	sess     *session
	orderID  int64
	snapshot *kitchen.OrderStatus
	invalid  bool
}

// NewTracker creates a stopped tracker. A non-positive interval falls
// back to DefaultInterval.
func NewTracker(fetcher StatusFetcher, emitter Emitter, interval time.Duration) *Tracker {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Tracker{
		fetcher:  fetcher,
		emitter:  emitter,
		interval: interval,
	}
}

// Start begins watching orderID and returns without waiting for the first
// fetch. Any in-progress watch is superseded: its loop is cancelled and
// none of its publications can be observed from here on. The loading view
// is published before the first fetch is attempted.
func (t *Tracker) Start(orderID int64) {
	t.mu.Lock()
	if t.sess != nil {
		t.sess.cancel()
	}
	s := newSession(orderID)
	t.sess = s
	t.orderID = orderID
	t.snapshot = nil
	t.invalid = false
	t.emitter.EmitViewChanged(orderID, viewOf(orderID, nil, false))
	t.mu.Unlock()

	go t.run(s)
}

// Stop cancels the current watch, if any. Safe to call repeatedly and
// before any watch has started. Stopping publishes nothing; the last
// published view simply stops updating.
func (t *Tracker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sess != nil {
		t.sess.cancel()
		t.sess = nil
	}
}

// run is the poll loop for one session. In-flight fetches are never
// aborted on cancel; stale results are discarded at the publication gate.
func (t *Tracker) run(s *session) {
	for {
		status, err := t.fetcher.FetchOrderStatus(context.Background(), s.orderID)
		if err != nil {
			t.fail(s, err)
			return
		}
		if !t.publish(s, status) {
			return
		}
		if status.Delivered {
			s.cancel()
			return
		}

		timer := time.NewTimer(t.interval)
		select {
		case <-timer.C:
		case <-s.stopCh:
			timer.Stop()
			return
		}
		if !s.live() {
			return
		}
	}
}

// publish installs a fresh snapshot and emits the tracking view. It
// reports false when s is no longer the live session, in which case
// nothing was published.
func (t *Tracker) publish(s *session, status *kitchen.OrderStatus) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sess != s || !s.live() {
		return false
	}
	t.invalid = false
	t.snapshot = status
	t.emitter.EmitViewChanged(s.orderID, viewOf(s.orderID, t.snapshot, false))
	return true
}

// fail ends the session on a fetch error: the invalid view is published
// exactly once and the error reported exactly once. A session that was
// already cancelled or superseded publishes and reports nothing.
func (t *Tracker) fail(s *session, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sess != s || !s.live() {
		return
	}
	s.cancel()
	t.invalid = true
	t.emitter.EmitViewChanged(s.orderID, viewOf(s.orderID, t.snapshot, true))
	t.emitter.EmitTrackingFailed(s.orderID, err)
}

// View returns the current view state.
func (t *Tracker) View() View {
	t.mu.Lock()
	defer t.mu.Unlock()
	return viewOf(t.orderID, t.snapshot, t.invalid)
}

// OrderID returns the most recently watched order.
func (t *Tracker) OrderID() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.orderID
}

// Active reports whether a watch loop is currently live.
func (t *Tracker) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sess != nil && t.sess.live()
}
