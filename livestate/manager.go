package livestate

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/dilloncoffman/BlazingPizzas/track"
)

const opTimeout = 2 * time.Second

type update struct {
	orderID int64
	view    *track.View // nil removes the order
}

// Manager mirrors published views into Redis so dashboards and sibling
// processes can read them without going through the tracking engine.
// Writes are queued and applied by a background worker; view delivery
// happens under tracker locks and must never wait on Redis.
type Manager struct {
	store  *RedisStore
	queue  chan update
	stopCh chan struct{}
	wg     sync.WaitGroup
}

func NewManager(store *RedisStore) *Manager {
	return &Manager{
		store:  store,
		queue:  make(chan update, 256),
		stopCh: make(chan struct{}),
	}
}

// Start clears leftover state from a previous run and launches the
// write worker.
func (m *Manager) Start() {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	if err := m.store.Flush(ctx); err != nil {
		log.Printf("livestate: flush stale views: %v", err)
	}
	cancel()

	m.wg.Add(1)
	go m.run()
}

func (m *Manager) Stop() {
	close(m.stopCh)
	m.wg.Wait()
}

// SetView queues a view write. A full queue drops the update; the next
// publication for the order overwrites it anyway.
func (m *Manager) SetView(orderID int64, view track.View) {
	v := view
	select {
	case m.queue <- update{orderID: orderID, view: &v}:
	default:
		log.Printf("livestate: queue full, dropped view for order %d", orderID)
	}
}

// RemoveOrder queues removal of an order's mirrored view.
func (m *Manager) RemoveOrder(orderID int64) {
	select {
	case m.queue <- update{orderID: orderID}:
	default:
		log.Printf("livestate: queue full, dropped removal for order %d", orderID)
	}
}

func (m *Manager) run() {
	defer m.wg.Done()
	for {
		select {
		case <-m.stopCh:
			return
		case u := <-m.queue:
			m.apply(u)
		}
	}
}

func (m *Manager) apply(u update) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	if u.view == nil {
		if err := m.store.RemoveOrder(ctx, u.orderID); err != nil {
			log.Printf("livestate: remove order %d: %v", u.orderID, err)
		}
		return
	}
	if err := m.store.SetView(ctx, u.orderID, *u.view); err != nil {
		log.Printf("livestate: set view for order %d: %v", u.orderID, err)
	}
}
