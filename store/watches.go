package store

import "time"

// Watch states.
const (
	WatchStateActive  = "active"
	WatchStateStopped = "stopped"
)

// WatchedOrder is one order the storefront tracks on behalf of a
// customer. State is "active" while a poll loop should exist for it.
type WatchedOrder struct {
	ID        int64     `json:"id"`
	OrderID   int64     `json:"order_id"`
	State     string    `json:"state"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UpsertWatchedOrder marks an order as actively watched, reviving a
// previously stopped row if one exists.
func (db *DB) UpsertWatchedOrder(orderID int64) error {
	_, err := db.Exec(db.Q(`INSERT INTO watched_orders (order_id, state) VALUES (?, 'active')
		ON CONFLICT(order_id) DO UPDATE SET state = 'active', updated_at = datetime('now','localtime')`), orderID)
	return err
}

// MarkWatchStopped retires the watch row without deleting its history.
func (db *DB) MarkWatchStopped(orderID int64) error {
	_, err := db.Exec(db.Q(`UPDATE watched_orders SET state = 'stopped', updated_at = datetime('now','localtime') WHERE order_id = ?`), orderID)
	return err
}

// GetWatchedOrder returns the watch row for one order.
func (db *DB) GetWatchedOrder(orderID int64) (*WatchedOrder, error) {
	row := db.QueryRow(db.Q(`SELECT id, order_id, state, created_at, updated_at FROM watched_orders WHERE order_id = ?`), orderID)
	return scanWatchedOrder(row)
}

// ListActiveWatchIDs returns the order IDs that should have live poll
// loops, oldest watch first.
func (db *DB) ListActiveWatchIDs() ([]int64, error) {
	rows, err := db.Query(db.Q(`SELECT order_id FROM watched_orders WHERE state = 'active' ORDER BY id`))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanWatchedOrder(row interface{ Scan(...any) error }) (*WatchedOrder, error) {
	var w WatchedOrder
	var createdAt, updatedAt any
	if err := row.Scan(&w.ID, &w.OrderID, &w.State, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	w.CreatedAt = parseTime(createdAt)
	w.UpdatedAt = parseTime(updatedAt)
	return &w, nil
}
