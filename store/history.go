package store

import (
	"database/sql"
	"errors"
	"time"
)

// StatusRecord is one observed status transition for an order.
type StatusRecord struct {
	ID         int64      `json:"id"`
	OrderID    int64      `json:"order_id"`
	Status     string     `json:"status"`
	Delivered  bool       `json:"delivered"`
	PlacedAt   *time.Time `json:"placed_at,omitempty"`
	RecordedAt time.Time  `json:"recorded_at"`
}

// AppendStatusHistory records a newly observed status label for an order.
func (db *DB) AppendStatusHistory(orderID int64, status string, delivered bool, placedAt *time.Time) (int64, error) {
	var placed any
	if placedAt != nil && !placedAt.IsZero() {
		placed = *placedAt
	}
	return db.insertID(`INSERT INTO status_history (order_id, status, delivered, placed_at) VALUES (?, ?, ?, ?)`,
		orderID, status, delivered, placed)
}

// LatestStatus returns the most recent recorded status for an order, or
// nil when nothing has been recorded yet.
func (db *DB) LatestStatus(orderID int64) (*StatusRecord, error) {
	row := db.QueryRow(db.Q(`SELECT id, order_id, status, delivered, placed_at, recorded_at
		FROM status_history WHERE order_id = ? ORDER BY id DESC LIMIT 1`), orderID)
	rec, err := scanStatusRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return rec, err
}

// ListOrderHistory returns an order's transitions, oldest first.
func (db *DB) ListOrderHistory(orderID int64, limit int) ([]*StatusRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := db.Query(db.Q(`SELECT id, order_id, status, delivered, placed_at, recorded_at
		FROM status_history WHERE order_id = ? ORDER BY id LIMIT ?`), orderID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var recs []*StatusRecord
	for rows.Next() {
		rec, err := scanStatusRecord(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

func scanStatusRecord(row interface{ Scan(...any) error }) (*StatusRecord, error) {
	var r StatusRecord
	var placedAt, recordedAt any
	if err := row.Scan(&r.ID, &r.OrderID, &r.Status, &r.Delivered, &placedAt, &recordedAt); err != nil {
		return nil, err
	}
	r.PlacedAt = parseTimePtr(placedAt)
	r.RecordedAt = parseTime(recordedAt)
	return &r, nil
}
