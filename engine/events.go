package engine

import (
	"time"

	"github.com/dilloncoffman/BlazingPizzas/track"
)

const (
	EventWatchStarted EventType = iota + 1
	EventWatchStopped
	EventViewChanged
	EventStatusChanged
	EventOrderDelivered
	EventTrackingFailed
)

// --- Event payloads ---

type WatchStartedEvent struct {
	OrderID int64
}

type WatchStoppedEvent struct {
	OrderID int64
}

// ViewChangedEvent carries every published view, including the loading
// view at watch start and repeated tracking views with an unchanged
// status label.
type ViewChangedEvent struct {
	OrderID int64
	View    track.View
}

// StatusChangedEvent fires only when the status label differs from the
// last one recorded for the order.
type StatusChangedEvent struct {
	OrderID   int64
	OldStatus string
	NewStatus string
	Delivered bool
}

type OrderDeliveredEvent struct {
	OrderID     int64
	DeliveredAt time.Time
}

type TrackingFailedEvent struct {
	OrderID int64
	Error   string
}
