package protocol

import "time"

// --- Storefront -> Ops payloads ---

// TrackRegister is sent by a storefront node on startup.
type TrackRegister struct {
	NodeID        string `json:"node_id"`
	Hostname      string `json:"hostname"`
	Version       string `json:"version"`
	ActiveWatches int    `json:"active_watches"`
}

// TrackHeartbeat is sent periodically by a storefront node.
type TrackHeartbeat struct {
	NodeID        string `json:"node_id"`
	Uptime        int64  `json:"uptime_s"`
	ActiveWatches int    `json:"active_watches"`
}

// OrderStatusChanged reports an observed kitchen status transition.
type OrderStatusChanged struct {
	OrderID   int64  `json:"order_id"`
	OldStatus string `json:"old_status,omitempty"`
	NewStatus string `json:"new_status"`
	Delivered bool   `json:"delivered"`
}

// OrderDelivered signals a tracked order reached its terminal state.
type OrderDelivered struct {
	OrderID     int64     `json:"order_id"`
	DeliveredAt time.Time `json:"delivered_at"`
}

// TrackFault reports a watch that ended on a failed status query.
type TrackFault struct {
	OrderID int64  `json:"order_id"`
	Detail  string `json:"detail"`
}

// --- Ops -> Storefront payloads ---

// TrackRegistered acknowledges storefront registration.
type TrackRegistered struct {
	NodeID  string `json:"node_id"`
	Message string `json:"message,omitempty"`
}

// TrackHeartbeatAck acknowledges a heartbeat.
type TrackHeartbeatAck struct {
	NodeID   string `json:"node_id"`
	ServerTS int64  `json:"server_ts"`
}

// TrackRequest asks a storefront node to start watching an order.
type TrackRequest struct {
	OrderID int64 `json:"order_id"`
}

// TrackCancel asks a storefront node to stop watching an order.
type TrackCancel struct {
	OrderID int64  `json:"order_id"`
	Reason  string `json:"reason,omitempty"`
}
