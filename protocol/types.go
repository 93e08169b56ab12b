package protocol

// Message type constants for the unified protocol.
const (
	// Storefront -> Ops (published on the status topic)
	TypeTrackRegister      = "track.register"
	TypeTrackHeartbeat     = "track.heartbeat"
	TypeOrderStatusChanged = "order.status_changed"
	TypeOrderDelivered     = "order.delivered"
	TypeTrackFault         = "track.fault"

	// Ops -> Storefront (published on the control topic)
	TypeTrackRegistered   = "track.registered"
	TypeTrackHeartbeatAck = "track.heartbeat_ack"
	TypeTrackRequest      = "track.request"
	TypeTrackCancel       = "track.cancel"
)

// Roles for Address.Role.
const (
	RoleStorefront = "storefront"
	RoleOps        = "ops"
)

// NodeBroadcast addresses every node holding the destination role.
const NodeBroadcast = "*"

// Protocol version.
const Version = 1
