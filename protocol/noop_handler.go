package protocol

// NoOpHandler implements MessageHandler with no-op methods.
// Embed this and override only the methods you need.
type NoOpHandler struct{}

func (NoOpHandler) HandleTrackRegister(*Envelope, *TrackRegister)           {}
func (NoOpHandler) HandleTrackHeartbeat(*Envelope, *TrackHeartbeat)         {}
func (NoOpHandler) HandleOrderStatusChanged(*Envelope, *OrderStatusChanged) {}
func (NoOpHandler) HandleOrderDelivered(*Envelope, *OrderDelivered)         {}
func (NoOpHandler) HandleTrackFault(*Envelope, *TrackFault)                 {}
func (NoOpHandler) HandleTrackRegistered(*Envelope, *TrackRegistered)       {}
func (NoOpHandler) HandleTrackHeartbeatAck(*Envelope, *TrackHeartbeatAck)   {}
func (NoOpHandler) HandleTrackRequest(*Envelope, *TrackRequest)             {}
func (NoOpHandler) HandleTrackCancel(*Envelope, *TrackCancel)               {}

// Compile-time check that NoOpHandler implements MessageHandler.
var _ MessageHandler = NoOpHandler{}
