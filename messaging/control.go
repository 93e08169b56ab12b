package messaging

import (
	"log"

	"github.com/dilloncoffman/BlazingPizzas/engine"
	"github.com/dilloncoffman/BlazingPizzas/protocol"
)

// ControlListener subscribes to the ops control topic and routes
// track.request and track.cancel messages into the engine. Messages
// addressed to other storefront nodes are filtered out by header.
type ControlListener struct {
	client *Client
	eng    *engine.Engine
	topic  string
	nodeID string
}

func NewControlListener(client *Client, eng *engine.Engine, controlTopic, nodeID string) *ControlListener {
	return &ControlListener{
		client: client,
		eng:    eng,
		topic:  controlTopic,
		nodeID: nodeID,
	}
}

// Start subscribes to the control topic and begins processing commands.
func (l *ControlListener) Start() error {
	ing := protocol.NewIngestor(&controlHandler{eng: l.eng}, func(hdr *protocol.RawHeader) bool {
		return hdr.Dst.Node == l.nodeID || hdr.Dst.Node == protocol.NodeBroadcast
	})
	return l.client.Subscribe(l.topic, ing.HandleRaw)
}

type controlHandler struct {
	protocol.NoOpHandler
	eng *engine.Engine
}

func (h *controlHandler) HandleTrackRequest(env *protocol.Envelope, p *protocol.TrackRequest) {
	log.Printf("control: ops requested watch on order %d", p.OrderID)
	if err := h.eng.StartWatch(p.OrderID); err != nil {
		log.Printf("control: start watch %d: %v", p.OrderID, err)
	}
}

func (h *controlHandler) HandleTrackCancel(env *protocol.Envelope, p *protocol.TrackCancel) {
	if p.Reason != "" {
		log.Printf("control: ops cancelled watch on order %d: %s", p.OrderID, p.Reason)
	} else {
		log.Printf("control: ops cancelled watch on order %d", p.OrderID)
	}
	h.eng.StopWatch(p.OrderID)
}

func (h *controlHandler) HandleTrackRegistered(env *protocol.Envelope, p *protocol.TrackRegistered) {
	log.Printf("control: registered with ops plane (node=%s)", p.NodeID)
}

func (h *controlHandler) HandleTrackHeartbeatAck(env *protocol.Envelope, p *protocol.TrackHeartbeatAck) {
}
