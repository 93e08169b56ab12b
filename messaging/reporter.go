package messaging

import (
	"log"

	"github.com/dilloncoffman/BlazingPizzas/engine"
	"github.com/dilloncoffman/BlazingPizzas/protocol"
	"github.com/dilloncoffman/BlazingPizzas/store"
)

// StatusReporter turns tracking events into protocol messages for the
// ops plane. Messages go through the outbox, so they survive broker
// outages and process restarts; the drainer publishes them.
type StatusReporter struct {
	db     *store.DB
	nodeID string
	topic  string
}

func NewStatusReporter(db *store.DB, nodeID, statusTopic string) *StatusReporter {
	return &StatusReporter{
		db:     db,
		nodeID: nodeID,
		topic:  statusTopic,
	}
}

// Wire subscribes the reporter to the engine's event bus.
func (r *StatusReporter) Wire(bus *engine.EventBus) {
	bus.SubscribeTypes(func(evt engine.Event) {
		switch p := evt.Payload.(type) {
		case engine.StatusChangedEvent:
			r.reportStatusChanged(p)
		case engine.OrderDeliveredEvent:
			r.reportDelivered(p)
		case engine.TrackingFailedEvent:
			r.reportFault(p)
		}
	}, engine.EventStatusChanged, engine.EventOrderDelivered, engine.EventTrackingFailed)
}

func (r *StatusReporter) addresses() (protocol.Address, protocol.Address) {
	src := protocol.Address{Role: protocol.RoleStorefront, Node: r.nodeID}
	dst := protocol.Address{Role: protocol.RoleOps}
	return src, dst
}

func (r *StatusReporter) enqueue(msgType string, payload any) {
	src, dst := r.addresses()
	env, err := protocol.NewEnvelope(msgType, src, dst, payload)
	if err != nil {
		log.Printf("reporter: build %s: %v", msgType, err)
		return
	}
	data, err := env.Encode()
	if err != nil {
		log.Printf("reporter: encode %s: %v", msgType, err)
		return
	}
	if _, err := r.db.EnqueueOutbox(r.topic, data, env.Type); err != nil {
		log.Printf("reporter: enqueue %s: %v", msgType, err)
	}
}

func (r *StatusReporter) reportStatusChanged(ev engine.StatusChangedEvent) {
	r.enqueue(protocol.TypeOrderStatusChanged, &protocol.OrderStatusChanged{
		OrderID:   ev.OrderID,
		OldStatus: ev.OldStatus,
		NewStatus: ev.NewStatus,
		Delivered: ev.Delivered,
	})
}

func (r *StatusReporter) reportDelivered(ev engine.OrderDeliveredEvent) {
	r.enqueue(protocol.TypeOrderDelivered, &protocol.OrderDelivered{
		OrderID:     ev.OrderID,
		DeliveredAt: ev.DeliveredAt,
	})
}

func (r *StatusReporter) reportFault(ev engine.TrackingFailedEvent) {
	r.enqueue(protocol.TypeTrackFault, &protocol.TrackFault{
		OrderID: ev.OrderID,
		Detail:  ev.Error,
	})
}
