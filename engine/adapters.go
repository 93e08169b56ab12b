package engine

import "github.com/dilloncoffman/BlazingPizzas/track"

// trackEmitter bridges the track package's emitter interface to the
// EventBus. Trackers call it with their own lock held, so everything
// downstream of Emit must stay clear of tracker methods.
type trackEmitter struct {
	bus *EventBus
}

func (e *trackEmitter) EmitViewChanged(orderID int64, view track.View) {
	e.bus.Emit(Event{Type: EventViewChanged, Payload: ViewChangedEvent{
		OrderID: orderID,
		View:    view,
	}})
}

func (e *trackEmitter) EmitTrackingFailed(orderID int64, err error) {
	e.bus.Emit(Event{Type: EventTrackingFailed, Payload: TrackingFailedEvent{
		OrderID: orderID,
		Error:   err.Error(),
	}})
}
