package engine

import (
	"time"

	"github.com/dilloncoffman/BlazingPizzas/track"
)

func (e *Engine) wireEventHandlers() {
	// Every published view goes to the live mirror and, on a status
	// transition, into history.
	e.Events.SubscribeTypes(func(evt Event) {
		e.handleViewChanged(evt.Payload.(ViewChangedEvent))
	}, EventViewChanged)

	// A fetch failure ends the poll loop. Surface the diagnostic once.
	e.Events.SubscribeTypes(func(evt Event) {
		ev := evt.Payload.(TrackingFailedEvent)
		e.logFn("engine: tracking order %d failed: %s", ev.OrderID, ev.Error)
	}, EventTrackingFailed)

	// An explicitly stopped watch clears its transition state and its
	// live-mirror entry. Delivered orders keep both so the final view
	// remains readable.
	e.Events.SubscribeTypes(func(evt Event) {
		ev := evt.Payload.(WatchStoppedEvent)
		e.transMu.Lock()
		delete(e.lastSeen, ev.OrderID)
		e.transMu.Unlock()
		if e.live != nil {
			e.live.RemoveOrder(ev.OrderID)
		}
	}, EventWatchStopped)

	e.Events.SubscribeTypes(func(evt Event) {
		ev := evt.Payload.(WatchStartedEvent)
		e.debugf("engine: watching order %d", ev.OrderID)
	}, EventWatchStarted)

	e.Events.SubscribeTypes(func(evt Event) {
		ev := evt.Payload.(OrderDeliveredEvent)
		e.logFn("engine: order %d delivered", ev.OrderID)
	}, EventOrderDelivered)
}

func (e *Engine) handleViewChanged(ev ViewChangedEvent) {
	if e.live != nil {
		e.live.SetView(ev.OrderID, ev.View)
	}
	e.debugf("engine: view for order %d: %s", ev.OrderID, ev.View.Phase)

	if ev.View.Phase != track.PhaseTracking || ev.View.Snapshot == nil {
		return
	}
	snap := ev.View.Snapshot

	if snap.Delivered {
		// Retire the watch row so the next process start does not
		// resume a finished order. The tracker stays in memory with
		// its final view.
		if err := e.db.MarkWatchStopped(ev.OrderID); err != nil {
			e.logFn("engine: retire watch %d: %v", ev.OrderID, err)
		}
	}

	e.transMu.Lock()
	old, seen := e.lastSeen[ev.OrderID]
	if seen && old == snap.StatusText {
		e.transMu.Unlock()
		return
	}
	e.lastSeen[ev.OrderID] = snap.StatusText
	e.transMu.Unlock()

	placed := snap.PlacedAt
	if _, err := e.db.AppendStatusHistory(ev.OrderID, snap.StatusText, snap.Delivered, &placed); err != nil {
		e.logFn("engine: append history for order %d: %v", ev.OrderID, err)
	}

	e.Events.Emit(Event{Type: EventStatusChanged, Payload: StatusChangedEvent{
		OrderID:   ev.OrderID,
		OldStatus: old,
		NewStatus: snap.StatusText,
		Delivered: snap.Delivered,
	}})
	if snap.Delivered {
		e.Events.Emit(Event{Type: EventOrderDelivered, Payload: OrderDeliveredEvent{
			OrderID:     ev.OrderID,
			DeliveredAt: time.Now().UTC(),
		}})
	}
}
