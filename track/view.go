package track

import "github.com/dilloncoffman/BlazingPizzas/kitchen"

// Phase identifies which face of the tracking view is showing.
type Phase string

const (
	PhaseLoading  Phase = "loading"
	PhaseInvalid  Phase = "invalid"
	PhaseTracking Phase = "tracking"
)

// View is what a renderer shows for one tracked order.
type View struct {
	Phase    Phase                `json:"phase"`
	OrderID  int64                `json:"order_id"`
	Snapshot *kitchen.OrderStatus `json:"snapshot,omitempty"`
}

// viewOf projects tracker state into a View. A failed query wins over any
// retained snapshot; no snapshot and no failure is still loading.
func viewOf(orderID int64, snapshot *kitchen.OrderStatus, invalid bool) View {
	switch {
	case invalid:
		return View{Phase: PhaseInvalid, OrderID: orderID}
	case snapshot == nil:
		return View{Phase: PhaseLoading, OrderID: orderID}
	default:
		return View{Phase: PhaseTracking, OrderID: orderID, Snapshot: snapshot}
	}
}
