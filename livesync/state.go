package livesync

import (
	"time"

	"go-restaurant-ordering/models"
)

// State is the connection state of a Channel.
type State int

const (
	// StateClosed is the state before Start and after Stop.
	StateClosed State = iota
	StateConnecting
	StateLive
	StateDegraded
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateLive:
		return "live"
	case StateDegraded:
		return "degraded"
	default:
		return "closed"
	}
}

// Snapshot is an immutable view of a Channel at one instant. Orders always
// come from a single server response.
type Snapshot struct {
	State        State
	Orders       []models.Order
	Err          string
	AuthRequired bool
	UpdatedAt    time.Time
}

// Active returns the orders still being worked on, in server order.
func (s Snapshot) Active() []models.Order {
	out := make([]models.Order, 0, len(s.Orders))
	for _, o := range s.Orders {
		if !o.Status.Terminal() {
			out = append(out, o)
		}
	}
	return out
}
