package models

const (
	EventOrderCreated = "order_created"
	EventOrderStatus  = "order_status"
)

// Message is the envelope broadcast on the orders push channel. Clients must
// treat it as a change signal only; the fields are informational.
type Message struct {
	Type    string `json:"type"`
	OrderID int64  `json:"order_id,omitempty"`
	Status  Status `json:"status,omitempty"`
}
