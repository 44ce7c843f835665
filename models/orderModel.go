package models

import (
	"errors"
	"fmt"
	"time"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusReady      Status = "ready"
	StatusCompleted  Status = "completed"
	// StatusCancelled is set by the server only. The client never requests it.
	StatusCancelled Status = "cancelled"
)

// ErrTerminalStatus is returned when an order has no further status to move to.
var ErrTerminalStatus = errors.New("order is already at its final status")

var statusFlow = []Status{StatusPending, StatusInProgress, StatusReady, StatusCompleted}

// Next returns the status that directly follows s in the kitchen progression.
// An unknown status restarts the progression at pending.
func (s Status) Next() (Status, error) {
	if s == StatusCancelled {
		return "", ErrTerminalStatus
	}
	for i, st := range statusFlow {
		if st != s {
			continue
		}
		if i == len(statusFlow)-1 {
			return "", ErrTerminalStatus
		}
		return statusFlow[i+1], nil
	}
	return StatusPending, nil
}

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusReady, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

type Order struct {
	ID           int64       `json:"id" validate:"required"`
	RestaurantID int64       `json:"restaurant_id"`
	TableID      *int64      `json:"table_id"`
	Status       Status      `json:"status" validate:"required,order_status"`
	Notes        *string     `json:"notes"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
	Items        []OrderItem `json:"items" validate:"dive"`
}

// IsWalkIn reports whether the order was placed without a table.
func (o Order) IsWalkIn() bool {
	return o.TableID == nil
}

func (o Order) Label() string {
	if o.TableID == nil {
		return "Walk-in"
	}
	return fmt.Sprintf("Table %d", *o.TableID)
}

type OrderItem struct {
	ID                  int64        `json:"id"`
	MenuItemID          int64        `json:"menu_item_id" validate:"required"`
	Quantity            int          `json:"quantity" validate:"min=1"`
	UnitPrice           float64      `json:"unit_price" validate:"min=0"`
	SpecialInstructions *string      `json:"special_instructions"`
	MenuItem            *MenuItemRef `json:"menu_item,omitempty"`
}

// MenuItemRef is the denormalized menu item snapshot embedded in order items.
type MenuItemRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func (i OrderItem) DisplayName() string {
	if i.MenuItem != nil && i.MenuItem.Name != "" {
		return i.MenuItem.Name
	}
	return fmt.Sprintf("Item %d", i.MenuItemID)
}

type CreateOrderItem struct {
	MenuItemID          int64   `json:"menu_item_id" validate:"required"`
	Quantity            int     `json:"quantity" validate:"min=1"`
	SpecialInstructions *string `json:"special_instructions"`
}

type CreateOrderRequest struct {
	RestaurantID *int64            `json:"restaurant_id"`
	TableID      *int64            `json:"table_id"`
	Notes        string            `json:"notes"`
	Items        []CreateOrderItem `json:"items" validate:"required,min=1,dive"`
}

type StatusUpdate struct {
	Status Status `json:"status" validate:"required,order_status"`
}
