package events

import (
	"time"

	"github.com/YelzhanWeb/kitchen-display/internal/domain"
)

type Type string

const (
	OrderCreated       Type = "ORDER_CREATED"
	OrderStatusChanged Type = "ORDER_STATUS_CHANGED"
	OrderCanceled      Type = "ORDER_CANCELED"
	OrderUpdated       Type = "ORDER_UPDATED"
)

// Event is a notification about a change in the order store. Order is a
// snapshot; PreviousStatus and NewStatus are set for status changes only.
type Event struct {
	Type           Type          `json:"type"`
	Timestamp      time.Time     `json:"timestamp"`
	OrderID        string        `json:"order_id"`
	Order          *domain.Order `json:"order,omitempty"`
	PreviousStatus domain.Status `json:"previous_status,omitempty"`
	NewStatus      domain.Status `json:"new_status,omitempty"`
}

// Handler reacts to a single event.
type Handler func(Event) error

func Created(order domain.Order, at time.Time) Event {
	return Event{Type: OrderCreated, Timestamp: at, OrderID: order.ID, Order: &order}
}

func Updated(order domain.Order, at time.Time) Event {
	return Event{Type: OrderUpdated, Timestamp: at, OrderID: order.ID, Order: &order}
}

func StatusChanged(order domain.Order, previous domain.Status, at time.Time) Event {
	return Event{
		Type:           OrderStatusChanged,
		Timestamp:      at,
		OrderID:        order.ID,
		Order:          &order,
		PreviousStatus: previous,
		NewStatus:      order.Status,
	}
}

func Canceled(order domain.Order, at time.Time) Event {
	return Event{Type: OrderCanceled, Timestamp: at, OrderID: order.ID, Order: &order}
}
