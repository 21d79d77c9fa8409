package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Order represents a kitchen order as shown on the board
type Order struct {
	ID           string      `json:"id"`
	Number       int         `json:"order_number"`
	Status       Status      `json:"status"`
	Items        []OrderItem `json:"items"`
	CustomerName string      `json:"customer_name,omitempty"`
	Notes        string      `json:"notes,omitempty"`
	OrderType    string      `json:"order_type,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	StartedAt    *time.Time  `json:"started_at,omitempty"`
	CompletedAt  *time.Time  `json:"completed_at,omitempty"`
	CanceledAt   *time.Time  `json:"cancelled_at,omitempty"`
}

// OrderItem represents one line of an order
type OrderItem struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Quantity   int         `json:"quantity"`
	Modifiers  []Modifier  `json:"modifiers,omitempty"`
	Extras     []Extra     `json:"extras,omitempty"`
	Exceptions []Exception `json:"exceptions,omitempty"`
	Notes      string      `json:"notes,omitempty"`
}

// Modifier is a substitution or preference, e.g. "oat milk".
type Modifier struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// Extra is a paid add-on.
type Extra struct {
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

// Exception is an explicit removal, e.g. "no onions".
type Exception struct {
	Name string `json:"name"`
}

// Validate applies the structural rules every order on the board must satisfy
func (o *Order) Validate() error {
	if o.ID == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidOrder)
	}
	if !o.Status.Valid() {
		return fmt.Errorf("%w: order %s has unknown status %q", ErrInvalidOrder, o.ID, o.Status)
	}
	if o.CreatedAt.IsZero() {
		return fmt.Errorf("%w: order %s has no creation time", ErrInvalidOrder, o.ID)
	}

	for _, ts := range []*time.Time{o.StartedAt, o.CompletedAt, o.CanceledAt} {
		if ts != nil && ts.Before(o.CreatedAt) {
			return fmt.Errorf("%w: order %s has a timestamp before creation", ErrInvalidOrder, o.ID)
		}
	}

	for i, item := range o.Items {
		if item.Name == "" {
			return fmt.Errorf("%w: order %s item %d has no name", ErrInvalidOrder, o.ID, i)
		}
		if item.Quantity < 1 {
			return fmt.Errorf("%w: order %s item %q quantity must be at least 1", ErrInvalidOrder, o.ID, item.Name)
		}
	}

	return nil
}

// TransitionTo moves the order to newStatus and stamps the matching
// timestamp the first time the status is entered.
func (o *Order) TransitionTo(newStatus Status, at time.Time) error {
	if !CanTransition(o.Status, newStatus) {
		return &TransitionError{OrderID: o.ID, From: o.Status, To: newStatus}
	}

	if at.Before(o.CreatedAt) {
		at = o.CreatedAt
	}
	o.Status = newStatus

	switch newStatus {
	case StatusInProgress:
		if o.StartedAt == nil {
			o.StartedAt = &at
		}
	case StatusCompleted:
		if o.CompletedAt == nil {
			o.CompletedAt = &at
		}
	case StatusCanceled:
		if o.CanceledAt == nil {
			o.CanceledAt = &at
		}
	}
	return nil
}

// TerminalAt returns the moment the order left the board, if it has.
func (o *Order) TerminalAt() (time.Time, bool) {
	switch o.Status {
	case StatusCompleted:
		if o.CompletedAt != nil {
			return *o.CompletedAt, true
		}
	case StatusCanceled:
		if o.CanceledAt != nil {
			return *o.CanceledAt, true
		}
	}
	return time.Time{}, false
}

// Clone returns a deep copy safe to hand out of the store.
func (o *Order) Clone() Order {
	c := *o
	c.StartedAt = cloneTime(o.StartedAt)
	c.CompletedAt = cloneTime(o.CompletedAt)
	c.CanceledAt = cloneTime(o.CanceledAt)

	if o.Items != nil {
		c.Items = make([]OrderItem, len(o.Items))
		for i, item := range o.Items {
			ci := item
			ci.Modifiers = append([]Modifier(nil), item.Modifiers...)
			ci.Extras = append([]Extra(nil), item.Extras...)
			ci.Exceptions = append([]Exception(nil), item.Exceptions...)
			c.Items[i] = ci
		}
	}
	return c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
