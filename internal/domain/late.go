package domain

import (
	"fmt"
	"time"
)

const (
	// WaitingLateAfter is how long a paid order may wait for the kitchen.
	WaitingLateAfter = 300
	// PreparingLateAfter is how long an order may stay in preparation.
	PreparingLateAfter = 600
)

// ElapsedSeconds returns whole seconds from ref to now, never negative.
func ElapsedSeconds(ref, now time.Time) int {
	d := now.Sub(ref)
	if d <= 0 {
		return 0
	}
	return int(d / time.Second)
}

// IsLate applies the per-status lateness thresholds.
func IsLate(createdAt time.Time, status Status, startedAt *time.Time, now time.Time) bool {
	switch status {
	case StatusPending, StatusPaid:
		return ElapsedSeconds(createdAt, now) > WaitingLateAfter
	case StatusInProgress:
		if startedAt == nil {
			return false
		}
		return ElapsedSeconds(*startedAt, now) > PreparingLateAfter
	default:
		return false
	}
}

// FormatElapsed renders seconds as M:SS.
func FormatElapsed(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

// View is the derived display state of an order at a given instant
type View struct {
	Order              Order  `json:"order"`
	Late               bool   `json:"is_late"`
	ElapsedSeconds     int    `json:"elapsed_seconds"`
	Elapsed            string `json:"elapsed"`
	PreparationSeconds *int   `json:"preparation_seconds,omitempty"`
}

// NewView computes lateness and timers for order at now. Once the order is
// terminal the clock stops at the terminal timestamp.
func NewView(order Order, now time.Time) View {
	if at, ok := order.TerminalAt(); ok {
		now = at
	}

	elapsed := ElapsedSeconds(order.CreatedAt, now)
	v := View{
		Order:          order,
		Late:           IsLate(order.CreatedAt, order.Status, order.StartedAt, now),
		ElapsedSeconds: elapsed,
		Elapsed:        FormatElapsed(elapsed),
	}
	if order.StartedAt != nil {
		prep := ElapsedSeconds(*order.StartedAt, now)
		v.PreparationSeconds = &prep
	}
	return v
}
