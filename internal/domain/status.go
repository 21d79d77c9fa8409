package domain

import "fmt"

type Status string

const (
	StatusPending    Status = "pending"
	StatusPaid       Status = "paid"
	StatusInProgress Status = "in_progress"
	StatusReady      Status = "ready"
	StatusCompleted  Status = "completed"
	StatusCanceled   Status = "cancelled"
)

var statusLabels = map[Status]string{
	StatusPending:    "Pending",
	StatusPaid:       "Paid",
	StatusInProgress: "In Progress",
	StatusReady:      "Ready",
	StatusCompleted:  "Completed",
	StatusCanceled:   "Canceled",
}

// nextStatus is the single forward path through the kitchen.
var nextStatus = map[Status]Status{
	StatusPending:    StatusInProgress,
	StatusPaid:       StatusInProgress,
	StatusInProgress: StatusReady,
	StatusReady:      StatusCompleted,
}

// ParseStatus converts a wire value into a Status.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.Valid() {
		return "", fmt.Errorf("%w: unknown status %q", ErrInvalidOrder, s)
	}
	return st, nil
}

func (s Status) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

func (s Status) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCanceled
}

// Active reports whether the order still belongs on the kitchen board.
func (s Status) Active() bool {
	return s.Valid() && !s.Terminal()
}

// Next returns the unique successor of s on the forward path.
func Next(s Status) (Status, bool) {
	n, ok := nextStatus[s]
	return n, ok
}

// CanTransition checks a requested move against the state machine.
// Cancellation is allowed from every non-terminal status; any other move
// must follow Next exactly.
func CanTransition(from, to Status) bool {
	if !from.Valid() || !to.Valid() {
		return false
	}
	if to == StatusCanceled {
		return !from.Terminal()
	}
	n, ok := Next(from)
	return ok && n == to
}
