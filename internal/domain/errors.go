package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("order not found")
	ErrIllegalTransition = errors.New("illegal status transition")
	ErrDuplicateOrder    = errors.New("order already exists")
	ErrInvalidOrder      = errors.New("invalid order")
	ErrTransport         = errors.New("transport error")
	ErrProtocol          = errors.New("protocol error")
	ErrConflict          = errors.New("remote rejected transition")
	ErrHandler           = errors.New("event handler failed")
	ErrUnsupported       = errors.New("operation not supported by the order source")
)

// GatewayError describes a failed call against the remote order source.
type GatewayError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *GatewayError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// TransitionError is returned when the state machine refuses a move.
type TransitionError struct {
	OrderID string
	From    Status
	To      Status
}

func (e *TransitionError) Error() string {
	if e.To == "" {
		return fmt.Sprintf("order %s: no transition from %s", e.OrderID, e.From)
	}
	return fmt.Sprintf("order %s: cannot move from %s to %s", e.OrderID, e.From, e.To)
}

func (e *TransitionError) Unwrap() error {
	return ErrIllegalTransition
}
