package board

import (
	"fmt"

	"github.com/YelzhanWeb/kitchen-display/internal/domain"
)

// Mode selects how Advance treats orders without a successor.
//
// Only ExplicitStatus walks an order all the way to completed: repeated
// Advance calls reach a terminal status in a bounded number of steps and
// never revisit a status. SinglePath parks orders at ready, where pickup is
// confirmed with an explicit SetStatus.
type Mode int

const (
	// SinglePath stops at ready; advancing a ready or terminal order is a no-op.
	SinglePath Mode = iota
	// ExplicitStatus advances ready to completed and reports advancing a
	// terminal order as an illegal transition.
	ExplicitStatus
)

func ParseMode(s string) (Mode, error) {
	switch s {
	case "single-path", "":
		return SinglePath, nil
	case "explicit-status":
		return ExplicitStatus, nil
	default:
		return 0, fmt.Errorf("unknown board mode %q", s)
	}
}

func (m Mode) String() string {
	if m == ExplicitStatus {
		return "explicit-status"
	}
	return "single-path"
}

func (m Mode) next(s domain.Status) (domain.Status, bool) {
	if m == SinglePath && s == domain.StatusReady {
		return "", false
	}
	return domain.Next(s)
}
