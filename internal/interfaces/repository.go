package interfaces

import (
	"context"
	"time"

	"github.com/YelzhanWeb/kitchen-display/internal/domain"
)

// Интерфейсы Репозиториев (Adapter/Postgres)
type StatusLogRepository interface {
	LogStatus(ctx context.Context, entry StatusLogEntry) error
	GetStatusHistory(ctx context.Context, orderID string) ([]StatusLogEntry, error)
}

type StatusLogEntry struct {
	ID          int64
	OrderID     string
	OrderNumber int
	OldStatus   domain.Status
	NewStatus   domain.Status
	ChangedAt   time.Time
}
