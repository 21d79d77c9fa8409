package interfaces

import (
	"context"
	"time"

	"github.com/YelzhanWeb/kitchen-display/internal/domain"
)

// Интерфейсы Сервисов (Business Logic)
type BoardService interface {
	AddOrder(ctx context.Context, order domain.Order) (domain.Order, error)
	Advance(ctx context.Context, orderID string) error
	Cancel(ctx context.Context, orderID string) error
	SetStatus(ctx context.Context, orderID string, status domain.Status) error
	Refresh(ctx context.Context) error

	Order(orderID string) (domain.Order, bool)
	Views(now time.Time) []domain.View
	TerminalViews(now time.Time) []domain.View
}

type HistoryService interface {
	GetOrderHistory(ctx context.Context, orderID string) ([]StatusLogEntry, error)
}
