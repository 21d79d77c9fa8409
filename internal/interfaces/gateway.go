package interfaces

import (
	"context"

	"github.com/YelzhanWeb/kitchen-display/internal/domain"
)

// Интерфейсы удалённого источника заказов (Adapter/KDS API, Adapter/Simulation)
type OrderGateway interface {
	// FetchAll returns every non-archived order known to the remote source.
	FetchAll(ctx context.Context) ([]domain.Order, error)
	// PatchStatus asks the remote source to move an order to status.
	PatchStatus(ctx context.Context, orderID string, status domain.Status) (domain.Order, error)
}

// OrderCreator is implemented by gateways that accept locally created
// orders (the simulation gateway does, the remote KDS API does not).
type OrderCreator interface {
	CreateOrder(ctx context.Context, order domain.Order) error
}
