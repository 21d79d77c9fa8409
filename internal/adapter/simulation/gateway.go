package simulation

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/YelzhanWeb/kitchen-display/internal/domain"
)

// Gateway is an in-process stand-in for the remote order source. It keeps
// the same contract as the KDS API client so the board runs unchanged
// without a network.
type Gateway struct {
	mu      sync.Mutex
	orders  map[string]*domain.Order
	latency time.Duration
	now     func() time.Time
}

func NewGateway(latency time.Duration) *Gateway {
	return &Gateway{
		orders:  make(map[string]*domain.Order),
		latency: latency,
		now:     time.Now,
	}
}

func (g *Gateway) FetchAll(ctx context.Context) ([]domain.Order, error) {
	if err := g.wait(ctx); err != nil {
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	result := make([]domain.Order, 0, len(g.orders))
	for _, o := range g.orders {
		result = append(result, o.Clone())
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Number < result[j].Number })
	return result, nil
}

func (g *Gateway) PatchStatus(ctx context.Context, orderID string, status domain.Status) (domain.Order, error) {
	if err := g.wait(ctx); err != nil {
		return domain.Order{}, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	order, ok := g.orders[orderID]
	if !ok {
		return domain.Order{}, &domain.GatewayError{Op: "patch status", StatusCode: 404, Err: domain.ErrNotFound}
	}
	if order.Status == status {
		return order.Clone(), nil
	}
	if err := order.TransitionTo(status, g.now()); err != nil {
		return domain.Order{}, &domain.GatewayError{Op: "patch status", StatusCode: 409, Err: fmt.Errorf("%w: %v", domain.ErrConflict, err)}
	}
	return order.Clone(), nil
}

// CreateOrder registers a locally created order. The simulation has no
// pending stage: orders enter as paid.
func (g *Gateway) CreateOrder(ctx context.Context, order domain.Order) error {
	if err := g.wait(ctx); err != nil {
		return err
	}
	if order.Status == domain.StatusPending {
		order.Status = domain.StatusPaid
	}
	if err := order.Validate(); err != nil {
		return &domain.GatewayError{Op: "create order", StatusCode: 422, Err: fmt.Errorf("%w: %v", domain.ErrConflict, err)}
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.orders[order.ID]; exists {
		return &domain.GatewayError{Op: "create order", StatusCode: 409, Err: fmt.Errorf("%w: %s", domain.ErrDuplicateOrder, order.ID)}
	}
	stored := order.Clone()
	g.orders[order.ID] = &stored
	return nil
}

func (g *Gateway) wait(ctx context.Context) error {
	if g.latency > 0 {
		select {
		case <-ctx.Done():
		case <-time.After(g.latency):
		}
	}
	if err := ctx.Err(); err != nil {
		return &domain.GatewayError{Op: "simulation", Err: fmt.Errorf("%w: %w", domain.ErrTransport, err)}
	}
	return nil
}
