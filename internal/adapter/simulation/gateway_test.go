package simulation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/YelzhanWeb/kitchen-display/internal/adapter/logger"
	"github.com/YelzhanWeb/kitchen-display/internal/app/board"
	"github.com/YelzhanWeb/kitchen-display/internal/domain"
	"github.com/YelzhanWeb/kitchen-display/internal/events"
)

func order(id string, number int) domain.Order {
	return domain.Order{
		ID:        id,
		Number:    number,
		Status:    domain.StatusPaid,
		CreatedAt: time.Unix(100, 0),
		Items:     []domain.OrderItem{{ID: "i", Name: "Espresso", Quantity: 1}},
	}
}

func TestGatewayEnforcesStateMachine(t *testing.T) {
	gw := NewGateway(0)
	ctx := context.Background()
	if err := gw.CreateOrder(ctx, order("a", 1)); err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := gw.PatchStatus(ctx, "a", domain.StatusReady); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("skip err = %v, want ErrConflict", err)
	}
	if _, err := gw.PatchStatus(ctx, "missing", domain.StatusReady); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("missing err = %v, want ErrNotFound", err)
	}
	got, err := gw.PatchStatus(ctx, "a", domain.StatusInProgress)
	if err != nil || got.Status != domain.StatusInProgress || got.StartedAt == nil {
		t.Fatalf("patch = %+v, %v", got, err)
	}
	if err := gw.CreateOrder(ctx, order("a", 2)); !errors.Is(err, domain.ErrDuplicateOrder) {
		t.Fatalf("duplicate err = %v", err)
	}
}

func TestGatewayHonorsContext(t *testing.T) {
	gw := NewGateway(time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := gw.FetchAll(ctx)
	if !errors.Is(err, domain.ErrTransport) || !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want ErrTransport wrapping context.Canceled", err)
	}
}

func TestBoardOverSimulation(t *testing.T) {
	gw := NewGateway(0)
	svc := board.NewService(gw, events.NewDispatcher(logger.Nop()), logger.Nop())
	ctx := context.Background()

	added, err := svc.AddOrder(ctx, domain.Order{Items: []domain.OrderItem{{Name: "Croissant", Quantity: 2}}})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := svc.Advance(ctx, added.ID); err != nil {
		t.Fatalf("advance: %v", err)
	}
	if err := svc.Refresh(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	remote, err := gw.FetchAll(ctx)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(remote) != 1 || remote[0].Status != domain.StatusInProgress {
		t.Fatalf("remote = %+v", remote)
	}
	local, ok := svc.Order(added.ID)
	if !ok || local.Status != domain.StatusInProgress || local.Number != 1 {
		t.Fatalf("local = %+v", local)
	}
}
