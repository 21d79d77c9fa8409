package history

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/YelzhanWeb/kitchen-display/internal/adapter/logger"
	"github.com/YelzhanWeb/kitchen-display/internal/domain"
	"github.com/YelzhanWeb/kitchen-display/internal/events"
	"github.com/YelzhanWeb/kitchen-display/internal/interfaces"
)

type fakeRepo struct {
	mu      sync.Mutex
	entries []interfaces.StatusLogEntry
	err     error
}

func (r *fakeRepo) LogStatus(ctx context.Context, entry interfaces.StatusLogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.entries = append(r.entries, entry)
	return nil
}

func (r *fakeRepo) GetStatusHistory(ctx context.Context, orderID string) ([]interfaces.StatusLogEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []interfaces.StatusLogEntry
	for _, e := range r.entries {
		if e.OrderID == orderID {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakePublisher struct {
	mu   sync.Mutex
	msgs []interfaces.StatusUpdateMessage
	sent chan struct{}
}

func newFakePublisher() *fakePublisher {
	return &fakePublisher{sent: make(chan struct{}, 16)}
}

func (p *fakePublisher) PublishStatusUpdate(ctx context.Context, msg interfaces.StatusUpdateMessage) error {
	p.mu.Lock()
	p.msgs = append(p.msgs, msg)
	p.mu.Unlock()
	p.sent <- struct{}{}
	return nil
}

func testOrder(status domain.Status, created time.Time) domain.Order {
	return domain.Order{
		ID:        "a",
		Number:    12,
		Status:    status,
		CreatedAt: created,
		Items:     []domain.OrderItem{{ID: "i1", Name: "Burger", Quantity: 1}},
	}
}

func waitSent(t *testing.T, p *fakePublisher) {
	t.Helper()
	select {
	case <-p.sent:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for publish")
	}
}

func TestStatusChangeIsLoggedAndPublished(t *testing.T) {
	repo := &fakeRepo{}
	pub := newFakePublisher()
	svc := NewService(repo, pub, logger.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go svc.Run(ctx)

	created := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	at := created.Add(6 * time.Minute)
	order := testOrder(domain.StatusPaid, created)
	if err := order.TransitionTo(domain.StatusInProgress, at); err != nil {
		t.Fatal(err)
	}

	if err := svc.HandleEvent(events.StatusChanged(order, domain.StatusPaid, at)); err != nil {
		t.Fatalf("handle: %v", err)
	}
	waitSent(t, pub)

	history, err := svc.GetOrderHistory(ctx, "a")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 1 || history[0].OldStatus != domain.StatusPaid || history[0].NewStatus != domain.StatusInProgress {
		t.Fatalf("history = %+v", history)
	}
	if !history[0].ChangedAt.Equal(at) || history[0].OrderNumber != 12 {
		t.Fatalf("entry = %+v", history[0])
	}

	msg := pub.msgs[0]
	if msg.OrderID != "a" || msg.NewStatus != domain.StatusInProgress {
		t.Fatalf("msg = %+v", msg)
	}
	// Just started preparing: not late even though it waited six minutes.
	if msg.Late {
		t.Fatal("expected not late")
	}
}

func TestOtherEventsAreIgnored(t *testing.T) {
	svc := NewService(&fakeRepo{}, nil, logger.Nop())
	order := testOrder(domain.StatusPaid, time.Now())

	for _, e := range []events.Event{
		events.Created(order, time.Now()),
		events.Updated(order, time.Now()),
		events.Canceled(order, time.Now()),
	} {
		if err := svc.HandleEvent(e); err != nil {
			t.Fatalf("%s: %v", e.Type, err)
		}
	}
	if len(svc.queue) != 0 {
		t.Fatalf("queued %d changes", len(svc.queue))
	}
}

func TestRepositoryFailureStillPublishes(t *testing.T) {
	repo := &fakeRepo{err: errors.New("db down")}
	pub := newFakePublisher()
	svc := NewService(repo, pub, logger.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go svc.Run(ctx)

	order := testOrder(domain.StatusReady, time.Now())
	if err := svc.HandleEvent(events.StatusChanged(order, domain.StatusInProgress, time.Now())); err != nil {
		t.Fatal(err)
	}
	waitSent(t, pub)
}

func TestFullQueueReportsDrop(t *testing.T) {
	svc := NewService(nil, nil, logger.Nop())
	svc.queue = make(chan change, 1)
	order := testOrder(domain.StatusInProgress, time.Now())
	e := events.StatusChanged(order, domain.StatusPaid, time.Now())

	if err := svc.HandleEvent(e); err != nil {
		t.Fatalf("first: %v", err)
	}
	if err := svc.HandleEvent(e); err == nil {
		t.Fatal("expected drop error")
	}
}

func TestRunFlushesOnShutdown(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo, nil, logger.Nop())
	order := testOrder(domain.StatusInProgress, time.Now())
	if err := svc.HandleEvent(events.StatusChanged(order, domain.StatusPaid, time.Now())); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := svc.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("run: %v", err)
	}
	if len(repo.entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(repo.entries))
	}
}

func TestHistoryDisabled(t *testing.T) {
	svc := NewService(nil, nil, logger.Nop())
	if _, err := svc.GetOrderHistory(context.Background(), "a"); !errors.Is(err, ErrHistoryDisabled) {
		t.Fatalf("err = %v", err)
	}
}
