package board

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/YelzhanWeb/kitchen-display/internal/adapter/logger"
	"github.com/YelzhanWeb/kitchen-display/internal/domain"
	"github.com/YelzhanWeb/kitchen-display/internal/events"
	"github.com/YelzhanWeb/kitchen-display/internal/interfaces"
)

// EventPublisher receives every change made to the board.
type EventPublisher interface {
	Dispatch(e events.Event)
}

type Option func(*Service)

func WithMode(m Mode) Option {
	return func(s *Service) { s.mode = m }
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func WithIDGenerator(newID func() string) Option {
	return func(s *Service) {
		if newID != nil {
			s.newID = newID
		}
	}
}

// Service owns the authoritative order collection of the kitchen board.
//
// Local writes are optimistic: the order is mutated first and the remote
// gateway is called afterwards. While any write is in flight (pendingWrites
// > 0) reconciliation is suppressed, and a fetch that overlapped a write
// (writeEpoch moved) is thrown away. The mutex is never held across a
// gateway call.
type Service struct {
	gateway   interfaces.OrderGateway
	publisher EventPublisher
	logger    logger.Logger
	mode      Mode
	now       func() time.Time
	newID     func() string

	mu            sync.Mutex
	orders        map[string]*domain.Order
	lastNumber    int
	pendingWrites int
	writeEpoch    uint64

	refreshing atomic.Bool
}

func NewService(gateway interfaces.OrderGateway, publisher EventPublisher, logger logger.Logger, opts ...Option) *Service {
	s := &Service{
		gateway:   gateway,
		publisher: publisher,
		logger:    logger,
		mode:      SinglePath,
		now:       time.Now,
		newID:     uuid.NewString,
		orders:    make(map[string]*domain.Order),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Refresh replaces the local collection with the remote one unless a write
// is in flight or started while the fetch was outstanding.
func (s *Service) Refresh(ctx context.Context) error {
	if !s.refreshing.CompareAndSwap(false, true) {
		s.logger.Debug("refresh_skipped", "Refresh already in flight", "", nil)
		return nil
	}
	defer s.refreshing.Store(false)

	s.mu.Lock()
	if s.pendingWrites > 0 {
		pending := s.pendingWrites
		s.mu.Unlock()
		s.logger.Debug("refresh_skipped", "Writes in flight", "", map[string]interface{}{"pending_writes": pending})
		return nil
	}
	epoch := s.writeEpoch
	s.mu.Unlock()

	fetched, err := s.gateway.FetchAll(ctx)
	if err != nil {
		s.logger.Warn("refresh_failed", "Failed to fetch orders", "", nil, err)
		return fmt.Errorf("failed to fetch orders: %w", err)
	}

	s.mu.Lock()
	if s.pendingWrites > 0 || s.writeEpoch != epoch {
		s.mu.Unlock()
		s.logger.Debug("refresh_discarded", "Write started during fetch, discarding snapshot", "", nil)
		return nil
	}
	changes := s.replaceLocked(fetched)
	s.mu.Unlock()

	for _, e := range changes {
		s.publisher.Dispatch(e)
	}

	s.logger.Debug("refresh_applied", "Orders reconciled", "", map[string]interface{}{
		"orders":  len(fetched),
		"changes": len(changes),
	})
	return nil
}

func (s *Service) replaceLocked(fetched []domain.Order) []events.Event {
	now := s.now()
	next := make(map[string]*domain.Order, len(fetched))
	var changes []events.Event

	for i := range fetched {
		order := fetched[i].Clone()
		if order.Number > s.lastNumber {
			s.lastNumber = order.Number
		}

		prev, known := s.orders[order.ID]
		switch {
		case !known:
			changes = append(changes, events.Created(order.Clone(), now))
		case prev.Status != order.Status:
			changes = append(changes, events.Updated(order.Clone(), now))
		}
		next[order.ID] = &order
	}

	s.orders = next
	return changes
}

// Advance moves the order one step along the forward path.
func (s *Service) Advance(ctx context.Context, orderID string) error {
	return s.transition(ctx, orderID, func(current domain.Status) (domain.Status, bool, error) {
		next, ok := s.mode.next(current)
		if ok {
			return next, false, nil
		}
		if s.mode == SinglePath {
			return "", true, nil
		}
		return "", false, &domain.TransitionError{OrderID: orderID, From: current}
	})
}

// Cancel cancels the order. Canceling a canceled order does nothing.
func (s *Service) Cancel(ctx context.Context, orderID string) error {
	return s.SetStatus(ctx, orderID, domain.StatusCanceled)
}

// SetStatus requests an explicit status. Unknown orders are ignored until
// the next refresh brings them in.
func (s *Service) SetStatus(ctx context.Context, orderID string, status domain.Status) error {
	if !status.Valid() {
		return fmt.Errorf("%w: unknown status %q", domain.ErrInvalidOrder, status)
	}
	return s.transition(ctx, orderID, func(current domain.Status) (domain.Status, bool, error) {
		if current == domain.StatusCanceled && status == domain.StatusCanceled {
			return "", true, nil
		}
		if !domain.CanTransition(current, status) {
			return "", false, &domain.TransitionError{OrderID: orderID, From: current, To: status}
		}
		return status, false, nil
	})
}

type resolveFunc func(current domain.Status) (target domain.Status, skip bool, err error)

func (s *Service) transition(ctx context.Context, orderID string, resolve resolveFunc) error {
	s.mu.Lock()
	order, ok := s.orders[orderID]
	if !ok {
		s.mu.Unlock()
		s.logger.Warn("order_not_found", "Status change for unknown order ignored", "", map[string]interface{}{
			"order_id": orderID,
		}, domain.ErrNotFound)
		return nil
	}

	previous := order.Status
	target, skip, err := resolve(previous)
	if err != nil || skip {
		s.mu.Unlock()
		return err
	}
	if err := order.TransitionTo(target, s.now()); err != nil {
		s.mu.Unlock()
		return err
	}
	s.pendingWrites++
	s.writeEpoch++
	snapshot := order.Clone()
	s.mu.Unlock()
	defer s.releaseWrite()

	now := s.now()
	s.publisher.Dispatch(events.StatusChanged(snapshot, previous, now))
	if target == domain.StatusCanceled {
		s.publisher.Dispatch(events.Canceled(snapshot, now))
	}

	if _, err := s.gateway.PatchStatus(ctx, orderID, target); err != nil {
		s.logger.Error("patch_status_failed", "Remote status update failed, keeping local value", "", map[string]interface{}{
			"order_id":   orderID,
			"old_status": string(previous),
			"new_status": string(target),
		}, err)
		return fmt.Errorf("failed to update status of order %s: %w", orderID, err)
	}

	s.logger.Debug("status_changed", fmt.Sprintf("Order %d moved to %s", snapshot.Number, target), "", map[string]interface{}{
		"order_id":   orderID,
		"old_status": string(previous),
		"new_status": string(target),
	})
	return nil
}

func (s *Service) releaseWrite() {
	s.mu.Lock()
	s.pendingWrites--
	s.mu.Unlock()
}

// AddOrder puts a new order on the board. Missing ids, the display number,
// the creation time and the initial status are filled in. The order is
// forwarded to the gateway like any other write; a gateway that cannot create
// orders yields ErrUnsupported and leaves the board untouched.
func (s *Service) AddOrder(ctx context.Context, order domain.Order) (domain.Order, error) {
	// Без создания на удаленной стороне заказ исчезнет при следующем refresh
	creator, ok := s.gateway.(interfaces.OrderCreator)
	if !ok {
		return domain.Order{}, fmt.Errorf("%w: order creation", domain.ErrUnsupported)
	}

	order = order.Clone()
	if order.ID == "" {
		order.ID = s.newID()
	}
	for i := range order.Items {
		if order.Items[i].ID == "" {
			order.Items[i].ID = s.newID()
		}
	}
	if order.Status == "" {
		order.Status = domain.StatusPaid
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = s.now()
	}
	if err := order.Validate(); err != nil {
		return domain.Order{}, err
	}

	s.mu.Lock()
	if _, exists := s.orders[order.ID]; exists {
		s.mu.Unlock()
		return domain.Order{}, fmt.Errorf("%w: %s", domain.ErrDuplicateOrder, order.ID)
	}
	if order.Number <= s.lastNumber {
		order.Number = s.lastNumber + 1
	}
	s.lastNumber = order.Number
	stored := order.Clone()
	s.orders[order.ID] = &stored

	s.pendingWrites++
	s.writeEpoch++
	s.mu.Unlock()

	s.publisher.Dispatch(events.Created(order.Clone(), s.now()))
	s.logger.Info("order_added", fmt.Sprintf("Order %d added", order.Number), "", map[string]interface{}{
		"order_id":     order.ID,
		"order_number": order.Number,
	})

	defer s.releaseWrite()

	if err := creator.CreateOrder(ctx, order.Clone()); err != nil {
		s.logger.Error("create_order_failed", "Remote create failed, keeping local order", "", map[string]interface{}{
			"order_id": order.ID,
		}, err)
		return order, fmt.Errorf("failed to create order %s: %w", order.ID, err)
	}
	return order, nil
}

// Order returns a snapshot of a single order.
func (s *Service) Order(orderID string) (domain.Order, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[orderID]
	if !ok {
		return domain.Order{}, false
	}
	return order.Clone(), true
}

// Orders returns the active orders in display order.
func (s *Service) Orders() []domain.Order {
	return s.collect(func(o *domain.Order) bool { return o.Status.Active() })
}

// Terminal returns completed and canceled orders in display order.
func (s *Service) Terminal() []domain.Order {
	return s.collect(func(o *domain.Order) bool { return o.Status.Terminal() })
}

func (s *Service) collect(keep func(*domain.Order) bool) []domain.Order {
	s.mu.Lock()
	result := make([]domain.Order, 0, len(s.orders))
	for _, o := range s.orders {
		if keep(o) {
			result = append(result, o.Clone())
		}
	}
	s.mu.Unlock()

	sort.Slice(result, func(i, j int) bool {
		if result[i].Number != result[j].Number {
			return result[i].Number < result[j].Number
		}
		return result[i].ID < result[j].ID
	})
	return result
}

func (s *Service) Views(now time.Time) []domain.View {
	return toViews(s.Orders(), now)
}

func (s *Service) TerminalViews(now time.Time) []domain.View {
	return toViews(s.Terminal(), now)
}

func toViews(orders []domain.Order, now time.Time) []domain.View {
	views := make([]domain.View, len(orders))
	for i, o := range orders {
		views[i] = domain.NewView(o, now)
	}
	return views
}

// PendingWrites reports how many writes are waiting on the gateway.
func (s *Service) PendingWrites() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pendingWrites
}

// Run refreshes immediately and then on every tick until ctx is done.
// Ticks that fire while a refresh is still running are dropped.
func (s *Service) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("poller_started", "Order polling started", "", map[string]interface{}{
		"interval": interval.String(),
		"mode":     s.mode.String(),
	})

	for {
		// Ошибки уже залогированы в Refresh, опрос продолжается
		_ = s.Refresh(ctx)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
