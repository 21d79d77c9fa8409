package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/YelzhanWeb/kitchen-display/internal/adapter/logger"
	"github.com/YelzhanWeb/kitchen-display/internal/domain"
	"github.com/YelzhanWeb/kitchen-display/internal/events"
	"github.com/YelzhanWeb/kitchen-display/internal/interfaces"
)

const (
	defaultQueueSize = 256
	sinkTimeout      = 5 * time.Second
)

// ErrHistoryDisabled is returned by GetOrderHistory when no status log is
// configured.
var ErrHistoryDisabled = errors.New("status history is not enabled")

type change struct {
	order    domain.Order
	previous domain.Status
	at       time.Time
}

// Service records status changes coming from the order store. Both sinks are
// optional; a nil repository or publisher is skipped.
type Service struct {
	repo      interfaces.StatusLogRepository
	publisher interfaces.MessagePublisher
	logger    logger.Logger
	queue     chan change
}

func NewService(repo interfaces.StatusLogRepository, publisher interfaces.MessagePublisher, logger logger.Logger) *Service {
	return &Service{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		queue:     make(chan change, defaultQueueSize),
	}
}

// HandleEvent is an events.Handler. It only enqueues, so the dispatcher
// never waits on the database or the broker.
func (s *Service) HandleEvent(e events.Event) error {
	if e.Type != events.OrderStatusChanged || e.Order == nil {
		return nil
	}

	c := change{order: e.Order.Clone(), previous: e.PreviousStatus, at: e.Timestamp}
	select {
	case s.queue <- c:
		return nil
	default:
		return fmt.Errorf("history queue full, dropped %s -> %s for order %s", e.PreviousStatus, e.NewStatus, e.OrderID)
	}
}

// Run drains the queue until ctx is done. Changes still queued at that point
// are flushed with a short deadline.
func (s *Service) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			s.flush()
			return ctx.Err()
		case c := <-s.queue:
			s.record(ctx, c)
		}
	}
}

func (s *Service) flush() {
	ctx, cancel := context.WithTimeout(context.Background(), sinkTimeout)
	defer cancel()

	for {
		select {
		case c := <-s.queue:
			s.record(ctx, c)
		default:
			return
		}
	}
}

func (s *Service) record(ctx context.Context, c change) {
	ctx, cancel := context.WithTimeout(ctx, sinkTimeout)
	defer cancel()

	if s.repo != nil {
		entry := interfaces.StatusLogEntry{
			OrderID:     c.order.ID,
			OrderNumber: c.order.Number,
			OldStatus:   c.previous,
			NewStatus:   c.order.Status,
			ChangedAt:   c.at,
		}
		if err := s.repo.LogStatus(ctx, entry); err != nil {
			s.logger.Error("status_log_failed", "Failed to write status log", c.order.ID, map[string]interface{}{
				"order_number": c.order.Number,
				"new_status":   c.order.Status,
			}, err)
		}
	}

	if s.publisher != nil {
		msg := interfaces.StatusUpdateMessage{
			OrderID:     c.order.ID,
			OrderNumber: c.order.Number,
			OldStatus:   c.previous,
			NewStatus:   c.order.Status,
			Late:        domain.IsLate(c.order.CreatedAt, c.order.Status, c.order.StartedAt, c.at),
			Timestamp:   c.at,
		}
		if err := s.publisher.PublishStatusUpdate(ctx, msg); err != nil {
			// Уведомление не критично для доски
			s.logger.Error("rabbitmq_publish_failed", "Failed to publish status update", c.order.ID, nil, err)
		}
	}

	s.logger.Debug("status_recorded", fmt.Sprintf("Order #%d %s -> %s", c.order.Number, c.previous, c.order.Status), c.order.ID, nil)
}

func (s *Service) GetOrderHistory(ctx context.Context, orderID string) ([]interfaces.StatusLogEntry, error) {
	if s.repo == nil {
		return nil, ErrHistoryDisabled
	}
	return s.repo.GetStatusHistory(ctx, orderID)
}
