package interfaces

import (
	"context"
	"time"

	"github.com/YelzhanWeb/kitchen-display/internal/domain"
)

// Сообщения RabbitMQ
type StatusUpdateMessage struct {
	OrderID     string        `json:"order_id"`
	OrderNumber int           `json:"order_number"`
	OldStatus   domain.Status `json:"old_status"`
	NewStatus   domain.Status `json:"new_status"`
	Late        bool          `json:"is_late"`
	Timestamp   time.Time     `json:"timestamp"`
}

// Интерфейсы Messaging (Adapter/RabbitMQ)
type MessagePublisher interface {
	PublishStatusUpdate(ctx context.Context, msg StatusUpdateMessage) error
}

type MessageConsumer interface {
	ConsumeNotifications(ctx context.Context, handler NotificationHandler) error
}

type NotificationHandler func(ctx context.Context, body []byte) error
