package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/YelzhanWeb/kitchen-display/internal/adapter/logger"
	"github.com/YelzhanWeb/kitchen-display/internal/interfaces"
)

const reconnectDelay = 5 * time.Second

type consumer struct {
	conn       Connection
	logger     logger.Logger
	retryDelay time.Duration
}

func NewConsumer(conn Connection, logger logger.Logger) interfaces.MessageConsumer {
	return &consumer{conn: conn, logger: logger, retryDelay: reconnectDelay}
}

// ConsumeNotifications reads status updates until ctx is done or the
// connection is closed, reopening the channel after failures.
func (c *consumer) ConsumeNotifications(ctx context.Context, handler interfaces.NotificationHandler) error {
	for {
		err := c.consumeNotifications(ctx, handler)

		// Если контекст отменен или соединение закрыто намеренно - выходим
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if err == nil || errors.Is(err, ErrConnectionClosed) {
			return err
		}

		c.logger.Error("consumer_disconnected", "Notifications consumer disconnected, reconnecting", "", map[string]interface{}{
			"retry_in": c.retryDelay.String(),
		}, err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.retryDelay):
		}
	}
}

func (c *consumer) consumeNotifications(ctx context.Context, handler interfaces.NotificationHandler) error {
	if c.conn.IsClosed() {
		return ErrConnectionClosed
	}

	ch, err := c.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	// Отслеживаем закрытие канала
	closeChan := ch.NotifyClose()

	if err := ch.ExchangeDeclare(NotificationsExchange, "fanout", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	// Declare temporary exclusive queue
	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	if err := ch.QueueBind(q.Name, "", NotificationsExchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue: %w", err)
	}

	msgs, err := ch.Consume(q.Name, "", true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-closeChan:
			if err != nil {
				return fmt.Errorf("channel closed: %w", err)
			}
			return fmt.Errorf("channel closed gracefully")

		case msg, ok := <-msgs:
			if !ok {
				return fmt.Errorf("messages channel closed")
			}

			// Ошибки обработки уведомлений не останавливают подписчика
			if err := handler(ctx, msg.Body); err != nil {
				c.logger.Debug("notification_skipped", "Notification handler failed", "", map[string]interface{}{
					"message_id": msg.MessageId,
				})
			}
		}
	}
}
