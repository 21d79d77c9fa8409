package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/YelzhanWeb/kitchen-display/internal/interfaces"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	NotificationsExchange = "notifications_fanout"

	publishTimeout = 5 * time.Second
)

type publisher struct {
	conn Connection
}

func NewPublisher(conn Connection) interfaces.MessagePublisher {
	return &publisher{conn: conn}
}

func (p *publisher) PublishStatusUpdate(ctx context.Context, msg interfaces.StatusUpdateMessage) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	// Declare exchange
	if err := ch.ExchangeDeclare(NotificationsExchange, "fanout", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = ch.PublishWithContext(ctx, NotificationsExchange, "", false, false, amqp.Publishing{
		ContentType: "application/json",
		MessageId:   fmt.Sprintf("%s:%s", msg.OrderID, msg.NewStatus),
		Timestamp:   msg.Timestamp,
		Type:        "order.status_changed",
		Body:        body,
	})
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	return nil
}
