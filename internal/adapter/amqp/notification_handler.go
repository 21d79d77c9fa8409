package amqp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/YelzhanWeb/kitchen-display/internal/adapter/logger"
	"github.com/YelzhanWeb/kitchen-display/internal/interfaces"
)

type NotificationHandler struct {
	logger logger.Logger
	out    io.Writer
}

func NewNotificationHandler(logger logger.Logger) *NotificationHandler {
	return NewNotificationHandlerWithWriter(logger, os.Stdout)
}

func NewNotificationHandlerWithWriter(logger logger.Logger, out io.Writer) *NotificationHandler {
	return &NotificationHandler{
		logger: logger,
		out:    out,
	}
}

func (h *NotificationHandler) HandleNotification(ctx context.Context, body []byte) error {
	var msg interfaces.StatusUpdateMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		h.logger.Error("message_parse_failed", "Failed to parse notification", "", nil, err)
		return err
	}
	if msg.OrderID == "" || !msg.NewStatus.Valid() {
		err := fmt.Errorf("incomplete notification: order_id=%q new_status=%q", msg.OrderID, msg.NewStatus)
		h.logger.Error("message_parse_failed", "Notification is missing fields", "", nil, err)
		return err
	}

	h.logger.Debug("notification_received", fmt.Sprintf("Received status update for order #%d", msg.OrderNumber),
		msg.OrderID, map[string]interface{}{
			"order_number": msg.OrderNumber,
			"new_status":   msg.NewStatus,
			"is_late":      msg.Late,
		})

	// Print to console
	line := fmt.Sprintf("Notification for order #%d: status changed from '%s' to '%s'",
		msg.OrderNumber, msg.OldStatus.Label(), msg.NewStatus.Label())
	if msg.Late {
		line += " (late)"
	}
	_, err := fmt.Fprintln(h.out, line)
	return err
}
