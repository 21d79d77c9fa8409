package amqp

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/YelzhanWeb/kitchen-display/internal/adapter/logger"
)

func TestHandleNotificationPrintsLine(t *testing.T) {
	var out bytes.Buffer
	h := NewNotificationHandlerWithWriter(logger.Nop(), &out)

	body := []byte(`{"order_id":"a","order_number":7,"old_status":"in_progress","new_status":"ready","is_late":true,"timestamp":"2024-01-01T10:00:00Z"}`)
	if err := h.HandleNotification(context.Background(), body); err != nil {
		t.Fatalf("handle: %v", err)
	}

	got := out.String()
	if !strings.Contains(got, "order #7") || !strings.Contains(got, "(late)") {
		t.Fatalf("output = %q", got)
	}
}

func TestHandleNotificationRejectsBadBody(t *testing.T) {
	var out bytes.Buffer
	h := NewNotificationHandlerWithWriter(logger.Nop(), &out)

	cases := map[string]string{
		"not json":       `{`,
		"missing id":     `{"order_number":1,"new_status":"ready"}`,
		"unknown status": `{"order_id":"a","new_status":"burnt"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			if err := h.HandleNotification(context.Background(), []byte(body)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
	if out.Len() != 0 {
		t.Fatalf("unexpected output %q", out.String())
	}
}
