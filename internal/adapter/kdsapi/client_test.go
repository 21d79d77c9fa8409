package kdsapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/YelzhanWeb/kitchen-display/internal/adapter/logger"
	"github.com/YelzhanWeb/kitchen-display/internal/config"
	"github.com/YelzhanWeb/kitchen-display/internal/domain"
	"github.com/YelzhanWeb/kitchen-display/internal/interfaces"
)

const sampleOrders = `{"data":[{
	"id":"ord-1",
	"order_number":17,
	"status":"in_progress",
	"created_at":"2024-05-01T12:00:00Z",
	"started_at":"2024-05-01T12:02:00Z",
	"customer_name":"Alex",
	"order_type":"takeout",
	"items":[{
		"id":"it-1","name":"Burger","quantity":2,
		"modifiers":[{"name":"Gluten-free bun","quantity":1}],
		"extras":[{"name":"Bacon","quantity":1,"price":"1.50"}],
		"exceptions":[{"name":"Onions"}]
	}]
}]}`

func newTestClient(t *testing.T, handler http.HandlerFunc) interfaces.OrderGateway {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	cfg := config.GatewayConfig{
		BaseURL:     srv.URL + "/",
		BypassToken: "token-1",
		LocationID:  "loc-1",
		Timeout:     time.Second,
	}
	return NewClient(cfg, nil, logger.Nop())
}

func TestFetchAllDecodesOrders(t *testing.T) {
	gw := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/kds/v1/" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("X-Bypass-Token") != "token-1" || r.Header.Get("X-Location-Id") != "loc-1" {
			t.Errorf("missing auth headers: %v", r.Header)
		}
		io.WriteString(w, sampleOrders)
	})

	orders, err := gw.FetchAll(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(orders) != 1 {
		t.Fatalf("orders = %d, want 1", len(orders))
	}
	o := orders[0]
	if o.Number != 17 || o.Status != domain.StatusInProgress || o.StartedAt == nil {
		t.Fatalf("order = %+v", o)
	}
	item := o.Items[0]
	if item.Quantity != 2 || len(item.Modifiers) != 1 || len(item.Exceptions) != 1 {
		t.Fatalf("item = %+v", item)
	}
	if item.Extras[0].Price.String() != "1.5" {
		t.Fatalf("extra price = %s, want 1.5", item.Extras[0].Price)
	}
}

func TestFetchAllErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"server error", http.StatusBadGateway, `oops`, domain.ErrTransport},
		{"malformed json", http.StatusOK, `{"data":[`, domain.ErrProtocol},
		{"missing data", http.StatusOK, `{}`, domain.ErrProtocol},
		{"invalid order", http.StatusOK, `{"data":[{"id":"","status":"paid"}]}`, domain.ErrProtocol},
		{"unknown status", http.StatusOK, `{"data":[{"id":"a","status":"eaten","created_at":"2024-05-01T12:00:00Z"}]}`, domain.ErrProtocol},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			})
			_, err := gw.FetchAll(context.Background())
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			var gerr *domain.GatewayError
			if !errors.As(err, &gerr) {
				t.Fatalf("err %T is not a GatewayError", err)
			}
		})
	}
}

func TestFetchAllUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	gw := NewClient(config.GatewayConfig{BaseURL: url, Timeout: time.Second}, nil, logger.Nop())
	if _, err := gw.FetchAll(context.Background()); !errors.Is(err, domain.ErrTransport) {
		t.Fatalf("err = %v, want ErrTransport", err)
	}
}

func TestFetchAllCanceledContext(t *testing.T) {
	gw := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"data":[]}`)
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := gw.FetchAll(ctx)
	if !errors.Is(err, context.Canceled) || !errors.Is(err, domain.ErrTransport) {
		t.Fatalf("err = %v, want ErrTransport wrapping context.Canceled", err)
	}
}

func TestPatchStatus(t *testing.T) {
	gw := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch || r.URL.Path != "/api/kds/v1/ord-1/status" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var req struct {
			Status string `json:"status"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Status != "ready" {
			t.Errorf("body status = %q, err = %v", req.Status, err)
		}
		io.WriteString(w, `{"data":{"id":"ord-1","order_number":3,"status":"ready","created_at":"2024-05-01T12:00:00Z","items":[]}}`)
	})

	order, err := gw.PatchStatus(context.Background(), "ord-1", domain.StatusReady)
	if err != nil {
		t.Fatalf("patch: %v", err)
	}
	if order.ID != "ord-1" || order.Status != domain.StatusReady {
		t.Fatalf("order = %+v", order)
	}
}

func TestPatchStatusErrors(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusNotFound, domain.ErrNotFound},
		{http.StatusConflict, domain.ErrConflict},
		{http.StatusUnprocessableEntity, domain.ErrConflict},
		{http.StatusServiceUnavailable, domain.ErrTransport},
		{http.StatusUnauthorized, domain.ErrTransport},
	}
	for _, tt := range tests {
		gw := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
			io.WriteString(w, `{"error":"nope"}`)
		})
		_, err := gw.PatchStatus(context.Background(), "ord-1", domain.StatusReady)
		if !errors.Is(err, tt.want) {
			t.Fatalf("status %d: err = %v, want %v", tt.status, err, tt.want)
		}
		var gerr *domain.GatewayError
		if !errors.As(err, &gerr) || gerr.StatusCode != tt.status {
			t.Fatalf("status %d: gateway error = %+v", tt.status, gerr)
		}
	}
}
