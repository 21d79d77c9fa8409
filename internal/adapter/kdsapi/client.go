package kdsapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/YelzhanWeb/kitchen-display/internal/adapter/logger"
	"github.com/YelzhanWeb/kitchen-display/internal/config"
	"github.com/YelzhanWeb/kitchen-display/internal/domain"
	"github.com/YelzhanWeb/kitchen-display/internal/interfaces"
)

const (
	ordersPath = "/api/kds/v1/"

	headerBypassToken = "X-Bypass-Token"
	headerLocationID  = "X-Location-Id"

	maxBodyBytes = 4 << 20
)

type client struct {
	baseURL     string
	bypassToken string
	locationID  string
	http        *http.Client
	logger      logger.Logger
}

// NewClient builds the remote order gateway. httpClient may be nil.
func NewClient(cfg config.GatewayConfig, httpClient *http.Client, logger logger.Logger) interfaces.OrderGateway {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		bypassToken: cfg.BypassToken,
		locationID:  cfg.LocationID,
		http:        httpClient,
		logger:      logger,
	}
}

type statusRequest struct {
	Status domain.Status `json:"status"`
}

func (c *client) FetchAll(ctx context.Context) ([]domain.Order, error) {
	const op = "fetch orders"

	var orders []domain.Order
	if err := c.do(ctx, op, http.MethodGet, c.baseURL+ordersPath, nil, &orders); err != nil {
		return nil, err
	}

	for i := range orders {
		if err := orders[i].Validate(); err != nil {
			return nil, &domain.GatewayError{Op: op, Err: fmt.Errorf("%w: %v", domain.ErrProtocol, err)}
		}
	}
	return orders, nil
}

func (c *client) PatchStatus(ctx context.Context, orderID string, status domain.Status) (domain.Order, error) {
	const op = "patch status"

	body, err := json.Marshal(statusRequest{Status: status})
	if err != nil {
		return domain.Order{}, fmt.Errorf("failed to marshal status request: %w", err)
	}

	endpoint := c.baseURL + ordersPath + url.PathEscape(orderID) + "/status"

	var order domain.Order
	if err := c.do(ctx, op, http.MethodPatch, endpoint, body, &order); err != nil {
		return domain.Order{}, err
	}
	return order, nil
}

func (c *client) do(ctx context.Context, op, method, endpoint string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return &domain.GatewayError{Op: op, Err: fmt.Errorf("%w: %w", domain.ErrTransport, err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.bypassToken != "" {
		req.Header.Set(headerBypassToken, c.bypassToken)
	}
	if c.locationID != "" {
		req.Header.Set(headerLocationID, c.locationID)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return &domain.GatewayError{Op: op, Err: fmt.Errorf("%w: %w", domain.ErrTransport, err)}
	}
	defer resp.Body.Close()

	c.logger.Debug("kds_request", fmt.Sprintf("%s %s", method, endpoint), "", map[string]interface{}{
		"status":      resp.StatusCode,
		"duration_ms": time.Since(start).Milliseconds(),
	})

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return &domain.GatewayError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("%w: read body: %w", domain.ErrTransport, err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &domain.GatewayError{Op: op, StatusCode: resp.StatusCode, Err: classify(resp.StatusCode, payload)}
	}

	return decodeData(op, resp.StatusCode, payload, out)
}

func decodeData(op string, statusCode int, payload []byte, out any) error {
	var raw struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return &domain.GatewayError{Op: op, StatusCode: statusCode, Err: fmt.Errorf("%w: %v", domain.ErrProtocol, err)}
	}
	if len(raw.Data) == 0 || string(raw.Data) == "null" {
		return &domain.GatewayError{Op: op, StatusCode: statusCode, Err: fmt.Errorf("%w: missing data", domain.ErrProtocol)}
	}
	if err := json.Unmarshal(raw.Data, out); err != nil {
		return &domain.GatewayError{Op: op, StatusCode: statusCode, Err: fmt.Errorf("%w: %v", domain.ErrProtocol, err)}
	}
	return nil
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func classify(statusCode int, payload []byte) error {
	sentinel := domain.ErrTransport
	switch statusCode {
	case http.StatusNotFound:
		sentinel = domain.ErrNotFound
	case http.StatusConflict, http.StatusUnprocessableEntity:
		sentinel = domain.ErrConflict
	}

	var body errorBody
	if err := json.Unmarshal(payload, &body); err == nil {
		if msg := firstNonEmpty(body.Error, body.Message); msg != "" {
			return fmt.Errorf("%w: %s", sentinel, msg)
		}
	}
	return sentinel
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
