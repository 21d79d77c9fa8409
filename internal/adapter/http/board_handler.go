package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/YelzhanWeb/kitchen-display/internal/adapter/logger"
	"github.com/YelzhanWeb/kitchen-display/internal/domain"
	"github.com/YelzhanWeb/kitchen-display/internal/interfaces"
	"github.com/shopspring/decimal"
)

type BoardHandler struct {
	service interfaces.BoardService
	logger  logger.Logger
	now     func() time.Time
}

func NewBoardHandler(service interfaces.BoardService, logger logger.Logger) *BoardHandler {
	return &BoardHandler{
		service: service,
		logger:  logger,
		now:     time.Now,
	}
}

type CreateOrderRequest struct {
	OrderNumber  int                `json:"order_number,omitempty"`
	CustomerName string             `json:"customer_name,omitempty"`
	OrderType    string             `json:"order_type,omitempty"`
	Notes        string             `json:"notes,omitempty"`
	Items        []OrderItemRequest `json:"items"`
}

type OrderItemRequest struct {
	Name       string            `json:"name"`
	Quantity   int               `json:"quantity"`
	Notes      string            `json:"notes,omitempty"`
	Modifiers  []ModifierRequest `json:"modifiers,omitempty"`
	Extras     []ExtraRequest    `json:"extras,omitempty"`
	Exceptions []string          `json:"exceptions,omitempty"`
}

type ModifierRequest struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

type ExtraRequest struct {
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

type SetStatusRequest struct {
	Status string `json:"status"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error  string            `json:"error"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// Разрешены: буквы, пробелы, дефисы, апострофы, точки
var customerNameRegex = regexp.MustCompile(`^[\p{L}\s\-'.]+$`)

var validOrderTypes = map[string]bool{
	"dine_in":  true,
	"takeout":  true,
	"delivery": true,
}

var maxExtraPrice = decimal.NewFromInt(1000)

func (h *BoardHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.service.Views(h.now()))
}

func (h *BoardHandler) ListTerminal(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.service.TerminalViews(h.now()))
}

func (h *BoardHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	order, ok := h.service.Order(r.PathValue("id"))
	if !ok {
		respondError(w, "Order not found", http.StatusNotFound, nil)
		return
	}
	respondJSON(w, http.StatusOK, domain.NewView(order, h.now()))
}

func (h *BoardHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	// Валидация входных данных
	if validationErrors := validateCreateOrderRequest(req); len(validationErrors) > 0 {
		h.logger.Debug("validation_failed", "Order validation failed", w.Header().Get(requestIDHeader), map[string]interface{}{
			"errors": validationErrors,
		})
		respondError(w, "Validation failed", http.StatusBadRequest, validationErrors)
		return
	}

	order, err := h.service.AddOrder(r.Context(), toOrder(req))
	if err != nil && order.ID == "" {
		h.writeServiceError(w, r, err)
		return
	}
	if err != nil {
		// Заказ принят локально, удаленный источник недоступен
		h.logger.Warn("order_forward_failed", "Order kept locally", w.Header().Get(requestIDHeader), map[string]interface{}{
			"order_id": order.ID,
		}, err)
		respondJSON(w, http.StatusAccepted, domain.NewView(order, h.now()))
		return
	}

	respondJSON(w, http.StatusCreated, domain.NewView(order, h.now()))
}

func (h *BoardHandler) AdvanceOrder(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(id string) error { return h.service.Advance(r.Context(), id) })
}

func (h *BoardHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(id string) error { return h.service.Cancel(r.Context(), id) })
}

func (h *BoardHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	var req SetStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}
	status, err := domain.ParseStatus(req.Status)
	if err != nil {
		respondError(w, "Validation failed", http.StatusBadRequest, []ValidationError{
			{Field: "status", Message: err.Error()},
		})
		return
	}

	h.mutate(w, r, func(id string) error { return h.service.SetStatus(r.Context(), id, status) })
}

// mutate runs a status change and answers with the order as the board sees
// it afterwards.
func (h *BoardHandler) mutate(w http.ResponseWriter, r *http.Request, apply func(id string) error) {
	id := r.PathValue("id")
	if _, ok := h.service.Order(id); !ok {
		respondError(w, "Order not found", http.StatusNotFound, nil)
		return
	}

	if err := apply(id); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	order, ok := h.service.Order(id)
	if !ok {
		respondError(w, "Order not found", http.StatusNotFound, nil)
		return
	}
	respondJSON(w, http.StatusOK, domain.NewView(order, h.now()))
}

func (h *BoardHandler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	requestID := w.Header().Get(requestIDHeader)
	status := statusFor(err)
	if status >= http.StatusInternalServerError && status != http.StatusNotImplemented {
		h.logger.Error("request_failed", "Request failed", requestID, map[string]interface{}{
			"path":   r.URL.Path,
			"status": status,
		}, err)
	} else {
		h.logger.Debug("request_rejected", err.Error(), requestID, map[string]interface{}{
			"path":   r.URL.Path,
			"status": status,
		})
	}
	respondError(w, err.Error(), status, nil)
}

// statusFor maps service errors onto HTTP codes. Gateway failures come
// first: a 404 from the remote source is still a failed upstream call.
func statusFor(err error) int {
	var gwErr *domain.GatewayError
	switch {
	case errors.As(err, &gwErr):
		return http.StatusBadGateway
	case errors.Is(err, domain.ErrUnsupported):
		return http.StatusNotImplemented
	case errors.Is(err, domain.ErrIllegalTransition), errors.Is(err, domain.ErrDuplicateOrder):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidOrder):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrTransport), errors.Is(err, domain.ErrProtocol), errors.Is(err, domain.ErrConflict):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func validateCreateOrderRequest(req CreateOrderRequest) []ValidationError {
	var errors []ValidationError

	// 1. Валидация customer_name
	customerName := strings.TrimSpace(req.CustomerName)
	if len(customerName) > 100 {
		errors = append(errors, ValidationError{
			Field:   "customer_name",
			Message: "customer name must not exceed 100 characters",
		})
	} else if customerName != "" && !customerNameRegex.MatchString(customerName) {
		errors = append(errors, ValidationError{
			Field:   "customer_name",
			Message: "customer name must contain only letters, spaces, hyphens, and apostrophes",
		})
	}

	// 2. Валидация order_type
	if req.OrderType != "" && !validOrderTypes[req.OrderType] {
		errors = append(errors, ValidationError{
			Field:   "order_type",
			Message: "order type must be one of: dine_in, takeout, delivery",
		})
	}

	if req.OrderNumber < 0 {
		errors = append(errors, ValidationError{
			Field:   "order_number",
			Message: "order number must not be negative",
		})
	}

	// 3. Валидация items
	if len(req.Items) < 1 {
		errors = append(errors, ValidationError{
			Field:   "items",
			Message: "order must contain at least 1 item",
		})
	} else if len(req.Items) > 50 {
		errors = append(errors, ValidationError{
			Field:   "items",
			Message: "order must not contain more than 50 items",
		})
	}

	// 4. Валидация каждого item
	for i, item := range req.Items {
		itemPrefix := fmt.Sprintf("items[%d]", i)

		itemName := strings.TrimSpace(item.Name)
		if itemName == "" {
			errors = append(errors, ValidationError{
				Field:   itemPrefix + ".name",
				Message: "item name is required",
			})
		} else if len(itemName) > 100 {
			errors = append(errors, ValidationError{
				Field:   itemPrefix + ".name",
				Message: "item name must not exceed 100 characters",
			})
		}

		if item.Quantity < 1 {
			errors = append(errors, ValidationError{
				Field:   itemPrefix + ".quantity",
				Message: "item quantity must be at least 1",
			})
		}

		for j, extra := range item.Extras {
			extraPrefix := fmt.Sprintf("%s.extras[%d]", itemPrefix, j)
			if strings.TrimSpace(extra.Name) == "" {
				errors = append(errors, ValidationError{
					Field:   extraPrefix + ".name",
					Message: "extra name is required",
				})
			}
			if extra.Price.IsNegative() || extra.Price.GreaterThanOrEqual(maxExtraPrice) {
				errors = append(errors, ValidationError{
					Field:   extraPrefix + ".price",
					Message: "extra price must be between 0 and 999.99",
				})
			}
		}
	}

	return errors
}

func toOrder(req CreateOrderRequest) domain.Order {
	order := domain.Order{
		Number:       req.OrderNumber,
		CustomerName: strings.TrimSpace(req.CustomerName),
		OrderType:    req.OrderType,
		Notes:        strings.TrimSpace(req.Notes),
		Items:        make([]domain.OrderItem, len(req.Items)),
	}

	for i, item := range req.Items {
		converted := domain.OrderItem{
			Name:     strings.TrimSpace(item.Name),
			Quantity: item.Quantity,
			Notes:    strings.TrimSpace(item.Notes),
		}
		for _, m := range item.Modifiers {
			qty := m.Quantity
			if qty < 1 {
				qty = 1
			}
			converted.Modifiers = append(converted.Modifiers, domain.Modifier{Name: m.Name, Quantity: qty})
		}
		for _, e := range item.Extras {
			qty := e.Quantity
			if qty < 1 {
				qty = 1
			}
			converted.Extras = append(converted.Extras, domain.Extra{Name: e.Name, Quantity: qty, Price: e.Price})
		}
		for _, name := range item.Exceptions {
			converted.Exceptions = append(converted.Exceptions, domain.Exception{Name: name})
		}
		order.Items[i] = converted
	}

	return order
}

func respondJSON(w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

func respondError(w http.ResponseWriter, message string, statusCode int, validationErrors []ValidationError) {
	respondJSON(w, statusCode, ErrorResponse{
		Error:  message,
		Errors: validationErrors,
	})
}
