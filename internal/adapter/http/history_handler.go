package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/YelzhanWeb/kitchen-display/internal/adapter/logger"
	"github.com/YelzhanWeb/kitchen-display/internal/app/history"
	"github.com/YelzhanWeb/kitchen-display/internal/domain"
	"github.com/YelzhanWeb/kitchen-display/internal/interfaces"
)

type HistoryHandler struct {
	service interfaces.HistoryService
	logger  logger.Logger
}

func NewHistoryHandler(service interfaces.HistoryService, logger logger.Logger) *HistoryHandler {
	return &HistoryHandler{
		service: service,
		logger:  logger,
	}
}

type HistoryEntry struct {
	OldStatus domain.Status `json:"old_status"`
	NewStatus domain.Status `json:"new_status"`
	Timestamp time.Time     `json:"timestamp"`
}

type HistoryResponse struct {
	OrderID     string         `json:"order_id"`
	OrderNumber int            `json:"order_number,omitempty"`
	History     []HistoryEntry `json:"history"`
}

func (h *HistoryHandler) GetOrderHistory(w http.ResponseWriter, r *http.Request) {
	orderID := r.PathValue("id")

	logs, err := h.service.GetOrderHistory(r.Context(), orderID)
	if errors.Is(err, history.ErrHistoryDisabled) {
		respondError(w, err.Error(), http.StatusServiceUnavailable, nil)
		return
	}
	if err != nil {
		h.logger.Error("history_query_failed", "Failed to load status history", w.Header().Get(requestIDHeader), map[string]interface{}{
			"order_id": orderID,
		}, err)
		respondError(w, "Internal server error", http.StatusInternalServerError, nil)
		return
	}
	if len(logs) == 0 {
		respondError(w, "Order not found", http.StatusNotFound, nil)
		return
	}

	resp := HistoryResponse{
		OrderID:     orderID,
		OrderNumber: logs[0].OrderNumber,
		History:     make([]HistoryEntry, len(logs)),
	}
	for i, entry := range logs {
		resp.History[i] = HistoryEntry{
			OldStatus: entry.OldStatus,
			NewStatus: entry.NewStatus,
			Timestamp: entry.ChangedAt,
		}
	}

	respondJSON(w, http.StatusOK, resp)
}
