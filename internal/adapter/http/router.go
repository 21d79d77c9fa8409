package http

import (
	"net/http"

	"github.com/YelzhanWeb/kitchen-display/internal/adapter/logger"
)

// NewRouter wires the board API. history may be nil when the status log is
// not configured.
func NewRouter(board *BoardHandler, history *HistoryHandler, logger logger.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /orders", board.ListOrders)
	mux.HandleFunc("GET /orders/terminal", board.ListTerminal)
	mux.HandleFunc("GET /orders/{id}", board.GetOrder)
	mux.HandleFunc("POST /orders", board.CreateOrder)
	mux.HandleFunc("POST /orders/{id}/advance", board.AdvanceOrder)
	mux.HandleFunc("POST /orders/{id}/cancel", board.CancelOrder)
	mux.HandleFunc("PUT /orders/{id}/status", board.SetStatus)
	if history != nil {
		mux.HandleFunc("GET /orders/{id}/history", history.GetOrderHistory)
	}

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	var handler http.Handler = mux
	handler = LoggingMiddleware(logger)(handler)
	handler = RecoveryMiddleware(logger)(handler)
	return handler
}
