package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/wonny/twitstock/pkg/database"
)

// HealthChecker is satisfied by database.Store
type HealthChecker interface {
	HealthCheck(ctx context.Context) (*database.HealthStatus, error)
}

// HealthHandler reports service and feature store health
type HealthHandler struct {
	db HealthChecker
}

func NewHealthHandler(db HealthChecker) *HealthHandler {
	return &HealthHandler{db: db}
}

// Health returns 200 when the feature store answers, 503 otherwise
// GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	body := map[string]interface{}{
		"status":  "ok",
		"service": "twitstock-api",
	}

	if h.db != nil {
		status, err := h.db.HealthCheck(ctx)
		body["database"] = status
		if err != nil {
			body["status"] = "degraded"
			respondJSON(w, http.StatusServiceUnavailable, body)
			return
		}
	}
	respondJSON(w, http.StatusOK, body)
}
