package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/wonny/movers/pkg/database"
)

// HealthHandler reports liveness plus the state of optional dependencies
type HealthHandler struct {
	storeBackend string
	breaker      func() string
	db           *database.DB
}

// NewHealthHandler creates a health handler. breaker and db may be nil.
func NewHealthHandler(storeBackend string, breaker func() string, db *database.DB) *HealthHandler {
	return &HealthHandler{
		storeBackend: storeBackend,
		breaker:      breaker,
		db:           db,
	}
}

// Check returns server health status
// GET /health
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"status":  "ok",
		"service": "movers",
		"store":   h.storeBackend,
	}
	status := http.StatusOK

	if h.breaker != nil {
		resp["provider_breaker"] = h.breaker()
	}

	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		dbStatus, err := h.db.HealthCheck(ctx)
		resp["database"] = dbStatus
		if err != nil {
			resp["status"] = "degraded"
			status = http.StatusServiceUnavailable
		}
	}

	respondJSON(w, status, resp)
}
