package handlers

import (
	"context"
	"net/http"
	"time"

	"feedmark/internal/auth"
	"feedmark/internal/core"
)

// Pinger reports whether the backing store is reachable
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PortalHandler serves the service-level endpoints outside any feature
type PortalHandler struct {
	logger   *core.Logger
	registry *core.Registry
	db       Pinger
}

// NewPortalHandler creates a new portal handler
func NewPortalHandler(logger *core.Logger, registry *core.Registry, db Pinger) *PortalHandler {
	return &PortalHandler{
		logger:   logger,
		registry: registry,
		db:       db,
	}
}

// HealthCheckHandler provides a health check endpoint
func (h *PortalHandler) HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status, code := "ok", http.StatusOK
	if err := h.db.PingContext(ctx); err != nil {
		h.logger.WithContext(r.Context()).Warn("Health check failed", "error", err)
		status, code = "unavailable", http.StatusServiceUnavailable
	}

	core.WriteJSON(w, code, map[string]interface{}{
		"status":  status,
		"service": "feedmark",
	})
}

// FeaturesHandler lists the registered features for the signed-in user
func (h *PortalHandler) FeaturesHandler(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUserFromContext(r)

	core.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data": map[string]interface{}{
			"user":     user,
			"features": h.registry.GetFeatureStatus(),
		},
	})
}
