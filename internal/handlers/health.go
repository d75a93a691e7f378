package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"qwen-gateway/internal/contextutil"
)

// Pinger checks that a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles HTTP requests for health checks.
type HealthHandler struct {
	history            Pinger
	credentialsPresent bool
	healthCheckTimeout time.Duration
}

// NewHealthHandler creates a new HealthHandler. history may be nil when
// result recording is disabled.
func NewHealthHandler(history Pinger, credentialsPresent bool) *HealthHandler {
	return &HealthHandler{
		history:            history,
		credentialsPresent: credentialsPresent,
		healthCheckTimeout: 5 * time.Second,
	}
}

// HealthResponse represents the health check response.
//
// swagger:model HealthResponse
type HealthResponse struct {
	// Overall health status: "healthy", "degraded", or "unhealthy"
	Status string `json:"status"`

	// Timestamp of the health check
	Timestamp string `json:"timestamp"`

	// Individual check results
	Checks map[string]string `json:"checks"`

	// List of issues (only present if status is degraded or unhealthy)
	Issues []string `json:"issues,omitempty"`
}

// ServeHTTP handles HTTP requests for health checks.
//
// Missing credentials only degrade the service: requests are still accepted
// and every item fails with a configuration error. An unreachable history
// store makes it unhealthy.
//
// swagger:route GET /api/health healthCheck
//
// responses:
//
//	'200':
//	  description: System is healthy or degraded
//	  schema:
//	    "$ref": "#/definitions/HealthResponse"
//	'503':
//	  description: System is unhealthy
//	  schema:
//	    "$ref": "#/definitions/HealthResponse"
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodGet {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	checkCtx, cancel := context.WithTimeout(ctx, h.healthCheckTimeout)
	defer cancel()

	checks := make(map[string]string)
	var issues []string
	status := "healthy"
	httpStatus := http.StatusOK

	if h.credentialsPresent {
		checks["credentials"] = "ok"
	} else {
		checks["credentials"] = "missing"
		issues = append(issues, "api_key_missing")
		status = "degraded"
	}

	switch {
	case h.history == nil:
		checks["history"] = "disabled"
	case h.checkHistory(checkCtx, logger):
		checks["history"] = "ok"
	default:
		checks["history"] = "error"
		issues = append(issues, "history_unavailable")
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(ctx, w, httpStatus, HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
		Issues:    issues,
	})
}

func (h *HealthHandler) checkHistory(ctx context.Context, logger *slog.Logger) bool {
	if err := h.history.Ping(ctx); err != nil {
		logger.WarnContext(ctx, "history store health check failed", "error", err)
		return false
	}
	return true
}
