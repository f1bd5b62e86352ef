package http

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kjstillabower/city-explorer-service/internal/lifecycle"
	"github.com/kjstillabower/city-explorer-service/internal/traffic"
)

// HealthConfig holds dependency probes and thresholds for the health handler.
type HealthConfig struct {
	DegradedWindow   time.Duration
	DegradedErrorPct int
	// StorePing checks the location store. Required for a healthy status when set.
	StorePing func(ctx context.Context) error
	// CachePing, when set, reports front cache reachability. A failing cache does
	// not degrade the service because cache errors are treated as misses.
	CachePing   func(ctx context.Context) error
	PingTimeout time.Duration
}

type healthTracker struct {
	mu   sync.Mutex
	prev string
}

// healthResult holds the computed health status and metadata for logging.
type healthResult struct {
	status     string
	statusCode int
	reason     string
}

// GetHealth handles GET /health.
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	checks := h.runChecks(r.Context())
	result := h.computeHealthStatus(checks)

	h.health.mu.Lock()
	if prev := h.health.prev; prev != "" && prev != result.status {
		h.logger.Info("health status transition",
			zap.String("previous_status", prev),
			zap.String("current_status", result.status),
			zap.String("reason", result.reason))
	}
	h.health.prev = result.status
	h.health.mu.Unlock()

	resp := map[string]interface{}{
		"status":    result.status,
		"service":   "city-explorer-service",
		"checks":    checks,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	if result.reason == "error_rate_breach" && h.healthConfig != nil {
		resp["failingRoutes"] = traffic.RouteErrors(h.healthConfig.DegradedWindow)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(result.statusCode)
	_ = json.NewEncoder(w).Encode(resp)
}

func (h *Handler) runChecks(ctx context.Context) map[string]string {
	checks := make(map[string]string)
	if h.healthConfig == nil {
		return checks
	}
	timeout := h.healthConfig.PingTimeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	probe := func(name string, ping func(context.Context) error) {
		if ping == nil {
			return
		}
		pctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		if err := ping(pctx); err != nil {
			checks[name] = "unhealthy"
			h.logger.Debug("health probe failed", zap.String("check", name), zap.Error(err))
			return
		}
		checks[name] = "healthy"
	}
	probe("store", h.healthConfig.StorePing)
	probe("cache", h.healthConfig.CachePing)
	return checks
}

// computeHealthStatus evaluates conditions in priority order:
// shutting-down > starting > store unreachable > error rate > healthy.
func (h *Handler) computeHealthStatus(checks map[string]string) healthResult {
	if lifecycle.IsShuttingDown() {
		return healthResult{"shutting-down", http.StatusServiceUnavailable, "signal"}
	}
	if !lifecycle.IsReady() {
		return healthResult{"starting", http.StatusServiceUnavailable, "not_ready"}
	}
	if checks["store"] == "unhealthy" {
		return healthResult{"degraded", http.StatusServiceUnavailable, "store_unreachable"}
	}
	if cfg := h.healthConfig; cfg != nil && cfg.DegradedWindow > 0 && cfg.DegradedErrorPct > 0 {
		errors, total := traffic.ErrorRate(cfg.DegradedWindow)
		if total > 0 && float64(errors)*100/float64(total) >= float64(cfg.DegradedErrorPct) {
			return healthResult{"degraded", http.StatusServiceUnavailable, "error_rate_breach"}
		}
	}
	return healthResult{"healthy", http.StatusOK, ""}
}
