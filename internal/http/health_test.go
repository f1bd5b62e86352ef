package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kjstillabower/city-explorer-service/internal/lifecycle"
	"github.com/kjstillabower/city-explorer-service/internal/traffic"
)

func setupHealth(t *testing.T) {
	t.Helper()
	traffic.Reset()
	lifecycle.SetShuttingDown(false)
	lifecycle.SetReady(true)
	t.Cleanup(func() {
		traffic.Reset()
		lifecycle.SetShuttingDown(false)
		lifecycle.SetReady(false)
	})
}

func healthRouter(cfg *HealthConfig, logger *zap.Logger) http.Handler {
	d := newTestDeps()
	return NewRouter(NewHandler(d.resolver, d.set(), cfg, logger), RouterConfig{})
}

func decodeHealth(t *testing.T, body []byte) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	return out
}

func okPing(context.Context) error { return nil }

func TestGetHealth_Healthy(t *testing.T) {
	setupHealth(t)
	w := get(t, healthRouter(&HealthConfig{StorePing: okPing, CachePing: okPing}, zap.NewNop()), "/health")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	body := decodeHealth(t, w.Body.Bytes())
	if body["status"] != "healthy" || body["service"] != "city-explorer-service" {
		t.Errorf("body = %v", body)
	}
	checks := body["checks"].(map[string]interface{})
	if checks["store"] != "healthy" || checks["cache"] != "healthy" {
		t.Errorf("checks = %v", checks)
	}
}

func TestGetHealth_Starting(t *testing.T) {
	setupHealth(t)
	lifecycle.SetReady(false)
	w := get(t, healthRouter(nil, zap.NewNop()), "/health")

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
	if got := decodeHealth(t, w.Body.Bytes())["status"]; got != "starting" {
		t.Errorf("status = %v, want starting", got)
	}
}

func TestGetHealth_ShuttingDownWins(t *testing.T) {
	setupHealth(t)
	lifecycle.SetShuttingDown(true)
	failing := func(context.Context) error { return errors.New("down") }
	w := get(t, healthRouter(&HealthConfig{StorePing: failing}, zap.NewNop()), "/health")

	if got := decodeHealth(t, w.Body.Bytes())["status"]; got != "shutting-down" {
		t.Errorf("status = %v, want shutting-down", got)
	}
}

func TestGetHealth_StoreUnreachable(t *testing.T) {
	setupHealth(t)
	failing := func(context.Context) error { return errors.New("connection refused") }
	w := get(t, healthRouter(&HealthConfig{StorePing: failing}, zap.NewNop()), "/health")

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
	body := decodeHealth(t, w.Body.Bytes())
	if body["status"] != "degraded" {
		t.Errorf("status = %v, want degraded", body["status"])
	}
	if checks := body["checks"].(map[string]interface{}); checks["store"] != "unhealthy" {
		t.Errorf("checks = %v", checks)
	}
}

func TestGetHealth_CacheFailureStaysHealthy(t *testing.T) {
	setupHealth(t)
	failing := func(context.Context) error { return errors.New("memcache: no servers") }
	w := get(t, healthRouter(&HealthConfig{StorePing: okPing, CachePing: failing}, zap.NewNop()), "/health")

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	if checks := decodeHealth(t, w.Body.Bytes())["checks"].(map[string]interface{}); checks["cache"] != "unhealthy" {
		t.Errorf("checks = %v", checks)
	}
}

func TestGetHealth_ErrorRateBreach(t *testing.T) {
	setupHealth(t)
	for i := 0; i < 9; i++ {
		traffic.RecordSuccess("/location")
	}
	traffic.RecordError("/weather")

	cfg := &HealthConfig{DegradedWindow: time.Minute, DegradedErrorPct: 5}
	w := get(t, healthRouter(cfg, zap.NewNop()), "/health")

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", w.Code)
	}
	body := decodeHealth(t, w.Body.Bytes())
	if body["status"] != "degraded" {
		t.Errorf("status = %v, want degraded", body["status"])
	}
	failing, ok := body["failingRoutes"].(map[string]interface{})
	if !ok || failing["/weather"] != float64(1) {
		t.Errorf("failingRoutes = %v", body["failingRoutes"])
	}
}

func TestGetHealth_ErrorRateBelowThreshold(t *testing.T) {
	setupHealth(t)
	for i := 0; i < 99; i++ {
		traffic.RecordSuccess("/location")
	}
	traffic.RecordError("/weather")

	cfg := &HealthConfig{DegradedWindow: time.Minute, DegradedErrorPct: 5}
	if w := get(t, healthRouter(cfg, zap.NewNop()), "/health"); w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestGetHealth_LogsTransition(t *testing.T) {
	setupHealth(t)
	core, logs := observer.New(zap.InfoLevel)
	router := healthRouter(nil, zap.New(core))

	get(t, router, "/health")
	lifecycle.SetShuttingDown(true)
	get(t, router, "/health")

	entries := logs.FilterMessage("health status transition").All()
	if len(entries) != 1 {
		t.Fatalf("got %d transition logs, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["previous_status"] != "healthy" || fields["current_status"] != "shutting-down" {
		t.Errorf("fields = %v", fields)
	}
}
