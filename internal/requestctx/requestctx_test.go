package requestctx

import (
	"context"
	"testing"

	"go.uber.org/zap"
)

func TestCorrelationID_RoundTrip(t *testing.T) {
	ctx := context.Background()
	if got := CorrelationID(ctx); got != "" {
		t.Errorf("CorrelationID(empty) = %q, want empty", got)
	}
	ctx = WithCorrelationID(ctx, "abc-123")
	if got := CorrelationID(ctx); got != "abc-123" {
		t.Errorf("CorrelationID() = %q, want abc-123", got)
	}
}

func TestLoggerOr(t *testing.T) {
	ctx := context.Background()
	if Logger(ctx) != nil {
		t.Error("Logger(empty) should be nil")
	}
	if LoggerOr(ctx, nil) == nil {
		t.Error("LoggerOr(empty, nil) should return a no-op logger")
	}
	fallback := zap.NewNop()
	if LoggerOr(ctx, fallback) != fallback {
		t.Error("LoggerOr should return fallback when ctx has no logger")
	}
	scoped := zap.NewExample()
	ctx = WithLogger(ctx, scoped)
	if LoggerOr(ctx, fallback) != scoped {
		t.Error("LoggerOr should prefer the request-scoped logger")
	}
}
