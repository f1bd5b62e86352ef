package gateway

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestCategorizeError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCategory
	}{
		{"nil", nil, ""},
		{"deadline", fmt.Errorf("weather request timeout: %w", context.DeadlineExceeded), ErrorCategoryTimeout},
		{"invalid key", fmt.Errorf("yelp: %w", ErrInvalidAPIKey), ErrorCategoryInvalidAPIKey},
		{"not found", fmt.Errorf("geocode: %w", ErrNotFound), ErrorCategoryNotFound},
		{"rate limited", fmt.Errorf("movies: %w", ErrRateLimited), ErrorCategoryRateLimited},
		{"5xx", fmt.Errorf("trails: %w: HTTP 502", ErrUpstreamFailure), ErrorCategoryUpstream5xx},
		{"parsing", fmt.Errorf("%w: bad json", ErrMalformedResponse), ErrorCategoryParsing},
		{"circuit", fmt.Errorf("%w: weather", ErrCircuitOpen), ErrorCategoryCircuitOpen},
		{"network", errors.New("dial tcp: connection refused"), ErrorCategoryNetwork},
		{"unknown", errors.New("something odd"), ErrorCategoryUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CategorizeError(tt.err); got != tt.want {
				t.Errorf("CategorizeError(%v) = %q, want %q", tt.err, got, tt.want)
			}
		})
	}
}
