package http

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kjstillabower/city-explorer-service/internal/observability"
)

type RouterConfig struct {
	Logger         *zap.Logger
	Limiter        *rate.Limiter // nil disables rate limiting
	RequestTimeout time.Duration
}

// NewRouter wires every route. API routes get rate limiting and the request
// deadline; unknown routes and methods answer 404 "huh?".
func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	correlate := CorrelationIDMiddleware(logger)
	limit := RateLimitMiddleware(cfg.Limiter)
	deadline := TimeoutMiddleware(cfg.RequestTimeout)
	api := func(fn http.HandlerFunc) http.Handler {
		return limit(deadline(fn))
	}

	router := mux.NewRouter()
	router.Use(correlate)
	router.Use(MetricsMiddleware)

	router.HandleFunc("/health", h.GetHealth).Methods(http.MethodGet)
	router.Handle("/metrics", observability.MetricsHandler()).Methods(http.MethodGet)

	router.Handle("/location", api(h.GetLocation)).Methods(http.MethodGet)
	router.Handle("/weather", api(h.GetWeather)).Methods(http.MethodGet)
	router.Handle("/trails", api(h.GetTrails)).Methods(http.MethodGet)
	router.Handle("/movies", api(h.GetMovies)).Methods(http.MethodGet)
	router.Handle("/yelp", api(h.GetYelp)).Methods(http.MethodGet)

	// Router-level middleware does not run for unmatched requests.
	notFound := correlate(MetricsMiddleware(http.HandlerFunc(h.NotFound)))
	router.NotFoundHandler = notFound
	router.MethodNotAllowedHandler = notFound

	return CORSMiddleware(router)
}
