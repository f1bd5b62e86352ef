package http

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/kjstillabower/city-explorer-service/internal/apperr"
	"github.com/kjstillabower/city-explorer-service/internal/models"
	"github.com/kjstillabower/city-explorer-service/internal/providers"
	"github.com/kjstillabower/city-explorer-service/internal/validation"
)

// LocationResolver is the read-through location cache behind /location.
type LocationResolver interface {
	Resolve(ctx context.Context, query string) (models.LocationRecord, error)
}

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	locations    LocationResolver
	fetchers     providers.Set
	healthConfig *HealthConfig
	logger       *zap.Logger
	health       healthTracker
}

func NewHandler(locations LocationResolver, fetchers providers.Set, healthConfig *HealthConfig, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		locations:    locations,
		fetchers:     fetchers,
		healthConfig: healthConfig,
		logger:       logger,
	}
}

// GetLocation handles GET /location?data=<query>.
func (h *Handler) GetLocation(w http.ResponseWriter, r *http.Request) {
	q, err := validation.ParseLocation(r.URL.Query())
	if err != nil {
		h.writeAppError(w, r, apperr.InvalidInput("location.params", err))
		return
	}
	loc, err := h.locations.Resolve(r.Context(), q.Data)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	h.writeResult(w, r, loc)
}

// GetWeather handles GET /weather?data[latitude]=..&data[longitude]=..
func (h *Handler) GetWeather(w http.ResponseWriter, r *http.Request) {
	q, err := validation.ParseCoordinates(r.URL.Query())
	if err != nil {
		h.writeAppError(w, r, apperr.InvalidInput("weather.params", err))
		return
	}
	days, err := h.fetchers.Weather.Fetch(r.Context(), q.Latitude, q.Longitude)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	h.writeResult(w, r, days)
}

func (h *Handler) GetTrails(w http.ResponseWriter, r *http.Request) {
	q, err := validation.ParseCoordinates(r.URL.Query())
	if err != nil {
		h.writeAppError(w, r, apperr.InvalidInput("trails.params", err))
		return
	}
	trails, err := h.fetchers.Trails.Fetch(r.Context(), q.Latitude, q.Longitude)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	h.writeResult(w, r, trails)
}

// GetMovies handles GET /movies?data[location_name]=..
func (h *Handler) GetMovies(w http.ResponseWriter, r *http.Request) {
	q, err := validation.ParsePlace(r.URL.Query())
	if err != nil {
		h.writeAppError(w, r, apperr.InvalidInput("movies.params", err))
		return
	}
	movies, err := h.fetchers.Movies.Fetch(r.Context(), q.LocationName)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	h.writeResult(w, r, movies)
}

func (h *Handler) GetYelp(w http.ResponseWriter, r *http.Request) {
	q, err := validation.ParsePlace(r.URL.Query())
	if err != nil {
		h.writeAppError(w, r, apperr.InvalidInput("yelp.params", err))
		return
	}
	businesses, err := h.fetchers.Yelp.Fetch(r.Context(), q.LocationName)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	h.writeResult(w, r, businesses)
}

// NotFound answers every unregistered route or method.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	_, _ = w.Write([]byte("huh?"))
}
