package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/kjstillabower/city-explorer-service/internal/apperr"
	"github.com/kjstillabower/city-explorer-service/internal/cache"
	"github.com/kjstillabower/city-explorer-service/internal/models"
	"github.com/kjstillabower/city-explorer-service/internal/observability"
	"github.com/kjstillabower/city-explorer-service/internal/providers"
	"github.com/kjstillabower/city-explorer-service/internal/requestctx"
	"github.com/kjstillabower/city-explorer-service/internal/store"
)

var errEmptyQuery = errors.New("empty location query")

type Options struct {
	// CacheTTL applies to the front cache only; stored rows never expire.
	CacheTTL time.Duration
	// Coalesce collapses concurrent misses for one query into a single geocode and insert.
	Coalesce bool
}

// LocationService is a read-through cache over the location store.
// Lookups go front cache, then store, then geocoder. Stored entries are never refreshed.
type LocationService struct {
	store    store.LocationStore
	geocoder providers.Geocoder
	cache    cache.Cache // nil when no front cache is configured
	ttl      time.Duration
	misses   *missTracker
	group    *singleflight.Group // nil when coalescing is disabled
	logger   *zap.Logger
}

func NewLocationService(st store.LocationStore, geocoder providers.Geocoder, front cache.Cache, opts Options, logger *zap.Logger) *LocationService {
	s := &LocationService{
		store:    st,
		geocoder: geocoder,
		cache:    front,
		ttl:      opts.CacheTTL,
		misses:   newMissTracker(),
		logger:   logger,
	}
	if opts.Coalesce {
		s.group = &singleflight.Group{}
	}
	return s
}

func (s *LocationService) loggerFromContext(ctx context.Context) *zap.Logger {
	return requestctx.LoggerOr(ctx, s.logger)
}

// Resolve returns the location record for query, geocoding and persisting it on first sight.
// The query is the lookup key as given: "Seattle " and "Seattle" are distinct entries.
func (s *LocationService) Resolve(ctx context.Context, query string) (models.LocationRecord, error) {
	key := query
	if strings.TrimSpace(key) == "" {
		return models.LocationRecord{}, apperr.InvalidInput("location.resolve", errEmptyQuery)
	}
	logger := s.loggerFromContext(ctx).With(zap.String("query", key))

	if rec, ok := s.cacheGet(ctx, logger, key); ok {
		observability.LocationLookupsTotal.WithLabelValues("cache").Inc()
		logger.Debug("location cache hit")
		return rec, nil
	}

	rec, found, err := s.store.Find(ctx, key)
	if err != nil {
		return models.LocationRecord{}, apperr.PersistenceFailed("location.find", err)
	}
	if found {
		observability.LocationLookupsTotal.WithLabelValues("store").Inc()
		logger.Debug("location store hit")
		s.cacheSet(ctx, logger, key, rec)
		return rec, nil
	}

	if n := s.misses.Begin(key); n > 1 {
		observability.CacheStampedeDetectedTotal.Inc()
		logger.Debug("concurrent location miss", zap.Int("in_flight", n))
	}
	defer s.misses.End(key)

	logger.Debug("location miss, geocoding")
	if s.group == nil {
		return s.geocodeAndStore(ctx, logger, key)
	}

	// The shared call outlives any single caller's cancellation; the gateway
	// still bounds it with its own timeout.
	v, err, shared := s.group.Do(key, func() (interface{}, error) {
		return s.geocodeAndStore(context.WithoutCancel(ctx), logger, key)
	})
	if shared {
		observability.RequestCoalescingHitsTotal.Inc()
	}
	if err != nil {
		return models.LocationRecord{}, err
	}
	return v.(models.LocationRecord), nil
}

func (s *LocationService) geocodeAndStore(ctx context.Context, logger *zap.Logger, key string) (models.LocationRecord, error) {
	rec, err := s.geocoder.Geocode(ctx, key)
	if err != nil {
		return models.LocationRecord{}, apperr.LookupFailed("location.geocode", err)
	}
	observability.LocationLookupsTotal.WithLabelValues("geocode").Inc()
	rec.SearchQuery = key

	if err := s.store.Insert(ctx, rec); err != nil {
		logger.Warn("location insert failed, returning unsaved record", zap.Error(err))
	}
	s.cacheSet(ctx, logger, key, rec)
	return rec, nil
}

// cacheGet treats every front-cache error as a miss.
func (s *LocationService) cacheGet(ctx context.Context, logger *zap.Logger, key string) (models.LocationRecord, bool) {
	if s.cache == nil {
		return models.LocationRecord{}, false
	}
	rec, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		observability.CacheErrorsTotal.WithLabelValues("get").Inc()
		logger.Warn("location cache get failed", zap.Error(err))
		return models.LocationRecord{}, false
	}
	return rec, ok
}

func (s *LocationService) cacheSet(ctx context.Context, logger *zap.Logger, key string, rec models.LocationRecord) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, rec, s.ttl); err != nil {
		observability.CacheErrorsTotal.WithLabelValues("set").Inc()
		logger.Warn("location cache set failed", zap.Error(err))
	}
}
