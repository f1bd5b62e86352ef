package main

import (
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/kjstillabower/city-explorer-service/internal/cache"
	"github.com/kjstillabower/city-explorer-service/internal/config"
	"github.com/kjstillabower/city-explorer-service/internal/gateway"
	"github.com/kjstillabower/city-explorer-service/internal/providers"
)

// newGateway builds the shared outbound client. The breaker is per provider.
func newGateway(cfg *config.Config, logger *zap.Logger) *gateway.HTTPGateway {
	opts := gateway.Options{
		Timeout:        cfg.ProviderTimeout,
		RetryAttempts:  cfg.RetryAttempts,
		RetryBaseDelay: cfg.RetryBaseDelay,
		RetryMaxDelay:  cfg.RetryMaxDelay,
	}
	if cfg.CircuitBreakerEnabled {
		opts.Breaker = &gateway.BreakerConfig{
			FailureThreshold: uint32(cfg.CircuitBreakerFailureThreshold),
			Timeout:          cfg.CircuitBreakerTimeout,
			OnStateChange: func(provider string, from, to gobreaker.State) {
				logger.Warn("circuit breaker state change",
					zap.String("provider", provider),
					zap.String("from", from.String()),
					zap.String("to", to.String()))
			},
		}
		logger.Info("circuit breaker enabled",
			zap.Int("failure_threshold", cfg.CircuitBreakerFailureThreshold),
			zap.Duration("timeout", cfg.CircuitBreakerTimeout))
	}
	return gateway.New(opts)
}

func endpoints(cfg *config.Config) providers.Endpoints {
	return providers.Endpoints{
		Geocode: providers.Endpoint{URL: cfg.GeocodeURL, APIKey: cfg.LocationAPIKey},
		Weather: providers.Endpoint{URL: cfg.WeatherURL, APIKey: cfg.WeatherAPIKey},
		Trails:  providers.Endpoint{URL: cfg.TrailsURL, APIKey: cfg.TrailAPIKey},
		Movies:  providers.Endpoint{URL: cfg.MoviesURL, APIKey: cfg.MoviesAPIKey},
		Yelp:    providers.Endpoint{URL: cfg.YelpURL, APIKey: cfg.YelpAPIKey},
	}
}

// newFrontCache returns the configured front cache, or nil for "none".
func newFrontCache(cfg *config.Config, logger *zap.Logger) (cache.Backend, error) {
	switch cfg.CacheBackend {
	case "", "none":
		logger.Info("cache backend: none")
		return nil, nil
	case "in_memory":
		logger.Info("cache backend: in_memory")
		return cache.NewInMemoryCache(), nil
	case "memcached":
		mc, err := cache.NewMemcachedCache(cfg.MemcachedAddrs, cfg.MemcachedTimeout, cfg.MemcachedMaxIdleConns)
		if err != nil {
			return nil, fmt.Errorf("memcached cache: %w", err)
		}
		logger.Info("cache backend: memcached", zap.String("addrs", cfg.MemcachedAddrs))
		return mc, nil
	case "redis":
		rc := cache.NewRedisCache(cache.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Timeout:  500 * time.Millisecond,
		})
		logger.Info("cache backend: redis", zap.String("addr", cfg.RedisAddr), zap.Int("db", cfg.RedisDB))
		return rc, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.CacheBackend)
	}
}
