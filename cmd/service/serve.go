package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kjstillabower/city-explorer-service/internal/cache"
	"github.com/kjstillabower/city-explorer-service/internal/config"
	httphandler "github.com/kjstillabower/city-explorer-service/internal/http"
	"github.com/kjstillabower/city-explorer-service/internal/lifecycle"
	"github.com/kjstillabower/city-explorer-service/internal/observability"
	"github.com/kjstillabower/city-explorer-service/internal/providers"
	"github.com/kjstillabower/city-explorer-service/internal/service"
	"github.com/kjstillabower/city-explorer-service/internal/store"
)

const inFlightCheckInterval = 100 * time.Millisecond

func runServe(ctx context.Context, portFlag string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logger, err := observability.NewLogger()
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config", zap.Error(err))
	}
	if portFlag != "" {
		cfg.ServerPort = portFlag
	}

	openCtx, openCancel := context.WithTimeout(ctx, 30*time.Second)
	st, err := store.Open(openCtx, cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		openCancel()
		logger.Fatal("location store", zap.String("driver", cfg.DatabaseDriver), zap.Error(err))
	}
	if cfg.AutoMigrate {
		if err := st.Migrate(openCtx); err != nil {
			openCancel()
			logger.Fatal("location schema", zap.Error(err))
		}
	}
	openCancel()
	logger.Info("location store ready", zap.String("driver", cfg.DatabaseDriver))

	if missing := cfg.MissingAPIKeys(); len(missing) > 0 {
		logger.Warn("provider API keys not set; affected routes will fail upstream", zap.Strings("missing", missing))
	}

	fetchers := providers.NewSet(newGateway(cfg, logger), endpoints(cfg))

	front, err := newFrontCache(cfg, logger)
	if err != nil {
		logger.Fatal("cache", zap.Error(err))
	}
	var frontCache cache.Cache
	if front != nil {
		frontCache = front
	}

	locations := service.NewLocationService(st, fetchers.Geocoder, frontCache, service.Options{
		CacheTTL: cfg.CacheTTL,
		Coalesce: cfg.Coalesce,
	}, logger)

	healthConfig := &httphandler.HealthConfig{
		DegradedWindow:   cfg.DegradedWindow,
		DegradedErrorPct: cfg.DegradedErrorPct,
		StorePing:        st.Ping,
	}
	if front != nil {
		healthConfig.CachePing = front.Ping
	}

	var limiter *rate.Limiter
	if cfg.RateLimitRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	}

	observability.RegisterTrafficGauges(cfg.DegradedWindow)

	handler := httphandler.NewHandler(locations, fetchers, healthConfig, logger)
	router := httphandler.NewRouter(handler, httphandler.RouterConfig{
		Logger:         logger,
		Limiter:        limiter,
		RequestTimeout: cfg.RequestTimeout,
	})

	warmCtx, stopWarming := context.WithCancel(ctx)
	defer stopWarming()
	if len(cfg.WarmLocations) > 0 {
		warmer := cache.NewCacheWarmer(locations, logger)
		go func() {
			if err := warmer.WarmPeriodic(warmCtx, cfg.WarmLocations, cfg.WarmInterval); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("cache warming stopped", zap.Error(err))
			}
		}()
	}

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()
	lifecycle.SetReady(true)

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	var listenErr error
	select {
	case <-sigCtx.Done():
		logger.Info("graceful shutdown triggered")
	case listenErr = <-serverErr:
		logger.Error("server", zap.Error(listenErr))
	}
	stop()

	lifecycle.SetShuttingDown(true)
	stopWarming()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}

	logger.Info("waiting for in-flight requests", zap.Int64("count", httphandler.InFlightCount()))
	if err := httphandler.WaitForInFlight(shutdownCtx, inFlightCheckInterval); err != nil {
		logger.Warn("in-flight requests not completed", zap.Error(err), zap.Int64("remaining", httphandler.InFlightCount()))
	}

	if err := observability.FlushTelemetry(shutdownCtx, logger); err != nil {
		logger.Error("telemetry flush", zap.Error(err))
	}

	if front != nil {
		if err := front.Close(); err != nil {
			logger.Error("cache close", zap.Error(err))
		}
	}
	if err := st.Close(); err != nil {
		logger.Error("store close", zap.Error(err))
	}
	if listenErr != nil {
		return fmt.Errorf("listen on %s: %w", srv.Addr, listenErr)
	}
	logger.Info("shutdown complete")
	return nil
}
