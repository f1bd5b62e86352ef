package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kjstillabower/city-explorer-service/internal/config"
	"github.com/kjstillabower/city-explorer-service/internal/observability"
	"github.com/kjstillabower/city-explorer-service/internal/store"
)

func runMigrate(ctx context.Context) error {
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
		return fmt.Errorf("config: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	st, err := store.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	if err := st.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	logger.Info("location schema ready", zap.String("driver", cfg.DatabaseDriver))
	return nil
}
