package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Lixing-Zhang/kart-challenge/cart-api/internal/config"
	"github.com/Lixing-Zhang/kart-challenge/cart-api/internal/handlers"
	"github.com/Lixing-Zhang/kart-challenge/cart-api/internal/repository"
)

// cartStore is the selected cart backend with its health check and cleanup.
type cartStore struct {
	repo   repository.CartRepository
	checks map[string]handlers.HealthCheck
	close  func()
}

func openCartStore(ctx context.Context, cfg config.StoreConfig, log *slog.Logger) (*cartStore, error) {
	switch cfg.Kind {
	case config.StorePostgres:
		pool, err := repository.OpenPostgres(ctx, cfg.DatabaseURL, cfg.MaxConns)
		if err != nil {
			return nil, err
		}
		if cfg.AutoMigrate {
			if err := repository.Migrate(ctx, pool); err != nil {
				pool.Close()
				return nil, fmt.Errorf("migrate: %w", err)
			}
			log.Info("database migrations applied")
		}
		return &cartStore{
			repo:   repository.NewPostgresCartRepository(pool),
			checks: map[string]handlers.HealthCheck{"postgres": pool.Ping},
			close:  pool.Close,
		}, nil

	case config.StoreRedis:
		client, err := repository.OpenRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		return &cartStore{
			repo: repository.NewRedisCartRepository(client, cfg.CartTTL),
			checks: map[string]handlers.HealthCheck{
				"redis": func(ctx context.Context) error { return client.Ping(ctx).Err() },
			},
			close: func() {
				if err := client.Close(); err != nil {
					log.Warn("failed to close redis client", "error", err)
				}
			},
		}, nil

	default:
		return &cartStore{
			repo:  repository.NewInMemoryCartRepository(),
			close: func() {},
		}, nil
	}
}
