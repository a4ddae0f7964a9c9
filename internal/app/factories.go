// Package app wires configuration into the showroom components shared by the
// API server and the CLI.
package app

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/spherical-ai/spherical/libs/showroom/internal/cache"
	"github.com/spherical-ai/spherical/libs/showroom/internal/catalog"
	"github.com/spherical-ai/spherical/libs/showroom/internal/chat"
	"github.com/spherical-ai/spherical/libs/showroom/internal/comparison"
	"github.com/spherical-ai/spherical/libs/showroom/internal/config"
	"github.com/spherical-ai/spherical/libs/showroom/internal/crm"
	"github.com/spherical-ai/spherical/libs/showroom/internal/observability"
	"github.com/spherical-ai/spherical/libs/showroom/internal/storage"
)

// NewLogger creates the service logger from configuration.
func NewLogger(cfg *config.Config, service string) *observability.Logger {
	if service == "" {
		service = cfg.Observability.ServiceName
	}
	return observability.NewLogger(observability.LogConfig{
		Level:       cfg.Observability.LogLevel,
		Format:      cfg.Observability.LogFormat,
		ServiceName: service,
	})
}

// OpenDatabase connects to the configured catalog database and applies the
// schema.
func OpenDatabase(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	openCfg := storage.OpenConfig{
		Driver: cfg.Database.Driver,
		DSN:    cfg.DatabaseDSN(),
	}
	switch cfg.Database.Driver {
	case "sqlite":
		openCfg.MaxOpenConns = cfg.Database.SQLite.MaxOpenConns
		openCfg.JournalMode = cfg.Database.SQLite.JournalMode
	case "postgres":
		openCfg.MaxOpenConns = cfg.Database.Postgres.MaxOpenConns
		openCfg.MaxIdleConns = cfg.Database.Postgres.MaxIdleConns
		openCfg.ConnMaxLifetime = cfg.Database.Postgres.ConnMaxLifetime
	}

	db, err := storage.Open(ctx, openCfg)
	if err != nil {
		return nil, err
	}
	if err := storage.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// OpenCache returns the configured cache client.
func OpenCache(ctx context.Context, cfg *config.Config) (cache.Client, error) {
	switch cfg.Cache.Driver {
	case "redis":
		return cache.NewRedisClient(ctx, cache.RedisConfig{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
			PoolSize: cfg.Cache.Redis.PoolSize,
			Prefix:   cfg.Cache.Redis.Prefix,
		})
	case "memory", "":
		return cache.NewMemoryClient(cfg.Cache.MaxEntries), nil
	default:
		return nil, fmt.Errorf("unsupported cache driver: %s", cfg.Cache.Driver)
	}
}

// NewCatalog creates the catalog accessor over db.
func NewCatalog(cfg *config.Config, db storage.DB, cacheClient cache.Client, logger *observability.Logger) *catalog.Catalog {
	return catalog.New(storage.NewVehicleRepository(db), cacheClient, logger, catalog.Config{
		Revalidate:    cfg.Catalog.Revalidate,
		FeaturedLimit: cfg.Catalog.FeaturedLimit,
	})
}

// NewComparisonRegistry creates the per-visitor selection registry.
func NewComparisonRegistry(cfg *config.Config, kv comparison.KV, logger *observability.Logger) *comparison.Registry {
	return comparison.NewRegistry(kv, comparison.StoreConfig{
		Key:      cfg.Comparison.StorageKey,
		MaxItems: cfg.Comparison.MaxItems,
		TTL:      cfg.Comparison.TTL,
	}, logger)
}

// NewCRMClient creates the customer-chat API client.
func NewCRMClient(cfg *config.Config, logger *observability.Logger) (*crm.Client, error) {
	return crm.NewClient(crm.Config{
		BaseURL:        cfg.CRM.BaseURL,
		RequestTimeout: cfg.CRM.RequestTimeout,
		StreamTimeout:  cfg.CRM.StreamTimeout,
		Tracing:        cfg.Observability.Tracing,
	}, logger)
}

// SessionConfig is the chat session configuration.
func SessionConfig(cfg *config.Config) chat.Config {
	return chat.Config{OperatorCloseDelay: cfg.Chat.OperatorCloseDelay}
}

// NewChatManager creates the per-visitor chat session manager.
func NewChatManager(cfg *config.Config, backend chat.Backend, logger *observability.Logger) *chat.Manager {
	return chat.NewManager(backend, chat.ManagerConfig{
		Session:   SessionConfig(cfg),
		SendRate:  cfg.Chat.SendRate,
		SendBurst: cfg.Chat.SendBurst,
		IdleTTL:   cfg.Chat.IdleSessionTTL,
	}, logger)
}
