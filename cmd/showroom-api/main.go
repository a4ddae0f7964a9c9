// Package main provides the showroom API server entrypoint.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/spherical-ai/spherical/libs/showroom/cmd/showroom-api/middleware"
	"github.com/spherical-ai/spherical/libs/showroom/internal/app"
	"github.com/spherical-ai/spherical/libs/showroom/internal/config"
)

const sweepInterval = time.Minute

func main() {
	// .env is optional
	_ = godotenv.Load()

	cfgPath := os.Getenv("CONFIG_PATH")
	if len(os.Args) > 2 && os.Args[1] == "--config" {
		cfgPath = os.Args[2]
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := app.NewLogger(cfg, "showroom-api")

	logger.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Str("database", cfg.Database.Driver).
		Str("cache", cfg.Cache.Driver).
		Msg("Starting showroom API")

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	db, err := app.OpenDatabase(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to open database")
	}
	defer db.Close()

	cacheClient, err := app.OpenCache(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to open cache")
	}
	defer cacheClient.Close()

	crmClient, err := app.NewCRMClient(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create CRM client")
	}

	registry := app.NewComparisonRegistry(cfg, cacheClient, logger)
	chatManager := app.NewChatManager(cfg, crmClient, logger)
	defer chatManager.CloseAll()

	go registry.Run(ctx, sweepInterval, cfg.Chat.IdleSessionTTL)
	go chatManager.Run(ctx, sweepInterval)

	router := NewRouter(logger, AppConfig{
		RequestTimeout: cfg.Server.ReadTimeout,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Visitor: middleware.VisitorConfig{
			CookieName: cfg.Server.VisitorCookie,
			Secure:     cfg.Server.SecureCookies,
		},
		Tracing:     cfg.Observability.Tracing,
		ServiceName: cfg.Observability.ServiceName,
	}, Services{
		Catalog:    app.NewCatalog(cfg, db, cacheClient, logger),
		Comparison: registry,
		Chat:       chatManager,
		Database:   db,
	})

	addr := cfg.ListenAddr()
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("HTTP server listening")
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		logger.Error().Err(err).Msg("Server error")
	case sig := <-shutdown:
		logger.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
	}

	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulShutdown)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Graceful shutdown failed")
		if err := srv.Close(); err != nil {
			logger.Error().Err(err).Msg("Forced shutdown failed")
		}
	}

	logger.Info().Msg("Server stopped")
}
