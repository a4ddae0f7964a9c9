// Package integration runs the showroom components against real Postgres and
// Redis containers.
package integration

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/spherical-ai/spherical/libs/showroom/internal/app"
	"github.com/spherical-ai/spherical/libs/showroom/internal/cache"
	"github.com/spherical-ai/spherical/libs/showroom/internal/config"
)

// TestContainerSetup represents the test container infrastructure.
type TestContainerSetup struct {
	PostgresConnStr string
	RedisAddr       string
	cleanup         func()
}

// SetupTestContainers starts PostgreSQL and Redis for one test.
func SetupTestContainers(t *testing.T) *TestContainerSetup {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:17-alpine",
		postgres.WithDatabase("showroom_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)

	pgConnStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	redisContainer, err := redis.Run(ctx,
		"redis:7.4-alpine",
		testcontainers.WithWaitStrategy(
			wait.ForLog("Ready to accept connections").
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	redisHost, err := redisContainer.Host(ctx)
	require.NoError(t, err)

	redisPort, err := redisContainer.MappedPort(ctx, "6379")
	require.NoError(t, err)

	setup := &TestContainerSetup{
		PostgresConnStr: pgConnStr,
		RedisAddr:       fmt.Sprintf("%s:%s", redisHost, redisPort.Port()),
		cleanup: func() {
			if err := pgContainer.Terminate(ctx); err != nil {
				t.Logf("Failed to terminate postgres container: %v", err)
			}
			if err := redisContainer.Terminate(ctx); err != nil {
				t.Logf("Failed to terminate redis container: %v", err)
			}
		},
	}
	t.Cleanup(setup.Cleanup)
	return setup
}

// Cleanup terminates all test containers.
func (s *TestContainerSetup) Cleanup() {
	if s.cleanup != nil {
		s.cleanup()
		s.cleanup = nil
	}
}

// Config returns a configuration pointing at the containers.
func (s *TestContainerSetup) Config() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Database.Driver = "postgres"
	cfg.Database.Postgres.DSN = s.PostgresConnStr
	cfg.Database.Postgres.MaxOpenConns = 5
	cfg.Cache.Driver = "redis"
	cfg.Cache.Redis.Addr = s.RedisAddr
	cfg.Cache.Redis.Prefix = "showroom-test:"
	return cfg
}

// Open connects to both containers through the application factories.
func (s *TestContainerSetup) Open(t *testing.T) (*config.Config, *sql.DB, cache.Client) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg := s.Config()
	db, err := app.OpenDatabase(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	kv, err := app.OpenCache(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { kv.Close() })

	return cfg, db, kv
}

func requireDocker(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	if os.Getenv("CI") == "" && !isDockerAvailable() {
		t.Skip("Docker not available")
	}
}

// isDockerAvailable checks if Docker is available for testing.
func isDockerAvailable() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	provider, err := testcontainers.NewDockerProvider()
	if err != nil {
		return false
	}
	defer provider.Close()

	_, err = provider.Client().Ping(ctx)
	return err == nil
}
