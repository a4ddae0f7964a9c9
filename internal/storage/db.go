package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// OpenConfig describes how to reach the catalog database.
type OpenConfig struct {
	Driver          string // sqlite or postgres
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	JournalMode     string
}

// Open connects to the catalog database and verifies the connection.
func Open(ctx context.Context, cfg OpenConfig) (*sql.DB, error) {
	driverName := cfg.Driver
	dsn := cfg.DSN
	switch cfg.Driver {
	case "sqlite":
		driverName = "sqlite3"
		if cfg.JournalMode != "" && dsn != ":memory:" {
			dsn = fmt.Sprintf("file:%s?_journal_mode=%s&_busy_timeout=5000", dsn, cfg.JournalMode)
		}
	case "postgres":
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Driver, err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", cfg.Driver, err)
	}

	return db, nil
}

// schema is portable between SQLite and Postgres. JSON-shaped columns are
// stored as TEXT.
const schema = `
CREATE TABLE IF NOT EXISTS vehicles (
	id                 TEXT PRIMARY KEY,
	name               TEXT NOT NULL,
	model              TEXT NOT NULL DEFAULT '',
	brand              TEXT NOT NULL DEFAULT '',
	year               INTEGER NOT NULL DEFAULT 0,
	product_code       TEXT NOT NULL DEFAULT '',
	category           TEXT NOT NULL DEFAULT '',
	category_slug      TEXT NOT NULL DEFAULT '',
	category_href      TEXT NOT NULL DEFAULT '',
	type               TEXT NOT NULL DEFAULT '',
	description        TEXT NOT NULL DEFAULT '',
	images             TEXT NOT NULL DEFAULT '[]',
	description_images TEXT NOT NULL DEFAULT '[]',
	model_3d           TEXT NOT NULL DEFAULT '',
	specs              TEXT NOT NULL DEFAULT '{}',
	optional_features  TEXT NOT NULL DEFAULT '[]',
	special_badges     TEXT NOT NULL DEFAULT '[]',
	is_new             BOOLEAN NOT NULL DEFAULT FALSE,
	is_featured        BOOLEAN NOT NULL DEFAULT FALSE,
	availability       TEXT NOT NULL DEFAULT 'in-stock',
	price              DOUBLE PRECISION,
	translations       TEXT NOT NULL DEFAULT '{}',
	created_at         TIMESTAMP NOT NULL,
	updated_at         TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_vehicles_category_slug ON vehicles (category_slug);
CREATE INDEX IF NOT EXISTS idx_vehicles_featured ON vehicles (is_featured);
`

// Migrate creates the catalog schema if it does not exist.
func Migrate(ctx context.Context, db DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate vehicles schema: %w", err)
	}
	return nil
}
