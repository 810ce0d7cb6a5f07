// Package storage provides database access for persisted UI preferences and
// the durable tier of the vehicle-brief cache.
package storage

import (
	"context"
	"database/sql"
	"fmt"

	// Database drivers selected at runtime by config.
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/vozant-ai/valuation-engine/internal/config"
)

// driverName maps the config driver to the registered sql driver.
func driverName(cfgDriver string) (string, error) {
	switch cfgDriver {
	case "sqlite":
		return "sqlite3", nil
	case "postgres":
		return "postgres", nil
	default:
		return "", fmt.Errorf("unsupported database driver: %s", cfgDriver)
	}
}

// Open connects to the configured database and ensures the schema exists.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	driver, err := driverName(cfg.Driver)
	if err != nil {
		return nil, err
	}

	dsn := cfg.SQLite.Path
	if cfg.Driver == "postgres" {
		dsn = cfg.Postgres.DSN
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	switch cfg.Driver {
	case "sqlite":
		if cfg.SQLite.MaxOpenConns > 0 {
			db.SetMaxOpenConns(cfg.SQLite.MaxOpenConns)
		}
	case "postgres":
		if cfg.Postgres.MaxOpenConns > 0 {
			db.SetMaxOpenConns(cfg.Postgres.MaxOpenConns)
		}
		if cfg.Postgres.MaxIdleConns > 0 {
			db.SetMaxIdleConns(cfg.Postgres.MaxIdleConns)
		}
		if cfg.Postgres.ConnMaxLifetime > 0 {
			db.SetConnMaxLifetime(cfg.Postgres.ConnMaxLifetime)
		}
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := Bootstrap(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("bootstrap schema: %w", err)
	}

	return db, nil
}

// Bootstrap creates the schema if it does not exist. The DDL sticks to the
// subset both sqlite3 and postgres accept.
func Bootstrap(ctx context.Context, db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS preferences (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS insight_cache (
			cache_key TEXT PRIMARY KEY,
			text      TEXT NOT NULL,
			cached_at TIMESTAMP NOT NULL
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("execute schema statement: %w", err)
		}
	}
	return nil
}
