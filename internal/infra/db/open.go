// Package db opens the relational store and applies the schema.
// Postgres (pgx stdlib driver) is the production target; SQLite
// (modernc.org/sqlite, pure Go) serves local runs and tests.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"news-aggregator/pkg/config"
)

// Driver names as registered with database/sql.
const (
	DriverPostgres = "pgx"
	DriverSQLite   = "sqlite"
)

const defaultSQLitePath = "./news.db"

// ConnectionConfig is the Postgres pool sizing. SQLite always runs with a
// single connection.
type ConnectionConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		MaxOpenConns:    25,
		MaxIdleConns:    10,
		ConnMaxLifetime: 1 * time.Hour,
		ConnMaxIdleTime: 30 * time.Minute,
	}
}

// DriverFromEnv returns DB_DRIVER, defaulting to Postgres.
func DriverFromEnv() string {
	switch d := os.Getenv("DB_DRIVER"); d {
	case DriverSQLite, "sqlite3":
		return DriverSQLite
	case "", DriverPostgres, "postgres":
		return DriverPostgres
	default:
		slog.Warn("unknown DB_DRIVER, falling back to postgres", slog.String("value", d))
		return DriverPostgres
	}
}

// Open creates and verifies a connection pool for driver.
// DATABASE_URL is required for Postgres; for SQLite it is a file path
// and defaults to ./news.db.
func Open(driver string) (*sql.DB, error) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		if driver != DriverSQLite {
			return nil, fmt.Errorf("DATABASE_URL not set")
		}
		dsn = defaultSQLitePath
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	if driver == DriverSQLite {
		// A single writer avoids SQLITE_BUSY under the ingestion transaction.
		db.SetMaxOpenConns(1)
		if err := applySQLitePragmas(db); err != nil {
			_ = db.Close()
			return nil, err
		}
	} else {
		cfg := getConnectionConfigFromEnv()
		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxIdleConns)
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
		db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

		slog.Info("database connection pool configured",
			slog.Int("max_open_conns", cfg.MaxOpenConns),
			slog.Int("max_idle_conns", cfg.MaxIdleConns),
			slog.Duration("conn_max_lifetime", cfg.ConnMaxLifetime),
			slog.Duration("conn_max_idle_time", cfg.ConnMaxIdleTime))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	slog.Info("database connection established", slog.String("driver", driver))
	return db, nil
}

func applySQLitePragmas(db *sql.DB) error {
	pragmas := []string{
		`PRAGMA foreign_keys = ON`,
		`PRAGMA busy_timeout = 5000`,
		`PRAGMA journal_mode = WAL`,
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("sqlite %q: %w", p, err)
		}
	}
	return nil
}

// getConnectionConfigFromEnv overlays DB_MAX_OPEN_CONNS, DB_MAX_IDLE_CONNS,
// DB_CONN_MAX_LIFETIME and DB_CONN_MAX_IDLE_TIME on the defaults.
// Non-positive values are ignored.
func getConnectionConfigFromEnv() ConnectionConfig {
	cfg := DefaultConnectionConfig()
	positive(&cfg.MaxOpenConns, config.GetEnvInt("DB_MAX_OPEN_CONNS", cfg.MaxOpenConns))
	positive(&cfg.MaxIdleConns, config.GetEnvInt("DB_MAX_IDLE_CONNS", cfg.MaxIdleConns))
	positive(&cfg.ConnMaxLifetime, config.GetEnvDuration("DB_CONN_MAX_LIFETIME", cfg.ConnMaxLifetime))
	positive(&cfg.ConnMaxIdleTime, config.GetEnvDuration("DB_CONN_MAX_IDLE_TIME", cfg.ConnMaxIdleTime))
	return cfg
}

func positive[T int | time.Duration](dst *T, v T) {
	if v > 0 {
		*dst = v
	}
}
