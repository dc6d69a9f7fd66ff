package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"newsletter-curator/internal/pkg/config"
)

// ErrNoDatabaseURL is returned when DATABASE_URL is unset.
var ErrNoDatabaseURL = errors.New("DATABASE_URL not set")

// ConnectionConfig holds database connection pool configuration.
type ConnectionConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// DefaultConnectionConfig returns the default connection pool configuration.
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		MaxOpenConns:    25,
		MaxIdleConns:    10,
		ConnMaxLifetime: 1 * time.Hour,
		ConnMaxIdleTime: 30 * time.Minute,
	}
}

// ConnectionConfigFromEnv reads DB_MAX_OPEN_CONNS, DB_MAX_IDLE_CONNS,
// DB_CONN_MAX_LIFETIME and DB_CONN_MAX_IDLE_TIME, keeping defaults for invalid values.
func ConnectionConfigFromEnv(l *config.Loader) ConnectionConfig {
	def := DefaultConnectionConfig()
	return ConnectionConfig{
		MaxOpenConns:    l.Int("DB_MAX_OPEN_CONNS", def.MaxOpenConns, config.IntRange(1, 500)),
		MaxIdleConns:    l.Int("DB_MAX_IDLE_CONNS", def.MaxIdleConns, config.IntRange(1, 500)),
		ConnMaxLifetime: l.Duration("DB_CONN_MAX_LIFETIME", def.ConnMaxLifetime, config.ValidatePositiveDuration),
		ConnMaxIdleTime: l.Duration("DB_CONN_MAX_IDLE_TIME", def.ConnMaxIdleTime, config.ValidatePositiveDuration),
	}
}

// Open creates the pgx-backed connection pool from DATABASE_URL and verifies it with a ping.
func Open(ctx context.Context) (*sql.DB, error) {
	dsn := config.LoadEnvString("DATABASE_URL", "")
	if dsn == "" {
		return nil, ErrNoDatabaseURL
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	loader := config.NewLoader(nil)
	cfg := ConnectionConfigFromEnv(loader)
	loader.Finish(slog.Default())
	Configure(db, cfg)

	slog.Info("database connection pool configured",
		slog.Int("max_open_conns", cfg.MaxOpenConns),
		slog.Int("max_idle_conns", cfg.MaxIdleConns),
		slog.Duration("conn_max_lifetime", cfg.ConnMaxLifetime),
		slog.Duration("conn_max_idle_time", cfg.ConnMaxIdleTime))

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	slog.Info("database connection established successfully")
	return db, nil
}

// Configure applies pool limits to db.
func Configure(db *sql.DB, cfg ConnectionConfig) {
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
}
