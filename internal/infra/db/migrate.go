package db

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"newsletter-curator/internal/pkg/config"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// MigrateUp applies every pending embedded migration. Running it on an up-to-date
// schema is a no-op. The migrator pins one connection for its lifetime, so it
// runs on a pool of its own that is closed before returning.
func MigrateUp(ctx context.Context) error {
	dsn := config.LoadEnvString("DATABASE_URL", "")
	if dsn == "" {
		return ErrNoDatabaseURL
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("MigrateUp: open: %w", err)
	}
	defer func() { _ = db.Close() }()
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("MigrateUp: ping: %w", err)
	}

	m, err := newMigrator(db)
	if err != nil {
		return err
	}
	defer closeMigrator(m)

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("MigrateUp: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("MigrateUp: version: %w", err)
	}
	slog.Info("database schema up to date",
		slog.Uint64("version", uint64(version)),
		slog.Bool("dirty", dirty))
	return nil
}

type migrationCloser interface {
	Close() (source error, database error)
}

func closeMigrator(m migrationCloser) {
	srcErr, dbErr := m.Close()
	if srcErr != nil || dbErr != nil {
		slog.Warn("failed to close migrator",
			slog.Any("source_error", srcErr),
			slog.Any("database_error", dbErr))
	}
}

func newMigrator(db *sql.DB) (*migrate.Migrate, error) {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("load migrations: %w", err)
	}

	driver, err := pgxmigrate.WithInstance(db, &pgxmigrate.Config{})
	if err != nil {
		return nil, fmt.Errorf("migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "pgx5", driver)
	if err != nil {
		return nil, fmt.Errorf("migrate instance: %w", err)
	}
	return m, nil
}
