// Package store selects and opens the configured storage backend.
package store

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/mergington/internal/config"
	"example.com/mergington/internal/domain"
	"example.com/mergington/internal/persistence"
	"example.com/mergington/internal/persistence/postgres"
	"example.com/mergington/internal/persistence/sqlite"
)

// Store is the data component: bootstrap plus the enrollment operations.
type Store interface {
	domain.ActivityRepository
	Initialize(ctx context.Context) (persistence.InitResult, error)
	Close() error
}

// Open connects to the backend named by cfg.StoreDriver. The returned store
// is not initialized yet.
func Open(ctx context.Context, cfg config.Config, logger *slog.Logger) (Store, error) {
	var migrationsFS fs.FS
	if cfg.MigrationsDir != "" {
		migrationsFS = os.DirFS(cfg.MigrationsDir)
	}

	switch cfg.StoreDriver {
	case config.DriverSQLite:
		opts := []sqlite.Option{sqlite.WithLogger(logger)}
		if migrationsFS != nil {
			opts = append(opts, sqlite.WithMigrations(migrationsFS))
		}
		s, err := sqlite.Open(cfg.SQLitePath, opts...)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.DriverPostgres:
		pool, err := pgxpool.New(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("ping postgres: %w", err)
		}
		opts := []postgres.Option{postgres.WithLogger(logger)}
		if migrationsFS != nil {
			opts = append(opts, postgres.WithMigrations(migrationsFS))
		}
		return postgres.NewRepository(pool, opts...), nil
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.StoreDriver)
	}
}
