// Package postgres provides Postgres-backed persistence for activities and enrollments.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/mergington/internal/domain"
	"example.com/mergington/internal/observability"
	"example.com/mergington/internal/persistence"
	"example.com/mergington/internal/persistence/postgres/migrations"
)

const uniqueViolation = "23505"

// Repository provides Postgres-backed persistence for activities and enrollments.
type Repository struct {
	pool       *pgxpool.Pool
	migrations fs.FS
	logger     *slog.Logger
}

// Option configures optional behaviour for the Repository.
type Option func(*Repository)

// WithMigrations replaces the embedded migration scripts.
func WithMigrations(fsys fs.FS) Option {
	return func(r *Repository) {
		r.migrations = fsys
	}
}

// WithLogger overrides the logger used during initialization.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Repository) {
		r.logger = logger
	}
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool, opts ...Option) *Repository {
	r := &Repository{
		pool:       pool,
		migrations: migrations.FS,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Close releases the pool.
func (r *Repository) Close() error {
	r.pool.Close()
	return nil
}

// Initialize applies pending migrations and seeds an empty store in one transaction.
func (r *Repository) Initialize(ctx context.Context) (persistence.InitResult, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return persistence.InitResult{}, fmt.Errorf("begin init: %w", err)
	}
	defer tx.Rollback(ctx)

	result, err := persistence.Bootstrap(ctx, txExecutor{tx: tx}, persistence.Postgres, r.migrations)
	if err != nil {
		return persistence.InitResult{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return persistence.InitResult{}, fmt.Errorf("commit init: %w", err)
	}

	observability.RecordMigrationsApplied(len(result.AppliedMigrations))
	r.logger.Info("postgres store initialized",
		"applied_migrations", result.AppliedMigrations,
		"seeded", result.Seeded,
	)
	return result, nil
}

// ListActivities returns every activity with its roster ordered by email.
func (r *Repository) ListActivities(ctx context.Context) (map[string]domain.Activity, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	tx, err := conn.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, persistence.ListActivitiesQuery)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	builder := persistence.NewRosterBuilder()
	for rows.Next() {
		var (
			name, description, schedule string
			maxParticipants             int
			email                       *string
		)
		if err := rows.Scan(&name, &description, &schedule, &maxParticipants, &email); err != nil {
			return nil, err
		}
		builder.Add(name, description, schedule, maxParticipants, email)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return builder.Activities(), nil
}

// Enroll adds email to the named activity.
func (r *Repository) Enroll(ctx context.Context, activityName, email string) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	activityID, err := lookupActivity(ctx, tx, activityName)
	if err != nil {
		return err
	}

	var found int
	err = tx.QueryRow(ctx,
		"SELECT 1 FROM enrollments WHERE activity_id=$1 AND email=$2",
		activityID, email,
	).Scan(&found)
	switch {
	case err == nil:
		return domain.ErrAlreadyEnrolled
	case !errors.Is(err, pgx.ErrNoRows):
		return fmt.Errorf("check enrollment: %w", err)
	}

	if _, err := tx.Exec(ctx,
		"INSERT INTO enrollments (activity_id, email) VALUES ($1,$2)",
		activityID, email,
	); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.ErrAlreadyEnrolled
		}
		return fmt.Errorf("insert enrollment: %w", err)
	}

	return tx.Commit(ctx)
}

// Unenroll removes email from the named activity.
func (r *Repository) Unenroll(ctx context.Context, activityName, email string) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	activityID, err := lookupActivity(ctx, tx, activityName)
	if err != nil {
		return err
	}

	tag, err := tx.Exec(ctx,
		"DELETE FROM enrollments WHERE activity_id=$1 AND email=$2",
		activityID, email,
	)
	if err != nil {
		return fmt.Errorf("delete enrollment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotEnrolled
	}

	return tx.Commit(ctx)
}

func lookupActivity(ctx context.Context, tx pgx.Tx, name string) (int64, error) {
	var id int64
	if err := tx.QueryRow(ctx, "SELECT id FROM activities WHERE name=$1", name).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrActivityNotFound
		}
		return 0, fmt.Errorf("lookup activity: %w", err)
	}
	return id, nil
}

type txExecutor struct {
	tx pgx.Tx
}

// Exec without arguments goes through the simple protocol, which accepts
// multi-statement migration scripts.
func (e txExecutor) Exec(ctx context.Context, query string, args ...any) error {
	_, err := e.tx.Exec(ctx, query, args...)
	return err
}

func (e txExecutor) QueryStrings(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := e.tx.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func (e txExecutor) QueryInt(ctx context.Context, query string, args ...any) (int64, error) {
	var value int64
	if err := e.tx.QueryRow(ctx, query, args...).Scan(&value); err != nil {
		return 0, err
	}
	return value, nil
}
