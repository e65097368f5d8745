// Package sqlite provides the SQLite-backed activities store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"example.com/mergington/internal/domain"
	"example.com/mergington/internal/observability"
	"example.com/mergington/internal/persistence"
	"example.com/mergington/internal/persistence/sqlite/migrations"
)

const pragmas = "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_txlock=immediate"

// Store persists activities and enrollments in a single SQLite file.
type Store struct {
	db         *sql.DB
	migrations fs.FS
	logger     *slog.Logger
}

// Option configures optional behaviour for the Store.
type Option func(*Store)

// WithMigrations replaces the embedded migration scripts.
func WithMigrations(fsys fs.FS) Option {
	return func(s *Store) {
		s.migrations = fsys
	}
}

// WithLogger overrides the logger used during initialization.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// Open opens (creating if needed) the database file at path.
// Call Initialize before serving requests.
func Open(path string, opts ...Option) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	if dir := filepath.Dir(cleanPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", cleanPath+"?"+pragmas)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// Single writer: every unit of work takes the one connection in turn.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	s := &Store{
		db:         db,
		migrations: migrations.FS,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Initialize applies pending migrations and seeds an empty store in one transaction.
func (s *Store) Initialize(ctx context.Context) (persistence.InitResult, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return persistence.InitResult{}, fmt.Errorf("begin init: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := persistence.Bootstrap(ctx, txExecutor{tx: tx}, persistence.SQLite, s.migrations)
	if err != nil {
		return persistence.InitResult{}, err
	}
	if err := tx.Commit(); err != nil {
		return persistence.InitResult{}, fmt.Errorf("commit init: %w", err)
	}

	observability.RecordMigrationsApplied(len(result.AppliedMigrations))
	s.logger.Info("sqlite store initialized",
		"applied_migrations", result.AppliedMigrations,
		"seeded", result.Seeded,
	)
	return result, nil
}

// ListActivities returns every activity with its roster ordered by email.
func (s *Store) ListActivities(ctx context.Context) (map[string]domain.Activity, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryContext(ctx, persistence.ListActivitiesQuery)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	builder := persistence.NewRosterBuilder()
	for rows.Next() {
		var (
			name, description, schedule string
			maxParticipants             int
			email                       sql.NullString
		)
		if err := rows.Scan(&name, &description, &schedule, &maxParticipants, &email); err != nil {
			return nil, err
		}
		var emailPtr *string
		if email.Valid {
			emailPtr = &email.String
		}
		builder.Add(name, description, schedule, maxParticipants, emailPtr)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return builder.Activities(), nil
}

// Enroll adds email to the named activity.
func (s *Store) Enroll(ctx context.Context, activityName, email string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	activityID, err := lookupActivity(ctx, tx, activityName)
	if err != nil {
		return err
	}

	var found int
	err = tx.QueryRowContext(ctx,
		"SELECT 1 FROM enrollments WHERE activity_id = ? AND email = ?",
		activityID, email,
	).Scan(&found)
	switch {
	case err == nil:
		return domain.ErrAlreadyEnrolled
	case !errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("check enrollment: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO enrollments (activity_id, email) VALUES (?, ?)",
		activityID, email,
	); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyEnrolled
		}
		return fmt.Errorf("insert enrollment: %w", err)
	}

	return tx.Commit()
}

// Unenroll removes email from the named activity.
func (s *Store) Unenroll(ctx context.Context, activityName, email string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	activityID, err := lookupActivity(ctx, tx, activityName)
	if err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx,
		"DELETE FROM enrollments WHERE activity_id = ? AND email = ?",
		activityID, email,
	)
	if err != nil {
		return fmt.Errorf("delete enrollment: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if deleted == 0 {
		return domain.ErrNotEnrolled
	}

	return tx.Commit()
}

func lookupActivity(ctx context.Context, tx *sql.Tx, name string) (int64, error) {
	var id int64
	err := tx.QueryRowContext(ctx, "SELECT id FROM activities WHERE name = ?", name).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, domain.ErrActivityNotFound
		}
		return 0, fmt.Errorf("lookup activity: %w", err)
	}
	return id, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

type txExecutor struct {
	tx *sql.Tx
}

func (e txExecutor) Exec(ctx context.Context, query string, args ...any) error {
	_, err := e.tx.ExecContext(ctx, query, args...)
	return err
}

func (e txExecutor) QueryStrings(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := e.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var value string
		if err := rows.Scan(&value); err != nil {
			return nil, err
		}
		out = append(out, value)
	}
	return out, rows.Err()
}

func (e txExecutor) QueryInt(ctx context.Context, query string, args ...any) (int64, error) {
	var value int64
	if err := e.tx.QueryRowContext(ctx, query, args...).Scan(&value); err != nil {
		return 0, err
	}
	return value, nil
}
