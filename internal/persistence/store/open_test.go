package store

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"example.com/mergington/internal/config"
)

func TestOpenSQLiteInitializesCatalog(t *testing.T) {
	ctx := context.Background()
	cfg := config.Config{
		StoreDriver: config.DriverSQLite,
		SQLitePath:  filepath.Join(t.TempDir(), "nested", "school.db"),
	}

	st, err := Open(ctx, cfg, discardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	result, err := st.Initialize(ctx)
	require.NoError(t, err)
	require.True(t, result.Seeded)

	activities, err := st.ListActivities(ctx)
	require.NoError(t, err)
	require.Len(t, activities, 9)
}

func TestOpenUsesMigrationsDirOverride(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	script := `CREATE TABLE activities (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE,
	description TEXT NOT NULL,
	schedule TEXT NOT NULL,
	max_participants INTEGER NOT NULL
);
CREATE TABLE enrollments (
	activity_id INTEGER NOT NULL REFERENCES activities(id) ON DELETE CASCADE,
	email TEXT NOT NULL,
	UNIQUE (activity_id, email)
);
CREATE TABLE audit_marker (id INTEGER);
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "0001_custom.sql"), []byte(script), 0o644))

	st, err := Open(ctx, config.Config{
		StoreDriver:   config.DriverSQLite,
		SQLitePath:    filepath.Join(t.TempDir(), "school.db"),
		MigrationsDir: dir,
	}, discardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	result, err := st.Initialize(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"0001_custom.sql"}, result.AppliedMigrations)
	require.True(t, result.Seeded)
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), config.Config{StoreDriver: "mysql"}, discardLogger())
	require.ErrorContains(t, err, "unsupported store driver")
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
