package persistence

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
)

const (
	upMarker   = "-- +migrate Up"
	downMarker = "-- +migrate Down"
)

// ApplyMigrations executes every *.sql file under root in fsys that is not yet
// recorded in schema_migrations, recording each file name as its version.
// Files run in lexical order. exec must be bound to a transaction: when a
// script fails the caller rolls back and nothing from this call is recorded.
// It returns the versions applied by this call.
func ApplyMigrations(ctx context.Context, exec Executor, dialect Dialect, fsys fs.FS, root string) ([]string, error) {
	if exec == nil {
		return nil, fmt.Errorf("migration executor is required")
	}
	if fsys == nil {
		return nil, fmt.Errorf("migration filesystem is required")
	}
	root = strings.TrimSpace(root)
	if root == "" {
		root = "."
	}

	versions, err := migrationVersions(fsys, root)
	if err != nil {
		return nil, err
	}

	if err := exec.Exec(ctx, dialect.MigrationTableDDL); err != nil {
		return nil, fmt.Errorf("ensure migration table: %w", err)
	}

	recorded, err := exec.QueryStrings(ctx, "SELECT version FROM schema_migrations")
	if err != nil {
		return nil, fmt.Errorf("read applied migrations: %w", err)
	}
	applied := make(map[string]struct{}, len(recorded))
	for _, version := range recorded {
		applied[version] = struct{}{}
	}

	var fresh []string
	for _, version := range versions {
		if _, ok := applied[version]; ok {
			continue
		}

		content, err := fs.ReadFile(fsys, path.Join(root, version))
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", version, err)
		}

		if script := ExtractUpMigration(string(content)); strings.TrimSpace(script) != "" {
			if err := exec.Exec(ctx, script); err != nil {
				return nil, fmt.Errorf("exec migration %s: %w", version, err)
			}
		}

		if err := exec.Exec(ctx, dialect.Rebind("INSERT INTO schema_migrations (version) VALUES (?)"), version); err != nil {
			return nil, fmt.Errorf("record migration %s: %w", version, err)
		}
		fresh = append(fresh, version)
	}

	return fresh, nil
}

// ExtractUpMigration returns the SQL in the "-- +migrate Up" section.
// Content without markers is returned unchanged.
func ExtractUpMigration(content string) string {
	upIdx := strings.Index(content, upMarker)
	if upIdx == -1 {
		if downIdx := strings.Index(content, downMarker); downIdx != -1 {
			return content[:downIdx]
		}
		return content
	}
	body := content[upIdx+len(upMarker):]
	if downIdx := strings.Index(body, downMarker); downIdx != -1 {
		return body[:downIdx]
	}
	return body
}

func migrationVersions(fsys fs.FS, root string) ([]string, error) {
	entries, err := fs.ReadDir(fsys, root)
	if err != nil {
		return nil, fmt.Errorf("read migrations dir: %w", err)
	}
	var versions []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			versions = append(versions, entry.Name())
		}
	}
	sort.Strings(versions)
	return versions, nil
}
