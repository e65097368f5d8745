// Package persistence contains the storage bootstrap and helpers shared by repository implementations.
package persistence

import (
	"context"
	"strconv"
	"strings"
)

// Executor runs statements inside the transaction owned by the caller.
// The SQLite and Postgres stores each adapt their transaction type to it.
type Executor interface {
	Exec(ctx context.Context, query string, args ...any) error
	QueryStrings(ctx context.Context, query string, args ...any) ([]string, error)
	QueryInt(ctx context.Context, query string, args ...any) (int64, error)
}

// Dialect captures the SQL differences between the supported engines.
type Dialect struct {
	Name string
	// NumberedPlaceholders rewrites '?' into $1, $2, ... when set.
	NumberedPlaceholders bool
	// MigrationTableDDL creates schema_migrations if it does not exist.
	MigrationTableDDL string
}

// SQLite is the dialect of the default file-backed store.
var SQLite = Dialect{
	Name: "sqlite",
	MigrationTableDDL: `CREATE TABLE IF NOT EXISTS schema_migrations (
    version TEXT PRIMARY KEY,
    applied_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
)`,
}

// Postgres is the dialect of the pgx-backed store.
var Postgres = Dialect{
	Name:                 "postgres",
	NumberedPlaceholders: true,
	MigrationTableDDL: `CREATE TABLE IF NOT EXISTS schema_migrations (
    version TEXT PRIMARY KEY,
    applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
}

// Rebind converts a query written with '?' placeholders to the dialect's style.
// Queries must not contain literal question marks.
func (d Dialect) Rebind(query string) string {
	if !d.NumberedPlaceholders || !strings.Contains(query, "?") {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
