package persistence

import (
	"context"
	"io/fs"

	"example.com/mergington/internal/domain"
)

// InitResult reports what a store initialization changed.
type InitResult struct {
	AppliedMigrations []string
	Seeded            bool
}

// Bootstrap applies pending migrations from fsys and then seeds the default
// catalog when the activities table is empty. Both steps share exec, so a
// caller that commits only on success gets all-or-nothing initialization.
func Bootstrap(ctx context.Context, exec Executor, dialect Dialect, fsys fs.FS) (InitResult, error) {
	applied, err := ApplyMigrations(ctx, exec, dialect, fsys, ".")
	if err != nil {
		return InitResult{}, err
	}
	seeded, err := SeedCatalog(ctx, exec, dialect, domain.DefaultCatalog())
	if err != nil {
		return InitResult{}, err
	}
	return InitResult{AppliedMigrations: applied, Seeded: seeded}, nil
}
