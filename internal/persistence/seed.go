package persistence

import (
	"context"
	"fmt"

	"example.com/mergington/internal/domain"
)

// SeedCatalog writes catalog into an empty activities table.
// Any existing row, even one outside the catalog, suppresses seeding entirely.
// It reports whether rows were written.
func SeedCatalog(ctx context.Context, exec Executor, dialect Dialect, catalog []domain.CatalogEntry) (bool, error) {
	count, err := exec.QueryInt(ctx, "SELECT COUNT(*) FROM activities")
	if err != nil {
		return false, fmt.Errorf("count activities: %w", err)
	}
	if count > 0 {
		return false, nil
	}

	insertActivity := dialect.Rebind(`INSERT INTO activities (name, description, schedule, max_participants)
        VALUES (?, ?, ?, ?)`)
	insertEnrollment := dialect.Rebind(`INSERT INTO enrollments (activity_id, email)
        SELECT id, ? FROM activities WHERE name = ?`)

	for _, entry := range catalog {
		if err := exec.Exec(ctx, insertActivity, entry.Name, entry.Description, entry.Schedule, entry.MaxParticipants); err != nil {
			return false, fmt.Errorf("seed activity %q: %w", entry.Name, err)
		}
		for _, email := range entry.Participants {
			if err := exec.Exec(ctx, insertEnrollment, email, entry.Name); err != nil {
				return false, fmt.Errorf("seed enrollment %q for %q: %w", email, entry.Name, err)
			}
		}
	}
	return true, nil
}
