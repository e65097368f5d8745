package persistence

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRebind(t *testing.T) {
	query := "INSERT INTO enrollments (activity_id, email) SELECT id, ? FROM activities WHERE name = ?"

	require.Equal(t, query, SQLite.Rebind(query))
	require.Equal(t,
		"INSERT INTO enrollments (activity_id, email) SELECT id, $1 FROM activities WHERE name = $2",
		Postgres.Rebind(query),
	)
	require.Equal(t, "SELECT 1", Postgres.Rebind("SELECT 1"))
}

func TestRosterBuilderKeepsEmptyActivities(t *testing.T) {
	daniel := "daniel@mergington.edu"
	michael := "michael@mergington.edu"

	b := NewRosterBuilder()
	b.Add("Chess Club", "Learn strategies", "Fridays", 12, &daniel)
	b.Add("Chess Club", "Learn strategies", "Fridays", 12, &michael)
	b.Add("Math Club", "Solve problems", "Tuesdays", 10, nil)

	activities := b.Activities()
	require.Len(t, activities, 2)
	require.Equal(t, []string{daniel, michael}, activities["Chess Club"].Participants)
	require.Equal(t, 12, activities["Chess Club"].MaxParticipants)
	require.NotNil(t, activities["Math Club"].Participants)
	require.Empty(t, activities["Math Club"].Participants)
}
