package persistence

import "example.com/mergington/internal/domain"

// ListActivitiesQuery joins every activity with its enrollments. Activities
// without enrollments yield one row with a NULL email.
const ListActivitiesQuery = `SELECT activities.name, activities.description, activities.schedule, activities.max_participants, enrollments.email
        FROM activities
        LEFT JOIN enrollments ON enrollments.activity_id = activities.id
        ORDER BY activities.name, enrollments.email`

// RosterBuilder folds the rows of ListActivitiesQuery into activities keyed by name.
type RosterBuilder struct {
	activities map[string]domain.Activity
}

// NewRosterBuilder constructs an empty RosterBuilder.
func NewRosterBuilder() *RosterBuilder {
	return &RosterBuilder{activities: make(map[string]domain.Activity)}
}

// Add consumes one joined row. email is nil when the activity has no enrollments.
func (b *RosterBuilder) Add(name, description, schedule string, maxParticipants int, email *string) {
	activity, ok := b.activities[name]
	if !ok {
		activity = domain.Activity{
			Name:            name,
			Description:     description,
			Schedule:        schedule,
			MaxParticipants: maxParticipants,
			Participants:    []string{},
		}
	}
	if email != nil && *email != "" {
		activity.Participants = append(activity.Participants, *email)
	}
	b.activities[name] = activity
}

// Activities returns the folded result.
func (b *RosterBuilder) Activities() map[string]domain.Activity {
	return b.activities
}
