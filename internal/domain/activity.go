package domain

// Activity is an extracurricular offering together with its current roster.
type Activity struct {
	Name            string
	Description     string
	Schedule        string
	MaxParticipants int
	// Participants is ordered by email.
	Participants []string
}

// Enrollment relates one participant email to one activity.
type Enrollment struct {
	ActivityName string
	Email        string
}
