// Package events publishes committed roster changes to Kafka.
package events

import (
	"context"
	"time"

	"example.com/mergington/internal/domain"
)

// EventTypeEnrollmentChanged is carried in the event_type header.
const EventTypeEnrollmentChanged = "enrollment.changed"

// EnrollmentChanged is the JSON payload written for each roster change.
type EnrollmentChanged struct {
	Activity   string    `json:"activity"`
	Email      string    `json:"email"`
	Action     string    `json:"action"`
	OccurredAt time.Time `json:"occurred_at"`
}

// FromChange converts a domain change into its wire payload.
func FromChange(change domain.EnrollmentChange) EnrollmentChanged {
	return EnrollmentChanged{
		Activity:   change.ActivityName,
		Email:      change.Email,
		Action:     string(change.Action),
		OccurredAt: change.OccurredAt.UTC(),
	}
}

// NopPublisher discards every change. It is used when no brokers are configured.
type NopPublisher struct{}

// PublishEnrollment implements domain.EnrollmentPublisher.
func (NopPublisher) PublishEnrollment(context.Context, domain.EnrollmentChange) error { return nil }

// Close implements io.Closer.
func (NopPublisher) Close() error { return nil }
