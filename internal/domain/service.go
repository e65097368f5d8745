// Package domain defines the business logic for the activities service.
package domain

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"example.com/mergington/internal/observability"
)

var (
	// ErrActivityNotFound is returned when no activity has the requested name.
	ErrActivityNotFound = errors.New("activity not found")
	// ErrAlreadyEnrolled is returned when the participant is already on the roster.
	ErrAlreadyEnrolled = errors.New("participant already enrolled")
	// ErrNotEnrolled is returned when removing a participant that is not on the roster.
	ErrNotEnrolled = errors.New("participant not enrolled")
	// ErrInvalidInput is returned when the participant email is blank.
	ErrInvalidInput = errors.New("email is required")
)

// ActivityRepository captures persistence operations.
type ActivityRepository interface {
	ListActivities(ctx context.Context) (map[string]Activity, error)
	Enroll(ctx context.Context, activityName, email string) error
	Unenroll(ctx context.Context, activityName, email string) error
}

// EnrollmentAction names the roster change carried by an EnrollmentChange.
type EnrollmentAction string

const (
	EnrollmentActionEnrolled   EnrollmentAction = "enrolled"
	EnrollmentActionUnenrolled EnrollmentAction = "unenrolled"
)

// EnrollmentChange is emitted after a roster change has been committed.
type EnrollmentChange struct {
	Enrollment
	Action     EnrollmentAction
	OccurredAt time.Time
}

// EnrollmentPublisher delivers committed roster changes to downstream consumers.
type EnrollmentPublisher interface {
	PublishEnrollment(ctx context.Context, change EnrollmentChange) error
}

// Option configures optional behaviour for the Service.
type Option func(*Service)

// WithPublisher sets the publisher notified after each roster change.
func WithPublisher(publisher EnrollmentPublisher) Option {
	return func(s *Service) {
		s.publisher = publisher
	}
}

// WithLogger overrides the logger used to report publish failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithClock overrides the time source stamped on published changes.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// Service orchestrates enrollment workflows.
type Service struct {
	repo      ActivityRepository
	publisher EnrollmentPublisher
	logger    *slog.Logger
	now       func() time.Time
}

// NewService constructs a Service.
func NewService(repo ActivityRepository, opts ...Option) *Service {
	s := &Service{
		repo:   repo,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListActivities returns every activity keyed by name.
func (s *Service) ListActivities(ctx context.Context) (map[string]Activity, error) {
	return s.repo.ListActivities(ctx)
}

// Enroll adds email to the roster of the named activity.
func (s *Service) Enroll(ctx context.Context, activityName, email string) error {
	if err := validateEmail(email); err != nil {
		return err
	}
	if err := s.repo.Enroll(ctx, activityName, email); err != nil {
		observability.RecordEnrollment(observability.OperationEnroll, outcomeOf(err))
		return err
	}
	observability.RecordEnrollment(observability.OperationEnroll, observability.OutcomeOK)
	s.publish(ctx, activityName, email, EnrollmentActionEnrolled)
	return nil
}

// Unenroll removes email from the roster of the named activity.
func (s *Service) Unenroll(ctx context.Context, activityName, email string) error {
	if err := validateEmail(email); err != nil {
		return err
	}
	if err := s.repo.Unenroll(ctx, activityName, email); err != nil {
		observability.RecordEnrollment(observability.OperationUnenroll, outcomeOf(err))
		return err
	}
	observability.RecordEnrollment(observability.OperationUnenroll, observability.OutcomeOK)
	s.publish(ctx, activityName, email, EnrollmentActionUnenrolled)
	return nil
}

// publish failures are logged and counted; the committed change stands.
func (s *Service) publish(ctx context.Context, activityName, email string, action EnrollmentAction) {
	now := s.now().UTC()
	observability.RecordEnrollmentPersisted(now)
	if s.publisher == nil {
		return
	}
	change := EnrollmentChange{
		Enrollment: Enrollment{ActivityName: activityName, Email: email},
		Action:     action,
		OccurredAt: now,
	}
	if err := s.publisher.PublishEnrollment(ctx, change); err != nil {
		observability.RecordPublishFailure()
		s.logger.Error("publish enrollment change failed",
			"activity", activityName,
			"action", string(action),
			"error", err,
		)
	}
}

// Activity names are matched exactly by the store, so only the email is checked here.
func validateEmail(email string) error {
	if strings.TrimSpace(email) == "" {
		return ErrInvalidInput
	}
	return nil
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, ErrActivityNotFound):
		return observability.OutcomeActivityNotFound
	case errors.Is(err, ErrAlreadyEnrolled):
		return observability.OutcomeAlreadyEnrolled
	case errors.Is(err, ErrNotEnrolled):
		return observability.OutcomeNotEnrolled
	default:
		return observability.OutcomeError
	}
}
