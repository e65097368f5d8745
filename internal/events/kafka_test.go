package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"

	"example.com/mergington/internal/domain"
)

func TestKafkaPublisherWritesKeyedMessage(t *testing.T) {
	writer := &stubWriter{}
	publisher := newKafkaPublisher(writer)

	occurred := time.Date(2026, time.September, 1, 15, 30, 0, 0, time.UTC)
	err := publisher.PublishEnrollment(context.Background(), domain.EnrollmentChange{
		Enrollment: domain.Enrollment{ActivityName: "Chess Club", Email: "zoe@mergington.edu"},
		Action:     domain.EnrollmentActionEnrolled,
		OccurredAt: occurred,
	})
	require.NoError(t, err)

	require.Len(t, writer.messages, 1)
	msg := writer.messages[0]
	require.Equal(t, "Chess Club", string(msg.Key))
	require.Equal(t, occurred, msg.Time)
	require.Contains(t, msg.Headers, kafka.Header{Key: "event_type", Value: []byte(EventTypeEnrollmentChanged)})
	require.JSONEq(t,
		`{"activity":"Chess Club","email":"zoe@mergington.edu","action":"enrolled","occurred_at":"2026-09-01T15:30:00Z"}`,
		string(msg.Value),
	)

	var decoded EnrollmentChanged
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	require.Equal(t, "enrolled", decoded.Action)
}

func TestKafkaPublisherWrapsWriteError(t *testing.T) {
	cause := errors.New("leader not available")
	publisher := newKafkaPublisher(&stubWriter{err: cause})

	err := publisher.PublishEnrollment(context.Background(), domain.EnrollmentChange{
		Enrollment: domain.Enrollment{ActivityName: "Chess Club", Email: "zoe@mergington.edu"},
		Action:     domain.EnrollmentActionUnenrolled,
	})
	require.ErrorIs(t, err, cause)
}

func TestKafkaPublisherClose(t *testing.T) {
	writer := &stubWriter{}
	require.NoError(t, newKafkaPublisher(writer).Close())
	require.True(t, writer.closed)
}

func TestNopPublisher(t *testing.T) {
	var publisher NopPublisher
	require.NoError(t, publisher.PublishEnrollment(context.Background(), domain.EnrollmentChange{}))
	require.NoError(t, publisher.Close())
}

type stubWriter struct {
	err      error
	messages []kafka.Message
	closed   bool
}

func (s *stubWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if s.err != nil {
		return s.err
	}
	s.messages = append(s.messages, msgs...)
	return nil
}

func (s *stubWriter) Close() error {
	s.closed = true
	return nil
}
