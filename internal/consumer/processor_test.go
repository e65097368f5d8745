package consumer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
)

func TestProcessorCommitsOnSuccess(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	msg := enrollmentMessage(10, `{"activity":"Chess Club","email":"zoe@mergington.edu","action":"enrolled","occurred_at":"2026-09-01T15:30:00Z"}`)

	reader := &stubReader{messages: []kafka.Message{msg}}
	handler := &stubHandler{}

	err := NewProcessor(reader, handler, WithLogger(discardLogger())).Run(ctx)
	require.ErrorIs(t, err, context.Canceled)

	require.Equal(t, 1, handler.calls)
	require.Equal(t, 1, reader.commitCalls)
	require.Equal(t, "enrollment.changed", handler.last.EventType)
	require.Equal(t, "Chess Club", handler.last.Change.Activity)
	require.Equal(t, "zoe@mergington.edu", handler.last.Change.Email)
	require.Equal(t, "enrolled", handler.last.Change.Action)
	require.Equal(t, int64(10), handler.last.Offset)
}

func TestProcessorSkipsCommitOnHandlerError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	msg := enrollmentMessage(20, `{"activity":"Chess Club","email":"zoe@mergington.edu","action":"unenrolled","occurred_at":"2026-09-01T15:30:00Z"}`)

	reader := &stubReader{messages: []kafka.Message{msg}}
	handler := &stubHandler{err: errors.New("boom")}

	err := NewProcessor(reader, handler, WithLogger(discardLogger())).Run(ctx)
	require.ErrorIs(t, err, context.Canceled)

	require.Equal(t, 1, handler.calls)
	require.Equal(t, 0, reader.commitCalls)
}

func TestProcessorCommitsAndSkipsMalformedMessages(t *testing.T) {
	cases := map[string]kafka.Message{
		"missing header": {Topic: "enrollment_events", Value: []byte(`{}`)},
		"foreign event": {
			Topic:   "enrollment_events",
			Value:   []byte(`{}`),
			Headers: []kafka.Header{{Key: "event_type", Value: []byte("activity.created")}},
		},
		"bad json":      enrollmentMessage(1, `{"activity":`),
		"missing email": enrollmentMessage(2, `{"activity":"Chess Club","action":"enrolled"}`),
	}

	for name, msg := range cases {
		t.Run(name, func(t *testing.T) {
			reader := &stubReader{messages: []kafka.Message{msg}}
			handler := &stubHandler{}

			err := NewProcessor(reader, handler, WithLogger(discardLogger())).Run(context.Background())
			require.ErrorIs(t, err, context.Canceled)

			require.Zero(t, handler.calls)
			require.Equal(t, 1, reader.commitCalls)
		})
	}
}

func TestAuditHandlerTracksNetChange(t *testing.T) {
	h := NewAuditHandler(discardLogger())
	ctx := context.Background()

	for _, action := range []string{"enrolled", "enrolled", "unenrolled"} {
		msg := Message{}
		msg.Change.Activity = "Chess Club"
		msg.Change.Email = "zoe@mergington.edu"
		msg.Change.Action = action
		require.NoError(t, h.Handle(ctx, msg))
	}

	require.Equal(t, 1, h.NetChange("Chess Club"))
	require.Zero(t, h.NetChange("Art Club"))
}

func enrollmentMessage(offset int64, payload string) kafka.Message {
	return kafka.Message{
		Topic:     "enrollment_events",
		Partition: 0,
		Offset:    offset,
		Time:      time.Now().UTC(),
		Key:       []byte("Chess Club"),
		Value:     []byte(payload),
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte("enrollment.changed")},
		},
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// stubReader returns its messages in order and then context.Canceled.
type stubReader struct {
	messages    []kafka.Message
	index       int
	commitCalls int
}

func (r *stubReader) FetchMessage(context.Context) (kafka.Message, error) {
	if r.index >= len(r.messages) {
		return kafka.Message{}, context.Canceled
	}
	msg := r.messages[r.index]
	r.index++
	return msg, nil
}

func (r *stubReader) CommitMessages(_ context.Context, _ ...kafka.Message) error {
	r.commitCalls++
	return nil
}

func (r *stubReader) Close() error { return nil }

type stubHandler struct {
	calls int
	err   error
	last  Message
}

func (h *stubHandler) Handle(_ context.Context, msg Message) error {
	h.calls++
	h.last = msg
	return h.err
}
