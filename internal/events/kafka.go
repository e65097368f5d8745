package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"example.com/mergington/internal/domain"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes roster changes to a single topic, keyed by activity
// name so changes to one roster stay ordered within a partition.
type KafkaPublisher struct {
	writer messageWriter
}

// NewKafkaPublisher creates a synchronous publisher for topic.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return newKafkaPublisher(&kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		Compression:            kafka.Snappy,
		AllowAutoTopicCreation: true,
		Async:                  false,
	})
}

func newKafkaPublisher(writer messageWriter) *KafkaPublisher {
	return &KafkaPublisher{writer: writer}
}

// PublishEnrollment implements domain.EnrollmentPublisher.
func (p *KafkaPublisher) PublishEnrollment(ctx context.Context, change domain.EnrollmentChange) error {
	body, err := json.Marshal(FromChange(change))
	if err != nil {
		return fmt.Errorf("encode enrollment change: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(change.ActivityName),
		Value: body,
		Time:  change.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(EventTypeEnrollmentChanged)},
			{Key: "action", Value: []byte(change.Action)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write enrollment change: %w", err)
	}
	return nil
}

// Close flushes and releases the underlying writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
