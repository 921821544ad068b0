// internal/pkg/notify/notify.go
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// Event represents a user-visible notification published to the event bus
type Event struct {
	Type      string                 `json:"type"` // "success" or "error"
	UserID    uint                   `json:"user_id"`
	Message   string                 `json:"message"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// Sink publishes notification events; failures must never affect control flow
type Sink interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// KafkaSink publishes events to a Kafka topic
type KafkaSink struct {
	writer *kafka.Writer
}

// NewKafkaSink creates a Kafka-backed notification sink
func NewKafkaSink(brokers []string, topic string) *KafkaSink {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}
	return &KafkaSink{writer: writer}
}

// Publish writes a single event keyed by user ID
func (s *KafkaSink) Publish(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(fmt.Sprintf("user:%d", event.UserID)),
		Value: data,
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying writer
func (s *KafkaSink) Close() error {
	return s.writer.Close()
}

// NopSink discards all events; used when eventing is disabled and in tests
type NopSink struct{}

func (NopSink) Publish(ctx context.Context, event Event) error { return nil }
func (NopSink) Close() error                                   { return nil }
