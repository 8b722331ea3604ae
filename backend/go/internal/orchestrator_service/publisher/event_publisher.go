package publisher

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"LexiMind/backend/go/internal/models"
)

// LifecycleEvent is the message published to Kafka for every task
// lifecycle change. Downstream consumers rebuild task timelines from it.
type LifecycleEvent struct {
	TaskID    string           `json:"task_id"`
	Type      string           `json:"type"`
	State     models.TaskState `json:"state"`
	Kind      models.TaskKind  `json:"kind,omitempty"`
	Note      string           `json:"note,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

// EventPublisher writes task lifecycle events to a Kafka topic.
type EventPublisher struct {
	writer *kafka.Writer
}

// NewEventPublisher creates a publisher for the given brokers and topic.
func NewEventPublisher(brokers []string, topic string) *EventPublisher {
	writer := kafka.NewWriter(kafka.WriterConfig{
		Brokers:  brokers,
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	})
	return &EventPublisher{writer: writer}
}

// Publish serializes value as JSON and writes it keyed by key, so all
// events of one task land on the same partition in order.
func (p *EventPublisher) Publish(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: data,
	})
}

// Close flushes and closes the underlying writer.
func (p *EventPublisher) Close() error {
	return p.writer.Close()
}
