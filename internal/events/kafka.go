package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

const (
	UserCreated = "UserCreated"
	OrderPlaced = "OrderPlaced"
)

// Envelope is the standard event schema the service publishes.
// Keep it small and stable.
type Envelope struct {
	EventID      string      `json:"eventId"`
	EventType    string      `json:"eventType"`
	EventVersion string      `json:"eventVersion"`
	OccurredAt   time.Time   `json:"occurredAt"`
	AggregateID  string      `json:"aggregateId"` // e.g., user email
	Data         interface{} `json:"data"`
}

// NewEnvelope stamps a v1 event with a fresh id.
func NewEnvelope(eventType, aggregateID string, data interface{}) Envelope {
	return Envelope{
		EventID:      uuid.NewString(),
		EventType:    eventType,
		EventVersion: "v1",
		AggregateID:  aggregateID,
		Data:         data,
	}
}

// Publisher sends domain events. Failures are reported but callers treat
// them as non-fatal.
type Publisher interface {
	Publish(ctx context.Context, topic, key string, evt Envelope) error
}

type Producer struct{ w *kafka.Writer }

func NewProducerWithBrokers(brokers []string) *Producer {
	return &Producer{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Balancer:     &kafka.Hash{}, // partition by Kafka message key
			RequiredAcks: kafka.RequireOne,
			BatchTimeout: 10 * time.Millisecond,
		},
	}
}

func (p *Producer) Close() error { return p.w.Close() }

// Publish writes a single message to Kafka.
// 'key' is the Kafka partition key (the user email keeps per-user ordering).
func (p *Producer) Publish(ctx context.Context, topic, key string, evt Envelope) error {
	evt.OccurredAt = time.Now().UTC()
	val, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", evt.EventType, err)
	}
	return p.w.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: val,
	})
}

// LogPublisher is used when no brokers are configured.
type LogPublisher struct {
	Logger *log.Logger
}

func (p LogPublisher) Publish(_ context.Context, topic, key string, evt Envelope) error {
	if p.Logger != nil {
		p.Logger.Printf("[Events] (kafka disabled) topic=%s key=%s type=%s", topic, key, evt.EventType)
	}
	return nil
}
