package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/segmentio/kafka-go"
)

// MessageReader is the part of *kafka.Reader the consumer loop uses.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

// Handler processes one decoded event.
type Handler func(ctx context.Context, evt Envelope) error

// NewReader builds a consumer-group reader for topic.
func NewReader(brokers []string, topic, group string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  group,
		MinBytes: 1e3, MaxBytes: 10e6,
	})
}

// Consume reads until ctx is cancelled. Undecodable messages and handler
// errors are logged and skipped.
func Consume(ctx context.Context, reader MessageReader, topic, group string, logger *log.Logger, handle Handler) error {
	logger.Printf("[%s] consumer started (group=%s)", topic, group)
	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("[%s] read error: %w", topic, err)
		}

		var evt Envelope
		if err := json.Unmarshal(msg.Value, &evt); err != nil {
			logger.Printf("[%s] bad JSON: %v; payload=%s", topic, err, string(msg.Value))
			continue
		}
		if err := handle(ctx, evt); err != nil {
			logger.Printf("[%s] handler error eventType=%s key=%s: %v", topic, evt.EventType, string(msg.Key), err)
		}
	}
}
