package kafka

import (
	"context"
	"encoding/json"

	"github.com/ledgerlink/exchange-bot/internal/core/ports/clients"
	"github.com/segmentio/kafka-go"
)

// Publisher emits sync outcomes to a Kafka topic, keyed by base book id so
// one book's records stay ordered within a partition.
type Publisher struct {
	writer *kafka.Writer
}

// NewPublisher creates a publisher for the given brokers and topic.
func NewPublisher(brokers []string, topic string) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
		},
	}
}

var _ clients.EventPublisher = (*Publisher)(nil)

// Publish implements clients.EventPublisher.
func (p *Publisher) Publish(ctx context.Context, key string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: data,
	})
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
