package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"productpager/internal/logger"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaProducer struct {
	writer messageWriter
	logger *logger.Logger
}

func NewKafkaProducer(brokers []string, topic string, logger *logger.Logger) *KafkaProducer {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}
	logger.Info("Kafka producer initialized for topic %s on %v", topic, brokers)
	return &KafkaProducer{writer: w, logger: logger}
}

// PublishBulkAction writes the event keyed by action id, so retries of the
// same action land on the same partition.
func (p *KafkaProducer) PublishBulkAction(ctx context.Context, event BulkActionEvent) error {
	if event.RequestedAt.IsZero() {
		event.RequestedAt = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal bulk action event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.ActionID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "kind", Value: []byte(event.Kind)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to write bulk action %s to kafka: %v", event.ActionID, err)
		return fmt.Errorf("failed to publish bulk action: %w", err)
	}

	p.logger.Debug("Published bulk action %s (%s, %d products)", event.ActionID, event.Kind, len(event.ProductIDs))
	return nil
}

func (p *KafkaProducer) Close() error {
	return p.writer.Close()
}
