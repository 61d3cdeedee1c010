// Package kafka publishes order status changes to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"labtrack/internal/core/domain/model/order"

	"github.com/IBM/sarama"
)

const eventType = "order.status_changed.v1"

// StatusChangedMessage is the JSON value written for each status change.
// The message key is the order id, so changes of one order stay in one partition.
type StatusChangedMessage struct {
	Type       string    `json:"type"`
	OrderID    string    `json:"order_id"`
	From       string    `json:"from"`
	To         string    `json:"to"`
	OccurredAt time.Time `json:"occurred_at"`
}

// OrderStatusPublisher implements EventPublisher on top of a sarama SyncProducer.
type OrderStatusPublisher struct {
	producer sarama.SyncProducer
	topic    string
	logger   *slog.Logger
}

// NewProducer dials the brokers with acknowledgements from all in-sync replicas.
func NewProducer(brokers []string) (sarama.SyncProducer, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Idempotent = true
	config.Net.MaxOpenRequests = 1

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}
	return producer, nil
}

func NewOrderStatusPublisher(producer sarama.SyncProducer, topic string, logger *slog.Logger) *OrderStatusPublisher {
	if topic == "" {
		topic = eventType
	}
	return &OrderStatusPublisher{
		producer: producer,
		topic:    topic,
		logger:   logger.With("component", "kafka_publisher"),
	}
}

func (p *OrderStatusPublisher) Publish(ctx context.Context, events ...order.StatusChanged) error {
	if len(events) == 0 {
		return nil
	}

	messages := make([]*sarama.ProducerMessage, 0, len(events))
	for _, event := range events {
		payload, err := json.Marshal(newStatusChangedMessage(event))
		if err != nil {
			return fmt.Errorf("marshal status change: %w", err)
		}
		messages = append(messages, &sarama.ProducerMessage{
			Topic: p.topic,
			Key:   sarama.StringEncoder(event.OrderID.String()),
			Value: sarama.ByteEncoder(payload),
		})
	}

	if err := p.producer.SendMessages(messages); err != nil {
		return fmt.Errorf("send status changes to %s: %w", p.topic, err)
	}

	p.logger.DebugContext(ctx, "Order status changes published", "topic", p.topic, "count", len(messages))
	return nil
}

func (p *OrderStatusPublisher) Close() error {
	return p.producer.Close()
}

func newStatusChangedMessage(event order.StatusChanged) StatusChangedMessage {
	return StatusChangedMessage{
		Type:       eventType,
		OrderID:    event.OrderID.String(),
		From:       event.From.String(),
		To:         event.To.String(),
		OccurredAt: event.OccurredAt.UTC(),
	}
}

// LogPublisher writes status changes to the log. It stands in for Kafka when no
// broker is configured.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger.With("component", "status_events")}
}

func (p *LogPublisher) Publish(ctx context.Context, events ...order.StatusChanged) error {
	for _, event := range events {
		p.logger.InfoContext(ctx, "Order status changed",
			"order_id", event.OrderID.String(),
			"from", event.From.String(),
			"to", event.To.String(),
			"occurred_at", event.OccurredAt)
	}
	return nil
}
