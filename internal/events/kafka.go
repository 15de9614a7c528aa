package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/Shopify/sarama"

	"energydash/internal/config"
	"energydash/pkg/contracts/events"
)

// DefaultTopic is used when the Kafka config leaves the topic empty.
const DefaultTopic = "energydash.events"

// KafkaPublisher publishes events as JSON messages keyed by event type.
type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
	logger   *slog.Logger
}

// NewKafkaPublisher connects a synchronous producer to the configured brokers.
func NewKafkaPublisher(cfg config.KafkaConfig, logger *slog.Logger) (*KafkaPublisher, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.ClientID = cfg.ClientID
	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.Return.Errors = true
	saramaConfig.Producer.RequiredAcks = sarama.WaitForLocal
	saramaConfig.Producer.Retry.Max = 3
	saramaConfig.Producer.Retry.Backoff = 250 * time.Millisecond
	saramaConfig.Producer.Timeout = 5 * time.Second

	producer, err := sarama.NewSyncProducer(cfg.Brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}
	return NewKafkaPublisherWith(producer, cfg.Topic, logger), nil
}

// NewKafkaPublisherWith wraps an existing producer.
func NewKafkaPublisherWith(producer sarama.SyncProducer, topic string, logger *slog.Logger) *KafkaPublisher {
	if topic == "" {
		topic = DefaultTopic
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &KafkaPublisher{
		producer: producer,
		topic:    topic,
		logger:   logger.With(slog.String("component", "kafka_publisher")),
	}
}

// Publish sends event and waits for the broker acknowledgement.
func (p *KafkaPublisher) Publish(ctx context.Context, event events.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(event.Type),
		Value: sarama.ByteEncoder(payload),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_id"), Value: []byte(event.ID)},
			{Key: []byte("event_type"), Value: []byte(event.Type)},
		},
		Timestamp: event.Timestamp,
	}
	if event.TraceID != "" {
		msg.Headers = append(msg.Headers, sarama.RecordHeader{Key: []byte("trace_id"), Value: []byte(event.TraceID)})
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to publish %s to %s: %w", event.Type, p.topic, err)
	}

	p.logger.DebugContext(ctx, "Published event",
		slog.String("event_type", string(event.Type)),
		slog.String("topic", p.topic),
		slog.Int("partition", int(partition)),
		slog.Int64("offset", offset))
	return nil
}

// Close closes the producer.
func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}
