package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/DukeRupert/atlas/internal/metrics"
	kafkago "github.com/segmentio/kafka-go"
)

// messageWriter is the subset of *kafkago.Writer used by KafkaPublisher.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// KafkaPublisher produces hazard events to a Kafka topic.
type KafkaPublisher struct {
	writer messageWriter
	logger *slog.Logger
}

// NewKafkaPublisher creates a Kafka producer for the given brokers and topic.
func NewKafkaPublisher(brokers []string, topic string, logger *slog.Logger) *KafkaPublisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		WriteTimeout: 10 * time.Second,
	}
	return &KafkaPublisher{writer: w, logger: logger}
}

// Publish serializes and writes a single hazard event.
func (p *KafkaPublisher) Publish(ctx context.Context, event HazardEvent) error {
	msg, err := serializeToMessage(event)
	if err != nil {
		metrics.EventsPublished.WithLabelValues("error").Inc()
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		metrics.EventsPublished.WithLabelValues("error").Inc()
		return fmt.Errorf("write hazard event: %w", err)
	}
	metrics.EventsPublished.WithLabelValues("success").Inc()
	p.logger.Debug("hazard event published", "event_id", event.ID.String())
	return nil
}

// Close flushes pending messages and closes the writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// serializeToMessage marshals a HazardEvent into a Kafka message.
func serializeToMessage(event HazardEvent) (kafkago.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize hazard event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(event.ID.String()),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "risk_level", Value: []byte(event.Report.RiskLevel.String())},
			{Key: "zone", Value: []byte(event.Report.Zone)},
			{Key: "logged_at", Value: []byte(event.LoggedAt.UTC().Format(time.RFC3339))},
		},
	}, nil
}
