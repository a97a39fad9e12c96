package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/cloud-obs-etl/internal/config"
	"github.com/couchcryptid/cloud-obs-etl/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer publishes per-day layer events to a Kafka topic.
// It implements pipeline.LayerPublisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// PublishLayers serializes and publishes one day's layer event.
func (w *Writer) PublishLayers(ctx context.Context, event domain.LayerEvent) error {
	msg, err := serializeToMessage(event)
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish layer event %s: %w", event.Key(), err)
	}
	w.logger.Debug("layer event published",
		"key", event.Key(), "transitions", event.TransitionCount())
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a LayerEvent into a Kafka message keyed by
// observatory and day.
func serializeToMessage(event domain.LayerEvent) (kafkago.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize layer event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(event.Key()),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "observatory", Value: []byte(event.Observatory)},
			{Key: "processed_at", Value: []byte(event.ProcessedAt.Format(time.RFC3339))},
		},
	}, nil
}
