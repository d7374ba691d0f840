package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/taxi-claims-etl/internal/config"
	"github.com/couchcryptid/taxi-claims-etl/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer publishes every consolidated trip to a Kafka topic.
// It implements pipeline.Sink.
type Writer struct {
	writer    messageWriter
	batchSize int
	logger    *slog.Logger
}

// NewWriter creates a Kafka producer for the configured trip topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		BatchSize:    cfg.BatchSize,
	}
	return &Writer{writer: w, batchSize: cfg.BatchSize, logger: logger}
}

// Write serializes the table's trips and publishes them in batches of
// BATCH_SIZE messages. Keys are deterministic trip IDs so reruns upsert.
func (w *Writer) Write(ctx context.Context, t *domain.Table) error {
	processedAt := domain.Now()
	batch := make([]kafkago.Message, 0, w.batchSize)
	published := 0

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := w.writer.WriteMessages(ctx, batch...); err != nil {
			return fmt.Errorf("publish trips: %w", err)
		}
		published += len(batch)
		batch = batch[:0]
		return nil
	}

	ids := domain.TripIDs(t)
	for i, id := range ids {
		msg, err := serializeToMessage(id, domain.TripFromRow(t, i), processedAt)
		if err != nil {
			return err
		}
		batch = append(batch, msg)
		if len(batch) >= w.batchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := flush(); err != nil {
		return err
	}

	w.logger.Info("trips published", "count", published)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a Trip into a Kafka message.
func serializeToMessage(id string, trip domain.Trip, processedAt time.Time) (kafkago.Message, error) {
	data, err := json.Marshal(trip)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize trip: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(id),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "division_code", Value: []byte(trip.DivisionCode.V)},
			{Key: "processed_at", Value: []byte(processedAt.Format(time.RFC3339))},
		},
	}, nil
}
