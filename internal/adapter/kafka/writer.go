package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/road-crash-etl-service/internal/domain"
)

// Writer publishes import summaries to a Kafka topic.
// It implements pipeline.SummaryPublisher.
type Writer struct {
	writer messageWriter
	logger *slog.Logger
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// NewWriter creates a Kafka producer for topic.
func NewWriter(brokers []string, topic string, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Writer{writer: w, logger: logger}
}

// PublishSummary writes one message describing a finished import, keyed by
// its run id.
func (w *Writer) PublishSummary(ctx context.Context, summary domain.ImportSummary) error {
	msg, err := serializeSummary(summary)
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish import summary: %w", err)
	}
	w.logger.Info("import summary published", "run_id", summary.RunID)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeSummary marshals an ImportSummary into a Kafka message.
func serializeSummary(summary domain.ImportSummary) (kafkago.Message, error) {
	data, err := json.Marshal(summary)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize import summary: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(summary.RunID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "source", Value: []byte(summary.Source)},
			{Key: "finished_at", Value: []byte(summary.FinishedAt.Format(time.RFC3339))},
			{Key: "stored", Value: []byte(strconv.Itoa(summary.Stored))},
		},
	}, nil
}
