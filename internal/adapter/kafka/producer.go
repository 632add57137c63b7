package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/hazard-hotspot-service/internal/config"
	"github.com/couchcryptid/hazard-hotspot-service/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

const publishChunk = 100

// ReportProducer publishes raw reports to the source topic, one message per
// report. It feeds fixtures and replays into a running pipeline.
type ReportProducer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewReportProducer creates a Kafka producer for the configured source topic.
func NewReportProducer(cfg *config.Config, logger *slog.Logger) *ReportProducer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSourceTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &ReportProducer{writer: w, logger: logger}
}

// PublishBatch writes every report of batch, with referenced places
// inlined so consumers can resolve positions without the place table.
func (p *ReportProducer) PublishBatch(ctx context.Context, batch domain.Batch) error {
	return p.Publish(ctx, batch.Flatten(), nil)
}

// Publish writes reports in chunks of publishChunk messages. progress, when
// non-nil, is called with the number of reports written by each chunk.
func (p *ReportProducer) Publish(ctx context.Context, reports []domain.RawReport, progress func(n int)) error {
	for start := 0; start < len(reports); start += publishChunk {
		end := min(start+publishChunk, len(reports))
		msgs := make([]kafkago.Message, 0, end-start)
		for i := start; i < end; i++ {
			msg, err := reportToMessage(reports[i])
			if err != nil {
				return err
			}
			msgs = append(msgs, msg)
		}
		if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
			return fmt.Errorf("write reports %d-%d: %w", start, end-1, err)
		}
		if progress != nil {
			progress(len(msgs))
		}
	}
	if len(reports) > 0 {
		p.logger.Info("reports published", "topic", p.writer.Topic, "count", len(reports))
	}
	return nil
}

func (p *ReportProducer) Close() error {
	return p.writer.Close()
}

func reportToMessage(r domain.RawReport) (kafkago.Message, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize report: %w", err)
	}
	msg := kafkago.Message{Value: data}
	if r.ID != "" {
		msg.Key = []byte(r.ID)
	}
	if r.Source != "" {
		msg.Headers = []kafkago.Header{{Key: "source", Value: []byte(r.Source)}}
	}
	return msg, nil
}
