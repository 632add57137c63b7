package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/couchcryptid/hazard-hotspot-service/internal/config"
	"github.com/couchcryptid/hazard-hotspot-service/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer produces hotspot messages to a Kafka topic.
// It implements pipeline.HotspotLoader.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// LoadHotspots publishes every hotspot of a detection run in a single
// WriteMessages call. Hotspots are keyed by cell so updates to the same
// area land on the same partition.
func (w *Writer) LoadHotspots(ctx context.Context, det domain.Detection) error {
	if len(det.Hotspots) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(det.Hotspots))
	for i := range det.Hotspots {
		msg, err := serializeToMessage(det.Hotspots[i], det.GeneratedAt)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write hotspots: %w", err)
	}
	w.logger.Debug("hotspots published", "count", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a Hotspot into a Kafka message.
func serializeToMessage(h domain.Hotspot, generatedAt time.Time) (kafkago.Message, error) {
	data, err := json.Marshal(h)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize hotspot: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(messageKey(h)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "severity", Value: []byte(h.Severity)},
			{Key: "count", Value: []byte(strconv.Itoa(h.Count))},
			{Key: "generated_at", Value: []byte(generatedAt.Format(time.RFC3339))},
		},
	}, nil
}

func messageKey(h domain.Hotspot) string {
	if h.Cell != "" {
		return h.Cell
	}
	return strconv.FormatFloat(h.Lat, 'f', 5, 64) + "," + strconv.FormatFloat(h.Lng, 'f', 5, 64)
}
