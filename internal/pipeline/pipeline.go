package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/hazard-hotspot-service/internal/domain"
	"github.com/couchcryptid/hazard-hotspot-service/internal/observability"
	"github.com/couchcryptid/storm-data-shared/retry"
)

// BatchExtractor reads up to batchSize raw report messages from the source.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawMessage, error)
}

// Detector turns a batch of raw reports into hotspots.
type Detector interface {
	Detect(ctx context.Context, batch domain.Batch) domain.Detection
}

// HotspotLoader publishes the hotspots of one detection run.
type HotspotLoader interface {
	LoadHotspots(ctx context.Context, det domain.Detection) error
}

const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// Pipeline orchestrates the extract-detect-publish loop. Each extracted
// batch is an independent detection run.
type Pipeline struct {
	extractor BatchExtractor
	detector  Detector
	loader    HotspotLoader
	logger    *slog.Logger
	metrics   *observability.Metrics
	ready     atomic.Bool
	batchSize int
}

// New creates a Pipeline with the given stages and observability.
func New(e BatchExtractor, d Detector, l HotspotLoader, logger *slog.Logger, metrics *observability.Metrics, batchSize int) *Pipeline {
	return &Pipeline{
		extractor: e,
		detector:  d,
		loader:    l,
		logger:    logger,
		metrics:   metrics,
		batchSize: batchSize,
	}
}

// CheckReadiness returns nil once the pipeline has published at least one
// detection run, or an error describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not processed any reports yet")
	}
	return nil
}

// Run executes the batch loop until the context is cancelled.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started", "batch_size", p.batchSize)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	// Exponential backoff: start at 200ms, double each retry, cap at 5s.
	backoff := initialBackoff

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		default:
		}

		if !p.processBatch(ctx, &backoff) {
			return nil
		}
	}
}

// processBatch runs one extract-detect-publish cycle. Returns false if the pipeline should stop.
func (p *Pipeline) processBatch(ctx context.Context, backoff *time.Duration) bool {
	start := time.Now()

	rawBatch, err := p.extractor.ExtractBatch(ctx, p.batchSize)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		p.logger.Error("extract batch failed", "error", err)
		return p.backoffOrStop(ctx, backoff)
	}

	if len(rawBatch) == 0 {
		return ctx.Err() == nil
	}

	p.metrics.BatchSize.Observe(float64(len(rawBatch)))
	*backoff = initialBackoff

	reports, parsed := p.parseBatch(ctx, rawBatch)
	if len(reports) == 0 {
		return true
	}

	det := p.detector.Detect(ctx, domain.NewBatch(reports))
	if !p.loadWithRetry(ctx, det, backoff) {
		return false
	}

	for _, raw := range parsed {
		p.commitOffset(ctx, raw)
	}

	p.metrics.DetectionDuration.Observe(time.Since(start).Seconds())
	p.ready.Store(true)
	p.logger.Info("batch processed",
		"messages", len(rawBatch),
		"reports", len(reports),
		"hotspots", len(det.Hotspots),
	)
	return true
}

// parseBatch decodes each message. Messages that fail to decode are logged,
// counted, and committed so they are not redelivered.
func (p *Pipeline) parseBatch(ctx context.Context, rawBatch []domain.RawMessage) ([]domain.RawReport, []domain.RawMessage) {
	reports := make([]domain.RawReport, 0, len(rawBatch))
	parsed := make([]domain.RawMessage, 0, len(rawBatch))

	for _, raw := range rawBatch {
		rec, err := domain.ParseRawMessage(raw)
		if err != nil {
			p.logger.Warn("parse failed, skipping message",
				"error", err,
				"topic", raw.Topic,
				"partition", raw.Partition,
				"offset", raw.Offset,
			)
			p.metrics.ParseErrors.Inc()
			p.commitOffset(ctx, raw)
			continue
		}
		reports = append(reports, rec)
		parsed = append(parsed, raw)
	}
	return reports, parsed
}

// loadWithRetry publishes det, backing off between failed attempts until it
// succeeds. Returns false if the context ends first.
func (p *Pipeline) loadWithRetry(ctx context.Context, det domain.Detection, backoff *time.Duration) bool {
	for {
		err := p.loader.LoadHotspots(ctx, det)
		if err == nil {
			*backoff = initialBackoff
			return true
		}
		p.logger.Error("publish hotspots failed", "error", err, "hotspots", len(det.Hotspots))
		if !p.backoffOrStop(ctx, backoff) {
			return false
		}
	}
}

// backoffOrStop checks for context cancellation, sleeps with the current backoff,
// and advances the backoff. Returns false if the pipeline should stop.
func (p *Pipeline) backoffOrStop(ctx context.Context, backoff *time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	if !retry.SleepWithContext(ctx, *backoff) {
		return false
	}
	*backoff = retry.NextBackoff(*backoff, maxBackoff)
	return true
}

// commitOffset commits the message offset if a commit function is available.
func (p *Pipeline) commitOffset(ctx context.Context, raw domain.RawMessage) {
	if raw.Commit == nil {
		return
	}
	if err := raw.Commit(ctx); err != nil {
		p.logger.Warn("commit offset failed", "error", err,
			"topic", raw.Topic, "partition", raw.Partition, "offset", raw.Offset)
	}
}
