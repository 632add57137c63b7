package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/hazard-hotspot-service/internal/domain"
	"github.com/couchcryptid/hazard-hotspot-service/internal/observability"
)

// HotspotDetector implements Detector by chaining the domain stages:
// classify, score, geolocate, cluster, and tag with H3 cells.
// It holds only immutable configuration and is safe for concurrent use.
type HotspotDetector struct {
	vocab     domain.Vocabulary
	locator   *domain.Geolocator
	clusterer *domain.Clusterer
	cellRes   int
	metrics   *observability.Metrics
	logger    *slog.Logger
}

// NewHotspotDetector creates a detector. A nil locator resolves positions
// from coordinates and bounding boxes only; a negative cellRes disables H3
// tagging.
func NewHotspotDetector(vocab domain.Vocabulary, locator *domain.Geolocator, clusterer *domain.Clusterer, cellRes int, metrics *observability.Metrics, logger *slog.Logger) *HotspotDetector {
	return &HotspotDetector{
		vocab:     vocab,
		locator:   locator,
		clusterer: clusterer,
		cellRes:   cellRes,
		metrics:   metrics,
		logger:    logger,
	}
}

// Detect runs one detection over batch. Filtered reports are counted, never
// reported as errors.
func (d *HotspotDetector) Detect(ctx context.Context, batch domain.Batch) domain.Detection {
	reports, det := domain.PrepareReports(ctx, batch, d.vocab, d.locator)
	det.Hotspots = d.clusterer.Cluster(reports)

	if err := domain.AssignCells(det.Hotspots, d.cellRes); err != nil {
		d.logger.Warn("h3 cell tagging failed, emitting untagged hotspots", "error", err, "resolution", d.cellRes)
		for i := range det.Hotspots {
			det.Hotspots[i].Cell = ""
		}
	}

	d.metrics.ReportsConsumed.Add(float64(det.Received))
	d.metrics.ReportsDropped.WithLabelValues("not_hazard").Add(float64(det.NotHazard))
	d.metrics.ReportsDropped.WithLabelValues("unlocated").Add(float64(det.Unlocated))
	d.metrics.HotspotsProduced.Add(float64(len(det.Hotspots)))

	d.logger.Debug("detection complete",
		"received", det.Received,
		"not_hazard", det.NotHazard,
		"unlocated", det.Unlocated,
		"clustered", len(reports),
		"hotspots", len(det.Hotspots),
	)
	return det
}
