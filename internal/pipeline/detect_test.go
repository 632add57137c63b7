package pipeline_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/couchcryptid/hazard-hotspot-service/internal/domain"
	"github.com/couchcryptid/hazard-hotspot-service/internal/observability"
	"github.com/couchcryptid/hazard-hotspot-service/internal/pipeline"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func loadFixtureBatch(t *testing.T) domain.Batch {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", "batch.json"))
	require.NoError(t, err)
	var batch domain.Batch
	require.NoError(t, json.Unmarshal(data, &batch))
	return batch
}

func newDetector(t *testing.T, cellRes int, metrics *observability.Metrics) *pipeline.HotspotDetector {
	t.Helper()
	clusterer, err := domain.NewClusterer(domain.DefaultClusterParams())
	require.NoError(t, err)
	return pipeline.NewHotspotDetector(domain.DefaultVocabulary(), nil, clusterer, cellRes, metrics, discardLogger())
}

func TestHotspotDetector_Detect_FixtureBatch(t *testing.T) {
	fakeClock := clockwork.NewFakeClockAt(time.Date(2025, 7, 14, 6, 0, 0, 0, time.UTC))
	domain.SetClock(fakeClock)
	t.Cleanup(func() { domain.SetClock(nil) })

	metrics := observability.NewMetricsForTesting()
	det := newDetector(t, -1, metrics).Detect(context.Background(), loadFixtureBatch(t))

	want := domain.Detection{
		Hotspots: []domain.Hotspot{
			{Lat: (19.12 + 19.06 + 19.08) / 3, Lng: (72.85 + 72.83 + 72.875) / 3, Severity: domain.SeverityHigh, Count: 3},
			{Lat: 27.70, Lng: 85.32, Severity: domain.SeverityLow, Count: 1},
		},
		Received:    6,
		NotHazard:   1,
		Unlocated:   1,
		GeneratedAt: fakeClock.Now(),
	}
	if diff := cmp.Diff(want, det, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("detection mismatch (-want +got):\n%s", diff)
	}

	assert.InDelta(t, 6, testutil.ToFloat64(metrics.ReportsConsumed), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.ReportsDropped.WithLabelValues("not_hazard")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.ReportsDropped.WithLabelValues("unlocated")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(metrics.HotspotsProduced), 0)
}

func TestHotspotDetector_Detect_AssignsCells(t *testing.T) {
	det := newDetector(t, 5, observability.NewMetricsForTesting()).Detect(context.Background(), loadFixtureBatch(t))

	require.Len(t, det.Hotspots, 2)
	for _, h := range det.Hotspots {
		want, err := domain.CellFor(domain.Position{Lat: h.Lat, Lng: h.Lng}, 5)
		require.NoError(t, err)
		assert.Equal(t, want, h.Cell)
	}
}

func TestHotspotDetector_Detect_EmptyBatch(t *testing.T) {
	det := newDetector(t, 5, observability.NewMetricsForTesting()).Detect(context.Background(), domain.Batch{})

	assert.NotNil(t, det.Hotspots)
	assert.Empty(t, det.Hotspots)
	assert.Zero(t, det.Received)
}

func TestHotspotDetector_Detect_GeocodesPlaceNames(t *testing.T) {
	geocoder := &stubGeocoder{results: map[string]domain.GeocodingResult{
		"Guwahati": {Lat: 26.14, Lon: 91.74, PlaceName: "Guwahati"},
	}}
	clusterer, err := domain.NewClusterer(domain.DefaultClusterParams())
	require.NoError(t, err)
	d := pipeline.NewHotspotDetector(
		domain.DefaultVocabulary(),
		domain.NewGeolocator(geocoder, discardLogger()),
		clusterer, -1, observability.NewMetricsForTesting(), discardLogger(),
	)

	det := d.Detect(context.Background(), domain.Batch{Reports: []domain.RawReport{
		{ID: "a", Text: "Flood relief camp opened", PlaceName: "Guwahati"},
		{ID: "b", Text: "Flood in Atlantis", PlaceName: "Atlantis"},
	}})

	require.Len(t, det.Hotspots, 1)
	assert.Equal(t, domain.Hotspot{Lat: 26.14, Lng: 91.74, Severity: domain.SeverityLow, Count: 1}, det.Hotspots[0])
	assert.Equal(t, 1, det.Unlocated)
}

type stubGeocoder struct {
	results map[string]domain.GeocodingResult
}

func (s *stubGeocoder) ForwardGeocode(_ context.Context, name string) (domain.GeocodingResult, error) {
	return s.results[name], nil
}
