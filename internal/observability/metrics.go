package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "hazard_hotspots"

// Metrics holds the Prometheus counters, histograms, and gauges for hotspot detection.
type Metrics struct {
	ReportsConsumed  prometheus.Counter
	ReportsDropped   *prometheus.CounterVec // labels: reason={not_hazard,unlocated}
	ParseErrors      prometheus.Counter
	HotspotsProduced prometheus.Counter
	PipelineRunning  prometheus.Gauge

	// Batch processing metrics.
	BatchSize         prometheus.Histogram
	DetectionDuration prometheus.Histogram

	// Collaborator metrics.
	FeedRequests      *prometheus.CounterVec // labels: source, outcome={success,error}
	SentimentRequests *prometheus.CounterVec // labels: outcome={success,error}
	SentimentCache    *prometheus.CounterVec // labels: result={hit,miss}
	GeocodeRequests   *prometheus.CounterVec // labels: outcome={success,error,empty}
	GeocodeCache      *prometheus.CounterVec // labels: result={hit,miss}
	GeocodeDuration   prometheus.Histogram
	GeocodeEnabled    prometheus.Gauge
	SentimentDuration prometheus.Histogram
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.ReportsConsumed,
		m.ReportsDropped,
		m.ParseErrors,
		m.HotspotsProduced,
		m.PipelineRunning,
		m.BatchSize,
		m.DetectionDuration,
		m.FeedRequests,
		m.SentimentRequests,
		m.SentimentCache,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeDuration,
		m.GeocodeEnabled,
		m.SentimentDuration,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		ReportsConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_consumed_total",
			Help:      "Total raw reports read from the source topic or a feed.",
		}),
		ReportsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_dropped_total",
			Help:      "Reports filtered out before clustering, by reason.",
		}, []string{"reason"}),
		ParseErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "parse_errors_total",
			Help:      "Source messages that could not be decoded into a report.",
		}),
		HotspotsProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hotspots_produced_total",
			Help:      "Total hotspots emitted.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_size",
			Help:      "Number of messages per batch extracted from Kafka.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		DetectionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "detection_duration_seconds",
			Help:      "Duration of a complete extract-detect-publish cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		FeedRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_requests_total",
			Help:      "Feed searches by source and outcome.",
		}, []string{"source", "outcome"}),
		SentimentRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sentiment_requests_total",
			Help:      "Sentiment service requests by outcome.",
		}, []string{"outcome"}),
		SentimentCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sentiment_cache_total",
			Help:      "Sentiment cache lookups by result.",
		}, []string{"result"}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_requests_total",
			Help:      "Geocoding API requests by outcome.",
		}, []string{"outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by result.",
		}, []string{"result"}),
		GeocodeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "geocode_api_duration_seconds",
			Help:      "Mapbox API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		GeocodeEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "geocode_enabled",
			Help:      "1 when place-name geocoding is enabled, 0 otherwise.",
		}),
		SentimentDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sentiment_api_duration_seconds",
			Help:      "Sentiment service request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
	}
}
