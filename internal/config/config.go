package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/hazard-hotspot-service/internal/domain"
	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Feed source names accepted by FEED_SOURCE.
const (
	FeedSourceTwitter = "twitter"
	FeedSourceRSS     = "rss"
	FeedSourceNone    = "none"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	KafkaEnabled     bool
	KafkaBrokers     []string
	KafkaSourceTopic string
	KafkaSinkTopic   string
	KafkaGroupID     string
	HTTPAddr         string
	LogLevel         string
	LogFormat        string
	ShutdownTimeout  time.Duration

	BatchSize          int
	BatchFlushInterval time.Duration

	// Hotspot detection.
	ClusterEps            float64
	ClusterMinSamples     int
	HotspotCellResolution int
	VocabularyFile        string

	// Feed source configuration.
	FeedSource         string
	FeedDefaultQuery   string
	FeedMaxResults     int
	TwitterBearerToken string
	TwitterAPIKey      string
	TwitterAPISecret   string
	TwitterTimeout     time.Duration
	RSSFeedURLs        []string
	RSSTimeout         time.Duration

	// Sentiment service configuration.
	SentimentURL       string
	SentimentToken     string
	SentimentTimeout   time.Duration
	SentimentCacheSize int

	// Mapbox geocoding configuration.
	MapboxToken     string
	MapboxEnabled   bool
	MapboxTimeout   time.Duration
	MapboxCacheSize int
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	mapboxTimeout, err := parsePositiveDuration("MAPBOX_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}
	twitterTimeout, err := parsePositiveDuration("TWITTER_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	rssTimeout, err := parsePositiveDuration("RSS_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	sentimentTimeout, err := parsePositiveDuration("SENTIMENT_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	eps, err := strconv.ParseFloat(sharedcfg.EnvOrDefault("CLUSTER_EPS", "1.5"), 64)
	if err != nil || eps <= 0 || math.IsNaN(eps) || math.IsInf(eps, 0) {
		return nil, errors.New("invalid CLUSTER_EPS: must be a positive number")
	}
	minSamples, err := strconv.Atoi(sharedcfg.EnvOrDefault("CLUSTER_MIN_SAMPLES", "2"))
	if err != nil || minSamples < 1 {
		return nil, errors.New("invalid CLUSTER_MIN_SAMPLES: must be an integer >= 1")
	}
	cellRes, err := strconv.Atoi(sharedcfg.EnvOrDefault("HOTSPOT_CELL_RESOLUTION", strconv.Itoa(domain.DefaultCellResolution)))
	if err != nil || cellRes < domain.NoCellResolution || cellRes > domain.MaxCellResolution {
		return nil, fmt.Errorf("invalid HOTSPOT_CELL_RESOLUTION: must be %d (disabled) or 0-%d", domain.NoCellResolution, domain.MaxCellResolution)
	}
	maxResults, err := strconv.Atoi(sharedcfg.EnvOrDefault("FEED_MAX_RESULTS", "50"))
	if err != nil || maxResults < 1 || maxResults > 100 {
		return nil, errors.New("invalid FEED_MAX_RESULTS: must be between 1 and 100")
	}

	twitterToken := os.Getenv("TWITTER_BEARER_TOKEN")
	twitterKey := os.Getenv("TWITTER_API_KEY")
	twitterSecret := os.Getenv("TWITTER_API_SECRET")
	twitterAuth := twitterToken != "" || (twitterKey != "" && twitterSecret != "")
	rssURLs := parseList(os.Getenv("RSS_FEED_URLS"))

	mapboxToken := os.Getenv("MAPBOX_TOKEN")
	mapboxEnabled := mapboxToken != ""
	if v := os.Getenv("MAPBOX_ENABLED"); v != "" {
		mapboxEnabled = v == "true"
	}

	cfg := &Config{
		KafkaEnabled:       sharedcfg.EnvOrDefault("KAFKA_ENABLED", "true") == "true",
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic:   sharedcfg.EnvOrDefault("KAFKA_SOURCE_TOPIC", "raw-hazard-reports"),
		KafkaSinkTopic:     sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "hazard-hotspots"),
		KafkaGroupID:       sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "hazard-hotspots"),
		HTTPAddr:           sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:           sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:          sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:    shutdownTimeout,
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,

		ClusterEps:            eps,
		ClusterMinSamples:     minSamples,
		HotspotCellResolution: cellRes,
		VocabularyFile:        os.Getenv("VOCABULARY_FILE"),

		FeedSource:         sharedcfg.EnvOrDefault("FEED_SOURCE", defaultFeedSource(twitterAuth, rssURLs)),
		FeedDefaultQuery:   sharedcfg.EnvOrDefault("FEED_DEFAULT_QUERY", "flood"),
		FeedMaxResults:     maxResults,
		TwitterBearerToken: twitterToken,
		TwitterAPIKey:      twitterKey,
		TwitterAPISecret:   twitterSecret,
		TwitterTimeout:     twitterTimeout,
		RSSFeedURLs:        rssURLs,
		RSSTimeout:         rssTimeout,

		SentimentURL:       os.Getenv("SENTIMENT_URL"),
		SentimentToken:     os.Getenv("SENTIMENT_TOKEN"),
		SentimentTimeout:   sentimentTimeout,
		SentimentCacheSize: parsePositiveInt("SENTIMENT_CACHE_SIZE", 1000),

		MapboxToken:     mapboxToken,
		MapboxEnabled:   mapboxEnabled,
		MapboxTimeout:   mapboxTimeout,
		MapboxCacheSize: parsePositiveInt("MAPBOX_CACHE_SIZE", 1000),
	}

	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required")
		}
		if cfg.KafkaSourceTopic == "" {
			return nil, errors.New("KAFKA_SOURCE_TOPIC is required")
		}
		if cfg.KafkaSinkTopic == "" {
			return nil, errors.New("KAFKA_SINK_TOPIC is required")
		}
	}
	switch cfg.FeedSource {
	case FeedSourceTwitter:
		if !twitterAuth {
			return nil, errors.New("FEED_SOURCE is twitter but neither TWITTER_BEARER_TOKEN nor TWITTER_API_KEY and TWITTER_API_SECRET are set")
		}
	case FeedSourceRSS:
		if len(cfg.RSSFeedURLs) == 0 {
			return nil, errors.New("FEED_SOURCE is rss but RSS_FEED_URLS is not set")
		}
	case FeedSourceNone:
	default:
		return nil, fmt.Errorf("invalid FEED_SOURCE %q: must be twitter, rss, or none", cfg.FeedSource)
	}
	if cfg.MapboxEnabled && cfg.MapboxToken == "" {
		return nil, errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}

	return cfg, nil
}

func defaultFeedSource(twitterAuth bool, rssURLs []string) string {
	switch {
	case twitterAuth:
		return FeedSourceTwitter
	case len(rssURLs) > 0:
		return FeedSourceRSS
	default:
		return FeedSourceNone
	}
}

func parsePositiveDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, fallback))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parsePositiveInt(key string, fallback int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func parseList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
