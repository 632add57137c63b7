package config

import (
	"testing"
	"time"

	"github.com/couchcryptid/hazard-hotspot-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	defaultBroker    = "localhost:9092"
	testMapboxToken  = "pk.test-token"
	testTwitterToken = "AAAA-test-bearer"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{defaultBroker}, cfg.KafkaBrokers)
	assert.Equal(t, "raw-hazard-reports", cfg.KafkaSourceTopic)
	assert.Equal(t, "hazard-hotspots", cfg.KafkaSinkTopic)
	assert.Equal(t, "hazard-hotspots", cfg.KafkaGroupID)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 50, cfg.BatchSize)
	assert.Equal(t, 500*time.Millisecond, cfg.BatchFlushInterval)

	assert.InDelta(t, 1.5, cfg.ClusterEps, 1e-9)
	assert.Equal(t, 2, cfg.ClusterMinSamples)
	assert.Equal(t, domain.DefaultCellResolution, cfg.HotspotCellResolution)
	assert.Empty(t, cfg.VocabularyFile)

	assert.Equal(t, FeedSourceNone, cfg.FeedSource)
	assert.Equal(t, "flood", cfg.FeedDefaultQuery)
	assert.Equal(t, 50, cfg.FeedMaxResults)
	assert.Equal(t, 10*time.Second, cfg.TwitterTimeout)
	assert.Empty(t, cfg.RSSFeedURLs)
	assert.Equal(t, 10*time.Second, cfg.RSSTimeout)

	assert.Empty(t, cfg.SentimentURL)
	assert.Equal(t, 10*time.Second, cfg.SentimentTimeout)
	assert.Equal(t, 1000, cfg.SentimentCacheSize)

	assert.False(t, cfg.MapboxEnabled)
	assert.Empty(t, cfg.MapboxToken)
	assert.Equal(t, 5*time.Second, cfg.MapboxTimeout)
	assert.Equal(t, 1000, cfg.MapboxCacheSize)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_SOURCE_TOPIC", "custom-source")
	t.Setenv("KAFKA_SINK_TOPIC", "custom-sink")
	t.Setenv("KAFKA_GROUP_ID", "custom-group")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("BATCH_SIZE", "100")
	t.Setenv("BATCH_FLUSH_INTERVAL", "1s")
	t.Setenv("CLUSTER_EPS", "0.75")
	t.Setenv("CLUSTER_MIN_SAMPLES", "3")
	t.Setenv("HOTSPOT_CELL_RESOLUTION", "-1")
	t.Setenv("VOCABULARY_FILE", "/etc/hotspots/vocab.yaml")
	t.Setenv("TWITTER_BEARER_TOKEN", testTwitterToken)
	t.Setenv("TWITTER_TIMEOUT", "3s")
	t.Setenv("FEED_DEFAULT_QUERY", "cyclone")
	t.Setenv("FEED_MAX_RESULTS", "100")
	t.Setenv("SENTIMENT_URL", "http://inference.local/models/sentiment")
	t.Setenv("SENTIMENT_TOKEN", "hf_test")
	t.Setenv("SENTIMENT_TIMEOUT", "2s")
	t.Setenv("SENTIMENT_CACHE_SIZE", "25")
	t.Setenv("MAPBOX_TOKEN", testMapboxToken)
	t.Setenv("MAPBOX_TIMEOUT", "10s")
	t.Setenv("MAPBOX_CACHE_SIZE", "500")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "custom-source", cfg.KafkaSourceTopic)
	assert.Equal(t, "custom-sink", cfg.KafkaSinkTopic)
	assert.Equal(t, "custom-group", cfg.KafkaGroupID)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 100, cfg.BatchSize)
	assert.Equal(t, 1*time.Second, cfg.BatchFlushInterval)
	assert.InDelta(t, 0.75, cfg.ClusterEps, 1e-9)
	assert.Equal(t, 3, cfg.ClusterMinSamples)
	assert.Equal(t, -1, cfg.HotspotCellResolution)
	assert.Equal(t, "/etc/hotspots/vocab.yaml", cfg.VocabularyFile)
	assert.Equal(t, FeedSourceTwitter, cfg.FeedSource)
	assert.Equal(t, testTwitterToken, cfg.TwitterBearerToken)
	assert.Equal(t, 3*time.Second, cfg.TwitterTimeout)
	assert.Equal(t, "cyclone", cfg.FeedDefaultQuery)
	assert.Equal(t, 100, cfg.FeedMaxResults)
	assert.Equal(t, "http://inference.local/models/sentiment", cfg.SentimentURL)
	assert.Equal(t, "hf_test", cfg.SentimentToken)
	assert.Equal(t, 2*time.Second, cfg.SentimentTimeout)
	assert.Equal(t, 25, cfg.SentimentCacheSize)
	assert.True(t, cfg.MapboxEnabled)
	assert.Equal(t, testMapboxToken, cfg.MapboxToken)
	assert.Equal(t, 10*time.Second, cfg.MapboxTimeout)
	assert.Equal(t, 500, cfg.MapboxCacheSize)
}

func TestLoad_InvalidShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_InvalidBatchSize(t *testing.T) {
	t.Setenv("BATCH_SIZE", "0")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BATCH_SIZE")
}

func TestLoad_InvalidBatchFlushInterval(t *testing.T) {
	t.Setenv("BATCH_FLUSH_INTERVAL", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BATCH_FLUSH_INTERVAL")
}

func TestLoad_InvalidClusterParams(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"zero eps", "CLUSTER_EPS", "0"},
		{"negative eps", "CLUSTER_EPS", "-2"},
		{"NaN eps", "CLUSTER_EPS", "NaN"},
		{"non-numeric eps", "CLUSTER_EPS", "wide"},
		{"zero min samples", "CLUSTER_MIN_SAMPLES", "0"},
		{"non-numeric min samples", "CLUSTER_MIN_SAMPLES", "two"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestLoad_InvalidCellResolution(t *testing.T) {
	t.Setenv("HOTSPOT_CELL_RESOLUTION", "16")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HOTSPOT_CELL_RESOLUTION")
}

func TestLoad_InvalidFeedMaxResults(t *testing.T) {
	t.Setenv("FEED_MAX_RESULTS", "500")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FEED_MAX_RESULTS")
}

func TestLoad_InvalidTimeouts(t *testing.T) {
	for _, key := range []string{"MAPBOX_TIMEOUT", "TWITTER_TIMEOUT", "RSS_TIMEOUT", "SENTIMENT_TIMEOUT"} {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, "bad")
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), key)
		})
	}
}

func TestLoad_FeedSourceSelection(t *testing.T) {
	t.Run("rss implied by urls", func(t *testing.T) {
		t.Setenv("RSS_FEED_URLS", "https://a.example/rss, https://b.example/atom")
		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, FeedSourceRSS, cfg.FeedSource)
		assert.Equal(t, []string{"https://a.example/rss", "https://b.example/atom"}, cfg.RSSFeedURLs)
	})

	t.Run("twitter without token", func(t *testing.T) {
		t.Setenv("FEED_SOURCE", "twitter")
		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "TWITTER_BEARER_TOKEN")
	})

	t.Run("twitter with key but no secret", func(t *testing.T) {
		t.Setenv("FEED_SOURCE", "twitter")
		t.Setenv("TWITTER_API_KEY", "api-key")
		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "TWITTER_API_SECRET")
	})

	t.Run("twitter implied by key and secret", func(t *testing.T) {
		t.Setenv("TWITTER_API_KEY", "api-key")
		t.Setenv("TWITTER_API_SECRET", "api-secret")
		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, FeedSourceTwitter, cfg.FeedSource)
		assert.Equal(t, "api-key", cfg.TwitterAPIKey)
		assert.Equal(t, "api-secret", cfg.TwitterAPISecret)
		assert.Empty(t, cfg.TwitterBearerToken)
	})

	t.Run("rss without urls", func(t *testing.T) {
		t.Setenv("FEED_SOURCE", "rss")
		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "RSS_FEED_URLS")
	})

	t.Run("unknown source", func(t *testing.T) {
		t.Setenv("FEED_SOURCE", "mastodon")
		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "FEED_SOURCE")
	})

	t.Run("explicit none with token", func(t *testing.T) {
		t.Setenv("TWITTER_BEARER_TOKEN", testTwitterToken)
		t.Setenv("FEED_SOURCE", "none")
		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, FeedSourceNone, cfg.FeedSource)
	})
}

func TestLoad_KafkaDisabledSkipsTopicChecks(t *testing.T) {
	t.Setenv("KAFKA_ENABLED", "false")
	t.Setenv("KAFKA_BROKERS", " ")
	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.KafkaEnabled)
}

func TestLoad_MapboxEnabledWithoutToken(t *testing.T) {
	t.Setenv("MAPBOX_ENABLED", "true")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MAPBOX_TOKEN")
}

func TestLoad_MapboxTokenImpliesEnabled(t *testing.T) {
	t.Setenv("MAPBOX_TOKEN", testMapboxToken)
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.MapboxEnabled)
}

func TestLoad_MapboxExplicitlyDisabled(t *testing.T) {
	t.Setenv("MAPBOX_TOKEN", testMapboxToken)
	t.Setenv("MAPBOX_ENABLED", "false")
	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.MapboxEnabled)
}
