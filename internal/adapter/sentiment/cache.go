package sentiment

import (
	"context"
	"strings"

	"github.com/couchcryptid/hazard-hotspot-service/internal/cache"
	"github.com/couchcryptid/hazard-hotspot-service/internal/domain"
	"github.com/couchcryptid/hazard-hotspot-service/internal/observability"
)

// CachedAnalyzer wraps a SentimentAnalyzer with an in-memory LRU cache keyed
// by the trimmed input text. The trimmed text is also what the inner analyzer
// receives.
type CachedAnalyzer struct {
	inner   domain.SentimentAnalyzer
	cache   *cache.LRU[domain.Sentiment]
	metrics *observability.Metrics
}

// NewCachedAnalyzer creates a cache decorator around an analyzer.
func NewCachedAnalyzer(inner domain.SentimentAnalyzer, maxEntries int, metrics *observability.Metrics) *CachedAnalyzer {
	return &CachedAnalyzer{
		inner:   inner,
		cache:   cache.NewLRU[domain.Sentiment](maxEntries),
		metrics: metrics,
	}
}

func (c *CachedAnalyzer) Analyze(ctx context.Context, text string) (domain.Sentiment, error) {
	key := strings.TrimSpace(text)
	if s, ok := c.cache.Get(key); ok {
		c.metrics.SentimentCache.WithLabelValues("hit").Inc()
		return s, nil
	}
	c.metrics.SentimentCache.WithLabelValues("miss").Inc()

	s, err := c.inner.Analyze(ctx, key)
	if err != nil {
		return s, err
	}
	c.cache.Put(key, s)
	return s, nil
}
