package mapbox

import (
	"context"
	"strings"

	"github.com/couchcryptid/hazard-hotspot-service/internal/cache"
	"github.com/couchcryptid/hazard-hotspot-service/internal/domain"
	"github.com/couchcryptid/hazard-hotspot-service/internal/observability"
)

// CachedGeocoder wraps a PlaceGeocoder with an in-memory LRU cache.
type CachedGeocoder struct {
	inner   domain.PlaceGeocoder
	cache   *cache.LRU[domain.GeocodingResult]
	metrics *observability.Metrics
}

// NewCachedGeocoder creates a cache decorator around a geocoder.
func NewCachedGeocoder(inner domain.PlaceGeocoder, maxEntries int, metrics *observability.Metrics) *CachedGeocoder {
	return &CachedGeocoder{
		inner:   inner,
		cache:   cache.NewLRU[domain.GeocodingResult](maxEntries),
		metrics: metrics,
	}
}

func (c *CachedGeocoder) ForwardGeocode(ctx context.Context, name string) (domain.GeocodingResult, error) {
	key := "fwd:" + strings.ToLower(strings.TrimSpace(name))
	if result, ok := c.cache.Get(key); ok {
		c.metrics.GeocodeCache.WithLabelValues("hit").Inc()
		return result, nil
	}
	c.metrics.GeocodeCache.WithLabelValues("miss").Inc()

	result, err := c.inner.ForwardGeocode(ctx, name)
	if err != nil {
		return result, err
	}
	// Only cache non-empty results so transient "not found" responses can be retried.
	if result.Lat != 0 || result.Lon != 0 {
		c.cache.Put(key, result)
	}
	return result, nil
}
