// Package rss reads hazard reports from RSS and Atom feeds that carry
// GeoRSS or W3C geo positions.
package rss

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/couchcryptid/hazard-hotspot-service/internal/domain"
	"github.com/couchcryptid/hazard-hotspot-service/internal/observability"
	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"
	"golang.org/x/text/cases"
)

const sourceName = "rss"

// Source implements domain.FeedSource over a fixed list of feed URLs.
type Source struct {
	urls    []string
	parser  *gofeed.Parser
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewSource creates a feed source. Each feed is fetched with the given
// timeout.
func NewSource(urls []string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Source {
	parser := gofeed.NewParser()
	parser.Client = &http.Client{Timeout: timeout}
	return &Source{urls: urls, parser: parser, metrics: metrics, logger: logger}
}

// Search reads every configured feed and returns up to limit items whose
// title or description mention query. An empty query matches every item.
// Feeds that fail are logged and skipped; an error is returned only when
// every feed fails.
func (s *Source) Search(ctx context.Context, query string, limit int) (domain.Batch, error) {
	batch := domain.Batch{Places: make(map[string]domain.Place)}
	needle := fold(strings.TrimSpace(query))

	var failures []error
	for _, u := range s.urls {
		feed, err := s.parser.ParseURLWithContext(u, ctx)
		if err != nil {
			s.metrics.FeedRequests.WithLabelValues(sourceName, "error").Inc()
			s.logger.Warn("feed fetch failed", "url", u, "error", err)
			failures = append(failures, fmt.Errorf("fetch %s: %w", u, err))
			continue
		}
		s.metrics.FeedRequests.WithLabelValues(sourceName, "success").Inc()

		for _, item := range feed.Items {
			if limit > 0 && len(batch.Reports) >= limit {
				return batch, nil
			}
			raw, ok := toReport(item)
			if !ok || !strings.Contains(fold(raw.Text), needle) {
				continue
			}
			batch.Reports = append(batch.Reports, raw)
		}
	}

	if len(failures) > 0 && len(failures) == len(s.urls) {
		return domain.Batch{}, errors.Join(failures...)
	}
	s.logger.Debug("rss search complete", "query", query, "feeds", len(s.urls), "reports", len(batch.Reports))
	return batch, nil
}

// toReport maps a feed item to a raw report. Items without any text are
// skipped.
func toReport(item *gofeed.Item) (domain.RawReport, bool) {
	text := strings.TrimSpace(item.Title)
	body := item.Description
	if body == "" {
		body = item.Content
	}
	if body = stripHTML(body); body != "" {
		text = strings.TrimSpace(text + " " + body)
	}
	if text == "" {
		return domain.RawReport{}, false
	}

	id := item.GUID
	if id == "" {
		id = item.Link
	}
	raw := domain.RawReport{ID: id, Text: text, Source: sourceName}

	if pos, ok := geoRSSPoint(item.Extensions); ok {
		raw.Coordinates = &pos
	} else if pos, ok := w3cGeoPoint(item.Extensions); ok {
		raw.Coordinates = &pos
	}
	if bbox, ok := geoRSSBox(item.Extensions); ok {
		raw.Place = &domain.Place{BBox: bbox}
	}
	if name := extValue(item.Extensions, "georss", "featurename"); name != "" {
		raw.PlaceName = name
		if raw.Place != nil {
			raw.Place.FullName = name
		}
	}
	return raw, true
}

// geoRSSPoint reads <georss:point>lat lng</georss:point>.
func geoRSSPoint(exts ext.Extensions) (domain.Position, bool) {
	nums, ok := parseFloats(extValue(exts, "georss", "point"), 2)
	if !ok {
		return domain.Position{}, false
	}
	pos := domain.Position{Lat: nums[0], Lng: nums[1]}
	return pos, pos.Valid()
}

// w3cGeoPoint reads <geo:lat> and <geo:long>.
func w3cGeoPoint(exts ext.Extensions) (domain.Position, bool) {
	lat, err := strconv.ParseFloat(extValue(exts, "geo", "lat"), 64)
	if err != nil {
		return domain.Position{}, false
	}
	lng, err := strconv.ParseFloat(extValue(exts, "geo", "long"), 64)
	if err != nil {
		return domain.Position{}, false
	}
	pos := domain.Position{Lat: lat, Lng: lng}
	return pos, pos.Valid()
}

// geoRSSBox reads <georss:box>south west north east</georss:box> and returns
// it in [west, south, east, north] order.
func geoRSSBox(exts ext.Extensions) ([]float64, bool) {
	nums, ok := parseFloats(extValue(exts, "georss", "box"), 4)
	if !ok {
		return nil, false
	}
	return []float64{nums[1], nums[0], nums[3], nums[2]}, true
}

func extValue(exts ext.Extensions, prefix, name string) string {
	values := exts[prefix][name]
	if len(values) == 0 {
		return ""
	}
	return strings.TrimSpace(values[0].Value)
}

func parseFloats(s string, n int) ([]float64, bool) {
	fields := strings.Fields(strings.ReplaceAll(s, ",", " "))
	if len(fields) != n {
		return nil, false
	}
	out := make([]float64, n)
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}

func stripHTML(s string) string {
	if !strings.ContainsRune(s, '<') {
		return strings.Join(strings.Fields(s), " ")
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.Join(strings.Fields(s), " ")
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

func fold(s string) string {
	return cases.Fold().String(s)
}
