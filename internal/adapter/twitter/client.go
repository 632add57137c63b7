// Package twitter searches the X (Twitter) v2 recent-search API for
// geotagged hazard reports.
package twitter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/couchcryptid/hazard-hotspot-service/internal/domain"
	"github.com/couchcryptid/hazard-hotspot-service/internal/observability"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	sourceName = "twitter"

	// The recent-search endpoint accepts max_results between 10 and 100.
	minPageSize = 10
	maxPageSize = 100
)

// Credentials authenticate app-only requests: either a bearer token, or an
// API key and secret exchanged for one through the client-credentials grant.
type Credentials struct {
	BearerToken string
	APIKey      string
	APISecret   string
}

// Client implements domain.FeedSource using the recent-search endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a search client against api.twitter.com.
func NewClient(creds Credentials, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return newClient(creds, "https://api.twitter.com", timeout, metrics, logger)
}

func newClient(creds Credentials, host string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	base := &http.Client{Timeout: timeout}
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)

	var ts oauth2.TokenSource
	if creds.BearerToken != "" {
		ts = oauth2.StaticTokenSource(&oauth2.Token{AccessToken: creds.BearerToken, TokenType: "Bearer"})
	} else {
		cc := &clientcredentials.Config{
			ClientID:     creds.APIKey,
			ClientSecret: creds.APISecret,
			TokenURL:     host + "/oauth2/token",
		}
		ts = cc.TokenSource(ctx)
	}

	httpClient := oauth2.NewClient(ctx, ts)
	httpClient.Timeout = timeout
	return &Client{
		httpClient: httpClient,
		baseURL:    host + "/2",
		metrics:    metrics,
		logger:     logger,
	}
}

// Search returns up to limit original (non-retweet) posts that match query
// and carry geo data, plus the places they reference.
func (c *Client) Search(ctx context.Context, query string, limit int) (domain.Batch, error) {
	params := url.Values{
		"query":        {query + " -is:retweet has:geo"},
		"tweet.fields": {"geo,text"},
		"expansions":   {"geo.place_id"},
		"place.fields": {"geo,full_name"},
		"max_results":  {strconv.Itoa(min(max(limit, minPageSize), maxPageSize))},
	}

	resp, err := c.doRequest(ctx, c.baseURL+"/tweets/search/recent?"+params.Encode())
	if err != nil {
		c.metrics.FeedRequests.WithLabelValues(sourceName, "error").Inc()
		return domain.Batch{}, err
	}
	c.metrics.FeedRequests.WithLabelValues(sourceName, "success").Inc()

	batch := toBatch(resp, limit)
	c.logger.Debug("twitter search complete",
		"query", query,
		"reports", len(batch.Reports),
		"places", len(batch.Places),
	)
	return batch, nil
}

func (c *Client) doRequest(ctx context.Context, fullURL string) (searchResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return searchResponse{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return searchResponse{}, fmt.Errorf("twitter search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return searchResponse{}, fmt.Errorf("twitter API error: status %d: %s", resp.StatusCode, body)
	}

	var out searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return searchResponse{}, fmt.Errorf("decode response: %w", err)
	}
	return out, nil
}

// toBatch maps the API response into a domain batch, keeping at most limit
// reports.
func toBatch(resp searchResponse, limit int) domain.Batch {
	batch := domain.Batch{
		Reports: make([]domain.RawReport, 0, len(resp.Data)),
		Places:  make(map[string]domain.Place, len(resp.Includes.Places)),
	}
	for _, p := range resp.Includes.Places {
		batch.Places[p.ID] = domain.Place{ID: p.ID, FullName: p.FullName, BBox: p.Geo.BBox}
	}
	for _, tw := range resp.Data {
		if limit > 0 && len(batch.Reports) >= limit {
			break
		}
		raw := domain.RawReport{ID: tw.ID, Text: tw.Text, Source: sourceName}
		if tw.Geo != nil {
			raw.PlaceID = tw.Geo.PlaceID
			if pt := tw.Geo.Coordinates; pt != nil && len(pt.Coordinates) == 2 {
				// GeoJSON order is [lng, lat].
				raw.Coordinates = &domain.Position{Lat: pt.Coordinates[1], Lng: pt.Coordinates[0]}
			}
		}
		batch.Reports = append(batch.Reports, raw)
	}
	return batch
}

// Recent-search response types.

type searchResponse struct {
	Data     []tweet  `json:"data"`
	Includes includes `json:"includes"`
}

type tweet struct {
	ID   string    `json:"id"`
	Text string    `json:"text"`
	Geo  *tweetGeo `json:"geo"`
}

type tweetGeo struct {
	PlaceID     string `json:"place_id"`
	Coordinates *point `json:"coordinates"`
}

type point struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

type includes struct {
	Places []place `json:"places"`
}

type place struct {
	ID       string   `json:"id"`
	FullName string   `json:"full_name"`
	Geo      placeGeo `json:"geo"`
}

type placeGeo struct {
	BBox []float64 `json:"bbox"` // [west, south, east, north]
}
