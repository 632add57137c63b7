// Package sentiment classifies report text through a hosted text
// classification endpoint.
package sentiment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/hazard-hotspot-service/internal/domain"
	"github.com/couchcryptid/hazard-hotspot-service/internal/observability"
)

// ErrNoLabels is returned when the endpoint answers without any label.
var ErrNoLabels = errors.New("sentiment response contained no labels")

// Client implements domain.SentimentAnalyzer against an inference endpoint
// that accepts {"inputs": text} and answers with scored labels.
type Client struct {
	url        string
	token      string
	httpClient *http.Client
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a sentiment client. The token is sent as a bearer token
// when non-empty.
func NewClient(url, token string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		url:        url,
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
		metrics:    metrics,
		logger:     logger,
	}
}

// Analyze returns the highest-scoring label for text.
func (c *Client) Analyze(ctx context.Context, text string) (domain.Sentiment, error) {
	start := time.Now()
	result, err := c.doRequest(ctx, text)
	c.metrics.SentimentDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		c.metrics.SentimentRequests.WithLabelValues("error").Inc()
		return domain.Sentiment{}, err
	}
	c.metrics.SentimentRequests.WithLabelValues("success").Inc()
	c.logger.Debug("sentiment analyzed", "label", result.Label, "score", result.Score)
	return result, nil
}

func (c *Client) doRequest(ctx context.Context, text string) (domain.Sentiment, error) {
	body, err := json.Marshal(request{Inputs: text})
	if err != nil {
		return domain.Sentiment{}, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return domain.Sentiment{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Sentiment{}, fmt.Errorf("sentiment request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return domain.Sentiment{}, fmt.Errorf("sentiment API error: status %d: %s", resp.StatusCode, msg)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.Sentiment{}, fmt.Errorf("read response: %w", err)
	}
	labels, err := decodeLabels(raw)
	if err != nil {
		return domain.Sentiment{}, err
	}
	return best(labels)
}

// decodeLabels accepts both the nested [[{label,score}]] shape returned for
// a single input and the flat [{label,score}] shape.
func decodeLabels(raw []byte) ([]label, error) {
	var nested [][]label
	if err := json.Unmarshal(raw, &nested); err == nil {
		var flat []label
		for _, group := range nested {
			flat = append(flat, group...)
		}
		return flat, nil
	}
	var flat []label
	if err := json.Unmarshal(raw, &flat); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return flat, nil
}

func best(labels []label) (domain.Sentiment, error) {
	if len(labels) == 0 {
		return domain.Sentiment{}, ErrNoLabels
	}
	top := labels[0]
	for _, l := range labels[1:] {
		if l.Score > top.Score {
			top = l
		}
	}
	return domain.Sentiment{Label: top.Label, Score: top.Score}, nil
}

type request struct {
	Inputs string `json:"inputs"`
}

type label struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}
