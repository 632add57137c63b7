package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/hazard-hotspot-service/internal/domain"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	maxLimit       = 100
	maxRequestBody = 64 << 10
)

// Detector turns a batch of raw reports into hotspots.
type Detector interface {
	Detect(ctx context.Context, batch domain.Batch) domain.Detection
}

// Services are the collaborators behind the query endpoints. Feed and
// Sentiment are optional; their endpoints answer 503 when unset.
type Services struct {
	Detector     Detector
	Feed         domain.FeedSource
	Sentiment    domain.SentimentAnalyzer
	DefaultQuery string
	DefaultLimit int
}

// Server exposes the hotspot query API alongside health, readiness, and
// metrics endpoints.
type Server struct {
	httpServer *http.Server
	services   Services
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics,
// /hotspots, and /analyze-sentiment routes.
func NewServer(addr string, ready sharedobs.ReadinessChecker, services Services, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      withCORS(mux),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		services: services,
		logger:   logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /hotspots", s.handleHotspots)
	mux.HandleFunc("GET /get-hotspots", s.handleHotspots)
	mux.HandleFunc("POST /analyze-sentiment", s.handleSentiment)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

// handleHotspots searches the feed and returns the detected hotspots. Feed
// failures are logged and answered with an empty list.
func (s *Server) handleHotspots(w http.ResponseWriter, r *http.Request) {
	if s.services.Feed == nil || s.services.Detector == nil {
		writeError(w, http.StatusServiceUnavailable, "no feed source configured")
		return
	}

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		query = s.services.DefaultQuery
	}
	limit := s.services.DefaultLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxLimit {
			writeError(w, http.StatusBadRequest, "limit must be an integer between 1 and 100")
			return
		}
		limit = n
	}

	batch, err := s.services.Feed.Search(r.Context(), query, limit)
	if err != nil {
		s.logger.Warn("feed search failed", "error", err, "query", query)
		batch = domain.Batch{}
	}

	det := s.services.Detector.Detect(r.Context(), batch)
	hotspots := det.Hotspots
	if hotspots == nil {
		hotspots = []domain.Hotspot{}
	}
	s.logger.Info("hotspots served",
		"query", query,
		"received", det.Received,
		"hotspots", len(hotspots),
	)
	sharedobs.WriteJSON(w, http.StatusOK, hotspots)
}

type sentimentRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleSentiment(w http.ResponseWriter, r *http.Request) {
	var req sentimentRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "no text provided")
		return
	}
	if s.services.Sentiment == nil {
		writeError(w, http.StatusServiceUnavailable, "no sentiment analyzer configured")
		return
	}

	result, err := s.services.Sentiment.Analyze(r.Context(), req.Text)
	if err != nil {
		s.logger.Error("sentiment analysis failed", "error", err)
		writeError(w, http.StatusBadGateway, "sentiment analysis failed")
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, result)
}

// withCORS allows browser front-ends served from other origins to call the API.
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Headers", "Content-Type")
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	sharedobs.WriteJSON(w, status, map[string]string{"error": msg})
}
