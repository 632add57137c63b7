package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"sync"
	"syscall"

	httpadapter "github.com/couchcryptid/hazard-hotspot-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/hazard-hotspot-service/internal/adapter/kafka"
	"github.com/couchcryptid/hazard-hotspot-service/internal/adapter/mapbox"
	"github.com/couchcryptid/hazard-hotspot-service/internal/adapter/rss"
	"github.com/couchcryptid/hazard-hotspot-service/internal/adapter/sentiment"
	"github.com/couchcryptid/hazard-hotspot-service/internal/adapter/twitter"
	"github.com/couchcryptid/hazard-hotspot-service/internal/config"
	"github.com/couchcryptid/hazard-hotspot-service/internal/domain"
	"github.com/couchcryptid/hazard-hotspot-service/internal/observability"
	"github.com/couchcryptid/hazard-hotspot-service/internal/pipeline"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and, when enabled, the Kafka pipeline",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return serve(cmd.Context())
	},
}

func serve(parent context.Context) error {
	metrics := observability.NewMetrics()

	vocab, err := loadVocabulary(cfg.VocabularyFile)
	if err != nil {
		return err
	}
	clusterer, err := domain.NewClusterer(domain.ClusterParams{Eps: cfg.ClusterEps, MinSamples: cfg.ClusterMinSamples})
	if err != nil {
		return err
	}

	// Place-name geocoding is feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN.
	var geocoder domain.PlaceGeocoder
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, metrics, logger)
		geocoder = mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)
		metrics.GeocodeEnabled.Set(1)
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox geocoding disabled")
	}

	detector := pipeline.NewHotspotDetector(vocab, domain.NewGeolocator(geocoder, logger), clusterer, cfg.HotspotCellResolution, metrics, logger)

	services := httpadapter.Services{
		Detector:     detector,
		Feed:         newFeedSource(cfg, metrics),
		DefaultQuery: cfg.FeedDefaultQuery,
		DefaultLimit: cfg.FeedMaxResults,
	}
	if cfg.SentimentURL != "" {
		client := sentiment.NewClient(cfg.SentimentURL, cfg.SentimentToken, cfg.SentimentTimeout, metrics, logger)
		services.Sentiment = sentiment.NewCachedAnalyzer(client, cfg.SentimentCacheSize, metrics)
		logger.Info("sentiment analysis enabled", "cache_size", cfg.SentimentCacheSize)
	}

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		ready   sharedobs.ReadinessChecker = alwaysReady{}
		reader  *kafkaadapter.Reader
		writer  *kafkaadapter.Writer
		running sync.WaitGroup
	)
	if cfg.KafkaEnabled {
		reader = kafkaadapter.NewReader(cfg, logger)
		writer = kafkaadapter.NewWriter(cfg, logger)
		p := pipeline.New(reader, detector, writer, logger, metrics, cfg.BatchSize)
		ready = p

		running.Add(1)
		go func() {
			defer running.Done()
			if err := p.Run(ctx); err != nil {
				logger.Error("pipeline error", "error", err)
			}
		}()
	} else {
		logger.Info("kafka pipeline disabled")
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, ready, services, logger)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	running.Wait()
	if reader != nil {
		if err := reader.Close(); err != nil {
			logger.Error("kafka reader close error", "error", err)
		}
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
	return nil
}

func newFeedSource(cfg *config.Config, metrics *observability.Metrics) domain.FeedSource {
	switch cfg.FeedSource {
	case config.FeedSourceTwitter:
		logger.Info("feed source enabled", "source", "twitter")
		creds := twitter.Credentials{
			BearerToken: cfg.TwitterBearerToken,
			APIKey:      cfg.TwitterAPIKey,
			APISecret:   cfg.TwitterAPISecret,
		}
		return twitter.NewClient(creds, cfg.TwitterTimeout, metrics, logger)
	case config.FeedSourceRSS:
		logger.Info("feed source enabled", "source", "rss", "feeds", len(cfg.RSSFeedURLs))
		return rss.NewSource(cfg.RSSFeedURLs, cfg.RSSTimeout, metrics, logger)
	default:
		logger.Info("no feed source configured; /hotspots disabled")
		return nil
	}
}

func loadVocabulary(path string) (domain.Vocabulary, error) {
	if path == "" {
		return domain.DefaultVocabulary(), nil
	}
	vocab, err := domain.LoadVocabularyFile(path)
	if err != nil {
		return domain.Vocabulary{}, err
	}
	hazard, urgent, advisory := vocab.TermCounts()
	logger.Info("vocabulary loaded", "path", path,
		"hazard_terms", hazard, "urgent_terms", urgent, "advisory_terms", advisory)
	return vocab, nil
}

// alwaysReady is the readiness check when no pipeline runs.
type alwaysReady struct{}

func (alwaysReady) CheckReadiness(context.Context) error { return nil }
