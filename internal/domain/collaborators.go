package domain

import "context"

// FeedSource searches a social or news feed for recent reports matching a
// query. Implementations return at most limit reports along with any place
// records the reports reference.
type FeedSource interface {
	Search(ctx context.Context, query string, limit int) (Batch, error)
}

// SentimentAnalyzer classifies free text into a sentiment label.
type SentimentAnalyzer interface {
	Analyze(ctx context.Context, text string) (Sentiment, error)
}
