package domain

import "context"

// ReviewSource is a language-scoped, cursor-paginated review feed.
// Pages come back in the feed's natural order (generally newest first, not
// contractually guaranteed). An empty page or an empty next cursor signals
// end-of-feed for that language. The source does not retry on its own behalf
// beyond transport-level policy; errors propagate to the caller.
type ReviewSource interface {
	FetchPage(ctx context.Context, appID, lang string, pageSize int, cursor string) (page []Review, next string, err error)
}

type ReviewRepository interface {
	// Write paths
	UpsertReviews(ctx context.Context, rs []Review) error
	LogFetch(ctx context.Context, f FetchLog) error

	// Read paths
	ListReviews(ctx context.Context, appID string, pg PageQuery) (ReviewsPage, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

// Notifier delivers a finalized collection to an external endpoint.
type Notifier interface {
	Notify(ctx context.Context, url string, payload any) error
}

// ResultSink persists a finalized collection under an app identifier.
type ResultSink interface {
	Write(ctx context.Context, appID string, payload any) error
}

// Read models & queries

type PageQuery struct {
	Limit int
	Sort  string
}

type ReviewsPage struct {
	Items []Review
}
