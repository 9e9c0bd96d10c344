package app

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"play_grabar/internal/domain"
)

type QueryService struct {
	fetch    *FetchService
	cache    domain.Cache
	cacheTTL time.Duration
	layout   string // output timestamp layout
}

func NewQueryService(f *FetchService, c domain.Cache, ttl time.Duration, layout string) *QueryService {
	return &QueryService{fetch: f, cache: c, cacheTTL: ttl, layout: layout}
}

func cacheKey(appID string, langs []string, cutoff time.Time) string {
	return fmt.Sprintf("reviews:%s:%s:%s",
		appID, strings.Join(langs, ","), cutoff.UTC().Format(time.RFC3339))
}

// NewestReviews returns the normalized collection for the request,
// cache-aside. The key covers app, normalized language order, and cutoff, so
// equivalent requests share an entry.
func (s *QueryService) NewestReviews(ctx context.Context, appID string, langs []string, cutoff time.Time, pageSize int) ([]ReviewJSON, error) {
	langs = NormalizeLanguages(langs)
	key := cacheKey(appID, langs, cutoff)

	var out []ReviewJSON
	if ok, _ := s.cache.Get(ctx, key, &out); ok {
		return out, nil
	}

	rs, err := s.fetch.FetchNewest(ctx, appID, langs, cutoff, pageSize)
	if err != nil {
		return nil, err
	}
	out = Normalize(rs, s.layout)

	// optional size guard
	if b, _ := json.Marshal(out); len(b) < 1_000_000 {
		_ = s.cache.Set(ctx, key, out, int(s.cacheTTL.Seconds()))
	}
	return out, nil
}

// NewestSummaries is the compact projection of the same fetch. Summaries are
// small and cheap to rebuild, so they skip the cache.
func (s *QueryService) NewestSummaries(ctx context.Context, appID string, langs []string, cutoff time.Time, pageSize int) ([]ReviewSummary, error) {
	rs, err := s.fetch.FetchNewest(ctx, appID, langs, cutoff, pageSize)
	if err != nil {
		return nil, err
	}
	return Summaries(rs, s.layout), nil
}
