package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"play_grabar/internal/domain"
)

// GrabService runs one fetch end to end and fans the finalized collection
// out to the configured sinks: the review store, the JSON file sink, and
// cache invalidation so readers see the fresh grab. Repo and sink are
// optional; a nil collaborator is skipped.
type GrabService struct {
	fetch  *FetchService
	repo   domain.ReviewRepository
	sink   domain.ResultSink
	cache  domain.Cache
	layout string
}

func NewGrabService(f *FetchService, r domain.ReviewRepository, s domain.ResultSink, c domain.Cache, layout string) *GrabService {
	return &GrabService{fetch: f, repo: r, sink: s, cache: c, layout: layout}
}

// GrabApp fetches, persists, and returns how many records were kept.
func (s *GrabService) GrabApp(ctx context.Context, appID string, langs []string, cutoff time.Time, pageSize int) (int, error) {
	langs = NormalizeLanguages(langs)

	rs, err := s.fetch.FetchNewest(ctx, appID, langs, cutoff, pageSize)
	if err != nil {
		return 0, err
	}

	if s.repo != nil {
		if err := s.repo.UpsertReviews(ctx, rs); err != nil {
			// surface this; silent insert failures are how grabs rot
			return 0, fmt.Errorf("upsert reviews failed for %s: %w", appID, err)
		}
		if err := s.repo.LogFetch(ctx, domain.FetchLog{
			AppID:     appID,
			Languages: strings.Join(langs, ","),
			Cutoff:    cutoff,
			Records:   len(rs),
		}); err != nil {
			log.Warn().Str("app", appID).Err(err).Msg("fetch log write failed")
		}
	}

	if s.sink != nil {
		if err := s.sink.Write(ctx, appID, Normalize(rs, s.layout)); err != nil {
			return 0, fmt.Errorf("write results for %s: %w", appID, err)
		}
	}

	// A fresh grab supersedes whatever readers cached for this request shape.
	if s.cache != nil {
		_ = s.cache.Del(ctx, cacheKey(appID, langs, cutoff))
	}
	return len(rs), nil
}
