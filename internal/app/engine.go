package app

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"play_grabar/internal/adapters/observability"
	"play_grabar/internal/domain"
)

const DefaultPageSize = 100

// FetchService walks a paginated review feed per language, filters by the
// caller's cutoff, deduplicates across pages and languages, and returns one
// merged collection sorted newest first.
type FetchService struct {
	src domain.ReviewSource
}

func NewFetchService(src domain.ReviewSource) *FetchService {
	return &FetchService{src: src}
}

// NormalizeLanguages lower-cases codes and drops repeats, keeping first-seen
// order. An empty input falls back to English.
func NormalizeLanguages(langs []string) []string {
	out := make([]string, 0, len(langs))
	seen := make(map[string]struct{}, len(langs))
	for _, l := range langs {
		l = strings.ToLower(strings.TrimSpace(l))
		if l == "" {
			continue
		}
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	if len(out) == 0 {
		out = []string{"en"}
	}
	return out
}

// FetchNewest fetches every review created at or after cutoff for the given
// languages. Languages paginate independently and concurrently; the merge
// runs after all of them complete. On any source error the sibling fetches
// are cancelled and the error is returned with no partial results.
//
// Given a stable feed and identical arguments the result is identical:
// dedup keeps the first record per reviewId in language order, and the final
// sort is stable on CreatedAt descending.
func (s *FetchService) FetchNewest(ctx context.Context, appID string, langs []string, cutoff time.Time, pageSize int) ([]domain.Review, error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	langs = NormalizeLanguages(langs)

	log.Info().
		Str("app", appID).
		Strs("langs", langs).
		Time("cutoff", cutoff).
		Msg("fetching reviews")

	// indexed by language position so the merge order matches the request
	perLang := make([][]domain.Review, len(langs))

	g, gctx := errgroup.WithContext(ctx)
	for i, lang := range langs {
		i, lang := i, lang
		g.Go(func() error {
			rs, err := s.fetchLanguage(gctx, appID, lang, cutoff, pageSize)
			if err != nil {
				return err
			}
			perLang[i] = rs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var merged []domain.Review
	for _, rs := range perLang {
		merged = append(merged, rs...)
	}
	merged = dedupe(merged)
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].CreatedAt.After(merged[j].CreatedAt)
	})
	return merged, nil
}

// fetchLanguage pages through one language bucket. The loop keeps going
// while every record in a page is at/after the cutoff. The first page that
// crosses the cutoff flips final: one more page is fetched and filtered
// before stopping, in case the feed's near-chronological order stranded a
// newer record behind an older one at a page boundary.
func (s *FetchService) fetchLanguage(ctx context.Context, appID, lang string, cutoff time.Time, pageSize int) ([]domain.Review, error) {
	var (
		out    []domain.Review
		cursor string
		final  bool
	)
	for {
		page, next, err := s.src.FetchPage(ctx, appID, lang, pageSize, cursor)
		if err != nil {
			return nil, &domain.SourceError{Lang: lang, Cursor: cursor, Err: err}
		}
		if len(page) == 0 {
			break
		}

		kept := 0
		for _, r := range page {
			if r.CreatedAt.Before(cutoff) {
				continue
			}
			r.AppID = appID
			r.Language = lang
			out = append(out, r)
			kept++
		}

		if final || next == "" {
			break
		}
		if kept < len(page) {
			final = true // cutoff crossed mid-page; one extra page, then stop
		}
		cursor = next
	}
	observability.ObserveReviewsKept(appID, lang, len(out))
	return out, nil
}

// dedupe keeps the first record per reviewId. On a cross-language duplicate
// the retained Language tag is whichever bucket was processed first.
func dedupe(rs []domain.Review) []domain.Review {
	out := rs[:0]
	seen := make(map[string]struct{}, len(rs))
	for _, r := range rs {
		if _, ok := seen[r.ID]; ok {
			continue
		}
		seen[r.ID] = struct{}{}
		out = append(out, r)
	}
	return out
}
