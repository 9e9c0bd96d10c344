package gplay

import (
	"context"
	crand "crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"play_grabar/internal/adapters/observability"
	"play_grabar/internal/domain"
)

// Client reads the review feed of a Play-style store front. One request
// returns one page plus an opaque continuation token; an empty token means
// the feed is exhausted for that language.
type Client struct {
	base string
	hc   *http.Client
	rl   *rate.Limiter
}

func New(base string, rps int) (*Client, error) {
	if base == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		base: strings.TrimRight(base, "/"),
		hc:   &http.Client{Timeout: 20 * time.Second},
		rl:   rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

// ---- wire shapes ----

type reviewWire struct {
	ReviewID     string     `json:"reviewId"`
	At           time.Time  `json:"at"`
	Content      string     `json:"content"`
	RepliedAt    *time.Time `json:"repliedAt"`
	ReplyContent *string    `json:"replyContent"`
	Version      *string    `json:"reviewCreatedVersion"`
	Score        int        `json:"score"`
	ThumbsUp     int        `json:"thumbsUpCount"`
	UserName     *string    `json:"userName"`
	UserImage    *string    `json:"userImage"`
}

type pageWire struct {
	Reviews   []reviewWire `json:"reviews"`
	NextToken string       `json:"nextToken"`
}

// FetchPage implements domain.ReviewSource.
func (c *Client) FetchPage(ctx context.Context, appID, lang string, pageSize int, cursor string) ([]domain.Review, string, error) {
	q := url.Values{}
	q.Set("hl", lang)
	q.Set("num", strconv.Itoa(pageSize))
	q.Set("sort", "newest")
	if cursor != "" {
		q.Set("token", cursor)
	}
	u := fmt.Sprintf("%s/apps/%s/reviews?%s", c.base, url.PathEscape(appID), q.Encode())

	var out pageWire
	if err := c.get(ctx, u, "reviews", &out); err != nil {
		return nil, "", err
	}

	rs := make([]domain.Review, 0, len(out.Reviews))
	for _, w := range out.Reviews {
		r := domain.Review{
			ID:          w.ReviewID,
			AppID:       appID,
			CreatedAt:   w.At.UTC(),
			Content:     w.Content,
			AppVersion:  w.Version,
			Score:       w.Score,
			ThumbsUp:    w.ThumbsUp,
			Author:      w.UserName,
			AuthorImage: w.UserImage,
		}
		if w.RepliedAt != nil {
			at := w.RepliedAt.UTC()
			r.RepliedAt = &at
			r.ReplyContent = w.ReplyContent
		}
		rs = append(rs, r)
	}
	return rs, out.NextToken, nil
}

// ---- Internals ----

var (
	ErrNotFound     = fmt.Errorf("gplay: app %w", domain.ErrNotFound)
	ErrUnauthorized = errors.New("gplay: unauthorized")
	ErrForbidden    = errors.New("gplay: forbidden")
)

// get performs a GET with client-side rate limiting, retries, and JSON decode into out.
// Retries on 429 and transient 5xx, honoring Retry-After when provided.
func (c *Client) get(ctx context.Context, url, endpoint string, out any) error {
	// client-side rate limiting
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}

	var lastErr error
	for i := 0; i < 4; i++ {
		// build a fresh request each attempt
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "play-grabar/1.0")

		start := time.Now()
		resp, err := c.hc.Do(req)
		if err != nil {
			// network error or context canceled
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
			if i < 3 && sleepCtx(ctx, backoff(i)) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr
		}
		observability.ObserveExternal("gplay", endpoint, resp.StatusCode, time.Since(start))

		switch resp.StatusCode {
		case http.StatusOK, http.StatusCreated, http.StatusAccepted:
			// decode then close
			err := json.NewDecoder(resp.Body).Decode(out)
			resp.Body.Close()
			return err

		case http.StatusNoContent:
			// success, empty body
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			return nil

		case http.StatusNotFound:
			resp.Body.Close()
			return ErrNotFound

		case http.StatusUnauthorized:
			resp.Body.Close()
			return ErrUnauthorized

		case http.StatusForbidden:
			resp.Body.Close()
			return ErrForbidden

		case http.StatusTooManyRequests, http.StatusInternalServerError,
			http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			// Prefer server-provided Retry-After; otherwise exponential backoff.
			wait := retryAfter(resp)
			resp.Body.Close()
			if wait == 0 {
				wait = backoff(i)
			}
			lastErr = fmt.Errorf("remote %d", resp.StatusCode)
			if i < 3 && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr

		default:
			// read a small error body for diagnostics
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return fmt.Errorf("bad status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
		}
	}

	return lastErr
}

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After header (seconds or HTTP-date). Returns 0 if absent/invalid.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	// seconds form
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	// HTTP-date form
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff returns an exponential backoff delay with concurrency-safe jitter.
// i = retry attempt (0,1,2,...). Base doubles each attempt (200ms, 400ms, 800ms...),
// with up to +50% random jitter to avoid thundering herds.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	// concurrency-safe jitter using crypto/rand
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0                  // 0..1
	j := time.Duration(0.5 * f * float64(base)) // up to +50%
	return base + j
}
