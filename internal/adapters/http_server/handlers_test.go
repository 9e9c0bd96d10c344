package httpserver_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	httpserver "play_grabar/internal/adapters/http_server"
	"play_grabar/internal/app"
	"play_grabar/internal/domain"
)

// ---- fakes ----

type staticSource struct {
	reviews []domain.Review
}

func (s *staticSource) FetchPage(ctx context.Context, appID, lang string, pageSize int, cursor string) ([]domain.Review, string, error) {
	if cursor != "" {
		return nil, "", nil
	}
	return s.reviews, "", nil
}

type nopCache struct{}

func (nopCache) Get(ctx context.Context, key string, dst any) (bool, error) { return false, nil }
func (nopCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	return nil
}
func (nopCache) Del(ctx context.Context, key string) error { return nil }

type chanNotifier struct {
	got chan []app.ReviewJSON
}

func (n *chanNotifier) Notify(ctx context.Context, url string, payload any) error {
	n.got <- payload.([]app.ReviewJSON)
	return nil
}

func newTestServer(src domain.ReviewSource, notify domain.Notifier) *httptest.Server {
	q := app.NewQueryService(app.NewFetchService(src), nopCache{}, time.Minute, "02-Jan-2006, 15:04:05")
	srv := httpserver.New()
	srv.MountHandlers(&httpserver.Handlers{
		Q:          q,
		Notify:     notify,
		DateLayout: "2006-01-02",
		PageSize:   100,
		Languages:  []string{"en"},
	})
	return httptest.NewServer(srv.Mux())
}

// ---- tests ----

func TestRoot_UsageHint(t *testing.T) {
	ts := newTestServer(&staticSource{}, nil)
	defer ts.Close()

	res, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusTeapot {
		t.Fatalf("status %d", res.StatusCode)
	}
}

func TestGetReviews_InvalidDateRejectedBeforeFetch(t *testing.T) {
	ts := newTestServer(&staticSource{}, nil)
	defer ts.Close()

	res, err := http.Get(ts.URL + "/googleplay/com.kyivdigital?date=17-08-2021")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("status %d", res.StatusCode)
	}
	var p struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(res.Body).Decode(&p); err != nil {
		t.Fatalf("decode problem: %v", err)
	}
	if p.Title != "Invalid date format" {
		t.Fatalf("unexpected problem: %+v", p)
	}
}

func TestGetReviews_ReturnsNormalizedCollection(t *testing.T) {
	at := time.Date(2021, 9, 25, 10, 0, 0, 0, time.UTC)
	src := &staticSource{reviews: []domain.Review{
		{ID: "r1", CreatedAt: at, Content: "добре", Score: 5},
		{ID: "r2", CreatedAt: at.Add(-time.Hour), Content: "ok", Score: 4},
	}}
	ts := newTestServer(src, nil)
	defer ts.Close()

	res, err := http.Get(ts.URL + "/googleplay/com.kyivdigital?date=2021-08-17&lang=UK")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status %d", res.StatusCode)
	}
	if et := res.Header.Get("ETag"); et == "" {
		t.Fatalf("missing ETag")
	}

	var body []struct {
		ReviewID string `json:"reviewId"`
		At       string `json:"at"`
		Language string `json:"language"`
		Score    int    `json:"score"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body) != 2 {
		t.Fatalf("expected 2 reviews, got %d", len(body))
	}
	if body[0].ReviewID != "r1" || body[0].Language != "uk" {
		t.Fatalf("unexpected first record: %+v", body[0])
	}
	if body[0].At != "25-Sep-2021, 10:00:00" {
		t.Fatalf("unexpected at: %s", body[0].At)
	}
}

func TestGetReviews_SummaryFormat(t *testing.T) {
	at := time.Date(2021, 9, 25, 10, 0, 0, 0, time.UTC)
	name := "Ana"
	src := &staticSource{reviews: []domain.Review{
		{ID: "r1", CreatedAt: at, Content: "lovely app", Author: &name},
	}}
	ts := newTestServer(src, nil)
	defer ts.Close()

	res, err := http.Get(ts.URL + "/googleplay/com.kyivdigital?date=2021-08-17&format=summary")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status %d", res.StatusCode)
	}

	var body []map[string]any
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body) != 1 {
		t.Fatalf("expected 1 summary, got %d", len(body))
	}
	if body[0]["userName"] != "Ana" || body[0]["content"] != "lovely app" {
		t.Fatalf("unexpected summary: %+v", body[0])
	}
	if _, ok := body[0]["reviewId"]; ok {
		t.Fatalf("summary must not carry full fields: %+v", body[0])
	}
}

func TestGetReviews_WebhookAcceptedAndDelivered(t *testing.T) {
	at := time.Date(2021, 9, 25, 10, 0, 0, 0, time.UTC)
	src := &staticSource{reviews: []domain.Review{{ID: "r1", CreatedAt: at, Content: "x"}}}
	n := &chanNotifier{got: make(chan []app.ReviewJSON, 1)}
	ts := newTestServer(src, n)
	defer ts.Close()

	res, err := http.Get(ts.URL + "/googleplay/com.kyivdigital?date=2021-08-17&webhook=https://example.com/hook")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusAccepted {
		t.Fatalf("status %d", res.StatusCode)
	}

	select {
	case payload := <-n.got:
		if len(payload) != 1 || payload[0].ReviewID != "r1" {
			t.Fatalf("unexpected payload: %+v", payload)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("webhook never delivered")
	}
}
