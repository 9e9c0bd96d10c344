package httpserver

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"play_grabar/internal/app"
	"play_grabar/internal/domain"
)

type Handlers struct {
	Q          *app.QueryService
	Notify     domain.Notifier
	DateLayout string
	PageSize   int
	Languages  []string // fallback when the request names none
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Get("/", h.usage)
	s.mux.Get("/googleplay/", h.missingApp)
	s.mux.Get("/googleplay/{app}", h.getReviews)
}

// usage answers the bare root with an example request. 418 is the original
// service's behavior and some consumers probe for it.
func (h *Handlers) usage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusTeapot)
	_, _ = fmt.Fprint(w, "example: /googleplay/com.kyivdigital?date=2021-08-17&lang=en&lang=uk&webhook=https://...")
}

func (h *Handlers) missingApp(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusTeapot)
	_, _ = w.Write([]byte("Please provide a Google application name"))
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

// parseRequest validates everything before any fetch happens. A malformed
// date rejects the request outright; a missing date means midnight today.
func (h *Handlers) parseRequest(r *http.Request) (cutoff time.Time, langs []string, hook string, err error) {
	q := r.URL.Query()

	if ds := q.Get("date"); ds != "" {
		cutoff, err = time.Parse(h.DateLayout, ds)
		if err != nil {
			return time.Time{}, nil, "", fmt.Errorf("%w: use %s", domain.ErrInvalidCutoff, h.DateLayout)
		}
	} else {
		now := time.Now().UTC()
		cutoff = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	}

	langs = q["lang"]
	if len(langs) == 0 {
		langs = h.Languages
	}
	hook = strings.TrimSpace(q.Get("webhook"))
	return cutoff, langs, hook, nil
}

func (h *Handlers) getReviews(w http.ResponseWriter, r *http.Request) {
	appName := chi.URLParam(r, "app")

	cutoff, langs, hook, err := h.parseRequest(r)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid date format", err.Error())
		return
	}

	if hook != "" {
		// accept now, fetch and deliver out of band
		go h.fetchAndNotify(appName, langs, cutoff, hook)
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte("OK"))
		return
	}

	var out any
	if r.URL.Query().Get("format") == "summary" {
		out, err = h.Q.NewestSummaries(r.Context(), appName, langs, cutoff, h.PageSize)
	} else {
		out, err = h.Q.NewestReviews(r.Context(), appName, langs, cutoff, h.PageSize)
	}
	if err != nil {
		h.writeFetchError(w, appName, err)
		return
	}

	etag, body := calcETagAndBody(out)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write reviews body")
	}
}

func (h *Handlers) writeFetchError(w http.ResponseWriter, appName string, err error) {
	if errors.Is(err, domain.ErrNotFound) {
		writeProblem(w, http.StatusNotFound, "Not Found", "application "+appName+" not found")
		return
	}
	var se *domain.SourceError
	if errors.As(err, &se) {
		log.Error().Str("app", appName).Err(err).Msg("review source failed")
		writeProblem(w, http.StatusBadGateway, "Source unavailable", se.Error())
		return
	}
	log.Error().Str("app", appName).Err(err).Msg("fetch failed")
	writeProblem(w, http.StatusInternalServerError, "Internal error", "")
}

// fetchAndNotify runs detached from the request; the webhook caller already
// got its 202.
func (h *Handlers) fetchAndNotify(appName string, langs []string, cutoff time.Time, hook string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	out, err := h.Q.NewestReviews(ctx, appName, langs, cutoff, h.PageSize)
	if err != nil {
		log.Error().Str("app", appName).Str("webhook", hook).Err(err).Msg("webhook fetch failed")
		return
	}
	if err := h.Notify.Notify(ctx, hook, out); err != nil {
		log.Error().Str("app", appName).Str("webhook", hook).Err(err).Msg("webhook delivery failed")
		return
	}
	log.Info().Str("app", appName).Str("webhook", hook).Int("records", len(out)).Msg("webhook delivered")
}
