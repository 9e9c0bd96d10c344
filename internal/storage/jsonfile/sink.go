package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

// Sink writes one finalized collection per app as <dir>/<app>.json.
type Sink struct {
	dir string
}

func New(dir string) *Sink { return &Sink{dir: dir} }

func (s *Sink) Write(_ context.Context, appID string, payload any) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create result dir %s: %w", s.dir, err)
	}
	b, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal results for %s: %w", appID, err)
	}
	path := filepath.Join(s.dir, appID+".json")
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	log.Info().Str("file", path).Msg("saved reviews")
	return nil
}
