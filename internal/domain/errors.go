package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidCutoff = errors.New("invalid cutoff date")
)

// SourceError reports a failed page fetch with enough position context for
// the caller to decide whether to retry the whole request.
type SourceError struct {
	Lang   string
	Cursor string
	Err    error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("review source failed (lang=%s cursor=%q): %v", e.Lang, e.Cursor, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }
