package domain

import "time"

// Review is one normalized marketplace review. Records are immutable once
// produced by the source adapter.
type Review struct {
	ID           string // marketplace reviewId; dedup key
	AppID        string
	CreatedAt    time.Time // UTC; primary sort/filter key
	Content      string
	Language     string // query language bucket that fetched it, lower-cased
	RepliedAt    *time.Time
	ReplyContent *string // set iff RepliedAt is set
	AppVersion   *string
	Score        int
	ThumbsUp     int
	Author       *string
	AuthorImage  *string
}

// FetchLog records one completed grab for auditing.
type FetchLog struct {
	AppID     string
	Languages string // comma-joined, in request order
	Cutoff    time.Time
	Records   int
}
