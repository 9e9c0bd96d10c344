package app

import (
	"play_grabar/internal/domain"
)

// Wire shapes follow the marketplace scraper's field names, which is what
// downstream consumers of the original feed already parse.

type ReviewJSON struct {
	ReviewID     string  `json:"reviewId"`
	At           string  `json:"at"`
	Content      string  `json:"content"`
	Language     string  `json:"language"`
	RepliedAt    *string `json:"repliedAt"`
	ReplyContent *string `json:"replyContent"`
	AppVersion   *string `json:"reviewCreatedVersion"`
	Score        int     `json:"score"`
	ThumbsUp     int     `json:"thumbsUpCount"`
	UserName     *string `json:"userName"`
	UserImage    *string `json:"userImage"`
}

type ReviewSummary struct {
	At       string `json:"at"`
	Content  string `json:"content"`
	Language string `json:"language"`
	UserName string `json:"userName"`
}

// SummaryPreviewLen caps summary content at this many runes.
const SummaryPreviewLen = 65

// Normalize projects records into the transport shape, rendering timestamps
// with layout. RepliedAt and ReplyContent are null together.
func Normalize(rs []domain.Review, layout string) []ReviewJSON {
	out := make([]ReviewJSON, 0, len(rs))
	for _, r := range rs {
		j := ReviewJSON{
			ReviewID:   r.ID,
			At:         r.CreatedAt.Format(layout),
			Content:    r.Content,
			Language:   r.Language,
			AppVersion: r.AppVersion,
			Score:      r.Score,
			ThumbsUp:   r.ThumbsUp,
			UserName:   r.Author,
			UserImage:  r.AuthorImage,
		}
		if r.RepliedAt != nil {
			at := r.RepliedAt.Format(layout)
			j.RepliedAt = &at
			j.ReplyContent = r.ReplyContent
		}
		out = append(out, j)
	}
	return out
}

// Summaries projects records into a compact display shape with the content
// truncated to SummaryPreviewLen runes.
func Summaries(rs []domain.Review, layout string) []ReviewSummary {
	out := make([]ReviewSummary, 0, len(rs))
	for _, r := range rs {
		s := ReviewSummary{
			At:       r.CreatedAt.Format(layout),
			Content:  truncate(r.Content, SummaryPreviewLen),
			Language: r.Language,
		}
		if r.Author != nil {
			s.UserName = *r.Author
		}
		out = append(out, s)
	}
	return out
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
