package mysql

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"play_grabar/internal/domain"
)

func valStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func valTime(p *time.Time) any {
	if p == nil {
		return nil
	}
	return p.UTC()
}

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

func (r *Repo) UpsertReviews(ctx context.Context, rs []domain.Review) error {
	if len(rs) == 0 {
		return nil
	}
	values := make([]string, 0, len(rs))
	args := make([]any, 0, len(rs)*12) // 12 params per row
	for _, rv := range rs {
		values = append(values, "(?,?,?,?,?,?,?,?,?,?,?,?)")
		args = append(args,
			rv.ID,                 // review_id
			rv.AppID,              // app_id
			rv.CreatedAt.UTC(),    // created_at
			rv.Content,            // content
			rv.Language,           // lang
			valTime(rv.RepliedAt), // replied_at
			valStr(rv.ReplyContent),
			valStr(rv.AppVersion),
			rv.Score,
			rv.ThumbsUp,
			valStr(rv.Author),
			valStr(rv.AuthorImage),
		)
	}
	sqlStr := insertReviewsPrefix + strings.Join(values, ",") + insertReviewsOnDup
	_, err := r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *Repo) LogFetch(ctx context.Context, f domain.FetchLog) error {
	_, err := r.db.ExecContext(ctx, insertFetchLogSQL,
		f.AppID, f.Languages, f.Cutoff.UTC(), f.Records)
	return err
}

func (r *Repo) ListReviews(ctx context.Context, appID string, pg domain.PageQuery) (domain.ReviewsPage, error) {
	limit := pg.Limit
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, listReviewsSQL, appID, limit)
	if err != nil {
		return domain.ReviewsPage{}, err
	}
	defer rows.Close()

	var out []domain.Review
	for rows.Next() {
		var (
			rv           domain.Review
			repliedAt    sql.NullTime
			replyContent sql.NullString
			appVersion   sql.NullString
			author       sql.NullString
			authorImage  sql.NullString
		)
		if err := rows.Scan(
			&rv.ID,
			&rv.AppID,
			&rv.CreatedAt,
			&rv.Content,
			&rv.Language,
			&repliedAt,
			&replyContent,
			&appVersion,
			&rv.Score,
			&rv.ThumbsUp,
			&author,
			&authorImage,
		); err != nil {
			return domain.ReviewsPage{}, err
		}

		if repliedAt.Valid {
			at := repliedAt.Time.UTC()
			rv.RepliedAt = &at
			if replyContent.Valid {
				s := replyContent.String
				rv.ReplyContent = &s
			}
		}
		if appVersion.Valid {
			s := appVersion.String
			rv.AppVersion = &s
		}
		if author.Valid {
			s := author.String
			rv.Author = &s
		}
		if authorImage.Valid {
			s := authorImage.String
			rv.AuthorImage = &s
		}
		rv.CreatedAt = rv.CreatedAt.UTC()

		out = append(out, rv)
	}
	if err := rows.Err(); err != nil {
		return domain.ReviewsPage{}, err
	}
	return domain.ReviewsPage{Items: out}, nil
}
