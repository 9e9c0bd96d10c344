package mysql

// Note: review_id is the marketplace's opaque key; (app_id, review_id) is
// the natural unique key, so re-grabs upsert instead of duplicating.
const insertReviewsPrefix = "INSERT INTO reviews\n" +
	"  (review_id, app_id, created_at, content, lang, replied_at, reply_content, app_version, score, thumbs_up, author, author_image)\n" +
	"VALUES "

// COALESCE keeps the stored value when a re-grab carries NULL for an
// optional column (a reply can appear later but never un-appear upstream
// in a way we want to honor).
const insertReviewsOnDup = " ON DUPLICATE KEY UPDATE\n" +
	"  created_at    = VALUES(created_at),\n" +
	"  content       = VALUES(content),\n" +
	"  lang          = VALUES(lang),\n" +
	"  replied_at    = COALESCE(VALUES(replied_at), reviews.replied_at),\n" +
	"  reply_content = COALESCE(VALUES(reply_content), reviews.reply_content),\n" +
	"  app_version   = COALESCE(VALUES(app_version), reviews.app_version),\n" +
	"  score         = VALUES(score),\n" +
	"  thumbs_up     = VALUES(thumbs_up),\n" +
	"  author        = COALESCE(VALUES(author), reviews.author),\n" +
	"  author_image  = COALESCE(VALUES(author_image), reviews.author_image)\n"

const insertFetchLogSQL = `
INSERT INTO fetch_log (app_id, langs, cutoff, records)
VALUES (?, ?, ?, ?)
`

const listReviewsSQL = `
SELECT
  review_id,
  app_id,
  created_at,
  content,
  lang,
  replied_at,
  reply_content,
  app_version,
  score,
  thumbs_up,
  author,
  author_image
FROM reviews
WHERE app_id = ?
ORDER BY created_at DESC, review_id DESC
LIMIT ?
`
