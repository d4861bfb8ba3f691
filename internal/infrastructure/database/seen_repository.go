package database

import (
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/foiafeed/foiafeed/internal/domain/model"
	"github.com/foiafeed/foiafeed/internal/infrastructure/logger"
)

// SeenArticleRepository is the durable record of every article the
// pipeline has ever processed, and the source of truth for deduplication.
type SeenArticleRepository interface {
	// RecentURLs returns the canonical URLs of the outlet's most recently
	// recorded articles, bounded by limit. An incoming article whose URL
	// is in this set is skipped entirely.
	RecentURLs(outlet string, limit int) (map[string]struct{}, error)

	// Record appends a seen-record for the article, match or not. Existing
	// rows are never touched.
	Record(article model.Article) error
}

// sqliteSeenArticleRepository implements SeenArticleRepository on SQLite.
type sqliteSeenArticleRepository struct {
	db Database
}

// NewSeenArticleRepository creates a repository over the given database.
func NewSeenArticleRepository(db Database) SeenArticleRepository {
	return &sqliteSeenArticleRepository{db: db}
}

// RecentURLs queries the dedup horizon for one outlet, most recent first.
func (r *sqliteSeenArticleRepository) RecentURLs(outlet string, limit int) (map[string]struct{}, error) {
	logger.Debug("loading recent urls", "outlet", outlet, "limit", limit)

	query, args, err := sq.Select("url").
		From("articles").
		Where(sq.Eq{"outlet": outlet}).
		OrderBy("id DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build recent urls query: %w", err)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query recent urls for %s: %w", outlet, err)
	}
	defer rows.Close()

	urls := make(map[string]struct{})
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("scan recent url: %w", err)
		}
		urls[u] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recent urls: %w", err)
	}

	logger.Debug("recent urls loaded", "outlet", outlet, "count", len(urls))
	return urls, nil
}

// Record appends one seen-record. The commit happens before this returns,
// so a crash afterwards cannot cause the article to be reprocessed.
func (r *sqliteSeenArticleRepository) Record(article model.Article) error {
	query, args, err := sq.Insert("articles").
		Columns("title", "outlet", "url", "posted", "recorded_at").
		Values(article.Title, article.Outlet, article.URL, article.Posted, time.Now().UTC()).
		ToSql()
	if err != nil {
		return fmt.Errorf("build record insert: %w", err)
	}

	if _, err := r.db.Exec(query, args...); err != nil {
		return fmt.Errorf("record article %s: %w", article.URL, err)
	}

	logger.Debug("article recorded", "outlet", article.Outlet, "url", article.URL, "posted", article.Posted)
	return nil
}
