package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/nav21/stockAnalyzer/internal/model"

	"github.com/lib/pq"
)

type NewsRepository struct {
	db *sql.DB
}

func NewNewsRepository(db *sql.DB) *NewsRepository {
	return &NewsRepository{db: db}
}

// ExistingTitles reports which of titles are already stored, across all symbols.
func (r *NewsRepository) ExistingTitles(ctx context.Context, titles []string) (map[string]bool, error) {
	existing := make(map[string]bool)
	if len(titles) == 0 {
		return existing, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT title FROM news_article WHERE title = ANY($1)
	`, pq.Array(titles))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var title string
		if err := rows.Scan(&title); err != nil {
			return nil, err
		}
		existing[title] = true
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return existing, nil
}

// SaveArticles stores articles and their symbol tags in one transaction and
// returns how many rows were new. A title that is already present is skipped.
func (r *NewsRepository) SaveArticles(ctx context.Context, articles []model.NewsArticle) (int, error) {
	if len(articles) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	saved := 0
	for i := range articles {
		a := &articles[i]

		var id int64
		err = tx.QueryRowContext(ctx, `
			INSERT INTO news_article(title, content, url, timestamp)
			VALUES($1, $2, $3, $4)
			ON CONFLICT (title) DO NOTHING
			RETURNING id
		`, a.Title, a.Content, a.URL, a.Timestamp.UTC()).Scan(&id)

		if err == sql.ErrNoRows {
			continue
		}

		if err != nil {
			return 0, err
		}

		a.ID = id
		saved++

		if len(a.Symbols) > 0 {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO news_article_symbol(article_id, symbol, position)
				SELECT $1, s.symbol, s.position
				FROM unnest($2::text[]) WITH ORDINALITY AS s(symbol, position)
			`, id, pq.Array(a.Symbols))
			if err != nil {
				return 0, err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}

	return saved, nil
}

// LatestArticles returns the newest articles, optionally only those tagged
// with symbol. symbol must already be in its normalized form.
func (r *NewsRepository) LatestArticles(ctx context.Context, symbol string, limit int) ([]model.NewsArticle, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT a.id, a.title, a.content, a.url, a.timestamp
		FROM news_article a
		WHERE $1::text = '' OR EXISTS (
			SELECT 1 FROM news_article_symbol s
			WHERE s.article_id = a.id AND s.symbol = $1
		)
		ORDER BY a.timestamp DESC
		LIMIT $2
	`, symbol, limit)
	if err != nil {
		return nil, err
	}

	return r.scanArticles(ctx, rows)
}

// ArticlesBetween returns articles with from <= timestamp <= to, newest first.
func (r *NewsRepository) ArticlesBetween(ctx context.Context, symbol string, from, to time.Time) ([]model.NewsArticle, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT a.id, a.title, a.content, a.url, a.timestamp
		FROM news_article a
		WHERE a.timestamp >= $2 AND a.timestamp <= $3
		AND ($1::text = '' OR EXISTS (
			SELECT 1 FROM news_article_symbol s
			WHERE s.article_id = a.id AND s.symbol = $1
		))
		ORDER BY a.timestamp DESC
	`, symbol, from.UTC(), to.UTC())
	if err != nil {
		return nil, err
	}

	return r.scanArticles(ctx, rows)
}

func (r *NewsRepository) scanArticles(ctx context.Context, rows *sql.Rows) ([]model.NewsArticle, error) {
	defer rows.Close()

	var articles []model.NewsArticle
	for rows.Next() {
		var a model.NewsArticle
		if err := rows.Scan(&a.ID, &a.Title, &a.Content, &a.URL, &a.Timestamp); err != nil {
			return nil, err
		}
		a.Timestamp = a.Timestamp.UTC()
		articles = append(articles, a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	if len(articles) == 0 {
		return articles, nil
	}

	ids := make([]int64, len(articles))
	for i, a := range articles {
		ids[i] = a.ID
	}

	symbolMap, err := r.symbolsByArticleIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	for i := range articles {
		articles[i].Symbols = symbolMap[articles[i].ID]
	}

	return articles, nil
}

func (r *NewsRepository) symbolsByArticleIDs(ctx context.Context, ids []int64) (map[int64][]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT article_id, symbol FROM news_article_symbol
		WHERE article_id = ANY($1)
		ORDER BY article_id, position
	`, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[int64][]string)
	for rows.Next() {
		var id int64
		var symbol string
		if err := rows.Scan(&id, &symbol); err != nil {
			return nil, err
		}
		result[id] = append(result[id], symbol)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}
