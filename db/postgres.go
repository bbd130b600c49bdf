package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

func Connect(connStr string) (*sql.DB, error) {
	if connStr == "" {
		return nil, fmt.Errorf("database url is not set")
	}

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS stock_price (
		id        BIGSERIAL PRIMARY KEY,
		symbol    TEXT NOT NULL,
		price     DOUBLE PRECISION NOT NULL CHECK (price > 0),
		timestamp TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_stock_price_symbol_ts ON stock_price(symbol, timestamp DESC)`,

	`CREATE TABLE IF NOT EXISTS news_article (
		id        BIGSERIAL PRIMARY KEY,
		title     TEXT NOT NULL UNIQUE,
		content   TEXT NOT NULL DEFAULT '',
		url       TEXT NOT NULL DEFAULT '',
		timestamp TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_news_article_ts ON news_article(timestamp DESC)`,

	`CREATE TABLE IF NOT EXISTS news_article_symbol (
		id         BIGSERIAL PRIMARY KEY,
		article_id BIGINT NOT NULL REFERENCES news_article(id) ON DELETE CASCADE,
		symbol     TEXT NOT NULL,
		position   INT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_news_article_symbol_symbol ON news_article_symbol(symbol)`,
}

// Migrate creates the tables if they do not exist yet.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
