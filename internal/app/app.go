// Package app wires configuration, storage, providers and pipelines into one
// explicit process context shared by the commands.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nav21/stockAnalyzer/db"
	"github.com/nav21/stockAnalyzer/internal/analysis"
	"github.com/nav21/stockAnalyzer/internal/config"
	"github.com/nav21/stockAnalyzer/internal/market"
	"github.com/nav21/stockAnalyzer/internal/pipeline"
	"github.com/nav21/stockAnalyzer/internal/repository"
	"github.com/nav21/stockAnalyzer/internal/scheduler"
)

// lockTTL outlives the scheduler's per-run timeout so a lock never expires
// under a live run.
const lockTTL = 20 * time.Minute

type App struct {
	Config *config.Config

	DB    *sql.DB
	Redis *redis.Client

	Prices *repository.PriceRepository
	News   *repository.NewsRepository

	PriceIngester *pipeline.PriceIngester
	NewsIngester  *pipeline.NewsIngester
	Analyzer      *analysis.Builder

	// Locker is nil when no Redis is configured.
	Locker scheduler.Locker
}

// New connects to Postgres (and Redis when configured), migrates the schema
// and builds every component from cfg. cfg must already be validated.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	conn, err := db.Connect(cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := db.Migrate(ctx, conn); err != nil {
		conn.Close()
		return nil, err
	}

	a, err := build(ctx, cfg, conn)
	if err != nil {
		conn.Close()
		return nil, err
	}

	if cfg.Redis.URL != "" {
		rdb, err := db.ConnectRedis(ctx, cfg.Redis.URL)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		a.Redis = rdb
		a.Locker = db.NewRedisLocker(rdb, lockTTL)
	}

	return a, nil
}

// build assembles everything that does not need a live connection.
func build(ctx context.Context, cfg *config.Config, conn *sql.DB) (*App, error) {
	p := newProviders(cfg)

	quotes, err := p.quote()
	if err != nil {
		return nil, err
	}
	history, err := p.history()
	if err != nil {
		return nil, err
	}
	newsProvider, err := p.news()
	if err != nil {
		return nil, err
	}
	gen, err := p.generator(ctx)
	if err != nil {
		return nil, err
	}

	fallback, err := time.LoadLocation(cfg.Analysis.FallbackTimezone)
	if err != nil {
		return nil, fmt.Errorf("fallback timezone: %w", err)
	}

	prices := repository.NewPriceRepository(conn)
	articles := repository.NewNewsRepository(conn)
	newsIngester := pipeline.NewNewsIngester(articles, newsProvider)

	slog.Info("providers configured",
		"quote", quotes.Name(),
		"history", history.Name(),
		"news", newsProvider.Name(),
		"llm", gen.Name(),
	)

	return &App{
		Config:        cfg,
		DB:            conn,
		Prices:        prices,
		News:          articles,
		PriceIngester: pipeline.NewPriceIngester(prices, quotes, history, market.NewYorkCalendar()),
		NewsIngester:  newsIngester,
		Analyzer: &analysis.Builder{
			Prices:       prices,
			News:         newsIngester,
			Generator:    gen,
			Extractor:    p.rangeExtractor(gen),
			PriceLimit:   cfg.Analysis.PriceLimit,
			NewsLimit:    cfg.Analysis.NewsLimit,
			FallbackZone: fallback,
		},
	}, nil
}

// Scheduler returns a scheduler over the app's pipelines. Jobs run under ctx.
func (a *App) Scheduler(ctx context.Context) *scheduler.Scheduler {
	return scheduler.New(ctx, scheduler.Jobs{
		Prices:  a.PriceIngester,
		News:    a.NewsIngester,
		Symbols: a.Config.Ingestion.Symbols,
	}, a.Locker)
}

func (a *App) Close() {
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			slog.Warn("error closing redis", "error", err)
		}
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			slog.Warn("error closing database", "error", err)
		}
	}
}
