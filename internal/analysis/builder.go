// Package analysis answers free-form questions about a stock by assembling
// stored prices and news into a prompt for a text generator.
package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nav21/stockAnalyzer/internal/model"
	"github.com/nav21/stockAnalyzer/internal/pipeline"
	"github.com/nav21/stockAnalyzer/pkg/llm"
)

const (
	DefaultSymbol     = "AAPL"
	DefaultPriceLimit = 30
	DefaultNewsLimit  = 10
)

const systemPrompt = `You are a financial analyst assistant. Based on the provided stock price history and recent news, answer the user's question about the stock's price movement.
Be concise and focus on the most relevant information. If the context does not contain enough data to answer, say so.`

type PriceReader interface {
	LatestTicks(ctx context.Context, symbol string, limit int) ([]model.PriceTick, error)
}

type NewsReader interface {
	QueryNews(ctx context.Context, q pipeline.NewsQuery) ([]model.NewsArticle, error)
}

// RangeExtractor is satisfied by llm.RangeExtractor and PatternExtractor.
type RangeExtractor interface {
	ExtractRange(ctx context.Context, question string) (model.DateRange, error)
}

type Builder struct {
	Prices       PriceReader
	News         NewsReader
	Generator    llm.Generator
	Extractor    RangeExtractor
	PriceLimit   int
	NewsLimit    int
	FallbackZone *time.Location
	Now          func() time.Time
}

// Analyze runs extract, fetch, render and generate in order. The generator's
// text is returned as is.
func (b *Builder) Analyze(ctx context.Context, req model.AnalysisRequest) (string, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return "", model.NewConfigurationError("Question is required")
	}
	symbol := strings.ToUpper(strings.TrimSpace(req.Symbol))
	if symbol == "" {
		symbol = DefaultSymbol
	}

	rng := b.extractRange(ctx, question)

	ticks, err := b.Prices.LatestTicks(ctx, symbol, b.priceLimit())
	if err != nil {
		return "", fmt.Errorf("load prices for %s: %w", symbol, err)
	}

	articles, err := b.News.QueryNews(ctx, newsQuery(symbol, rng, b.now()))
	if err != nil {
		return "", fmt.Errorf("load news for %s: %w", symbol, err)
	}
	if len(articles) > b.newsLimit() {
		articles = articles[:b.newsLimit()]
	}

	prompt := RenderContext(ContextInput{
		Symbol:   symbol,
		Question: question,
		Ticks:    ticks,
		News:     articles,
		Range:    rng,
		Location: b.location(req.UserTimezone),
	})

	slog.Debug("analysis context built", "symbol", symbol, "ticks", len(ticks), "articles", len(articles))

	answer, err := b.Generator.Generate(ctx, systemPrompt, prompt)
	if err != nil {
		return "", fmt.Errorf("%w: %v", model.ErrGeneration, err)
	}
	return answer, nil
}

func (b *Builder) extractRange(ctx context.Context, question string) model.DateRange {
	if b.Extractor == nil {
		return model.DateRange{}
	}
	rng, err := b.Extractor.ExtractRange(ctx, question)
	if err != nil {
		slog.Warn("date range extraction failed, using latest data", "error", err)
		return model.DateRange{}
	}
	return NormalizeRange(rng, b.now())
}

// newsQuery turns a range into a read-path query. An open end means up to
// today; an open start leaves the query without dates.
func newsQuery(symbol string, rng model.DateRange, now time.Time) pipeline.NewsQuery {
	q := pipeline.NewsQuery{Symbol: symbol}
	if rng.Start == nil {
		return q
	}
	end := truncateDay(now)
	if rng.End != nil {
		end = *rng.End
	}
	q.From = rng.Start.Format("2006-01-02")
	q.To = end.Format("2006-01-02")
	return q
}

func (b *Builder) location(name string) *time.Location {
	if name != "" {
		if loc, err := time.LoadLocation(name); err == nil {
			return loc
		}
		slog.Debug("unknown user timezone, using fallback", "timezone", name)
	}
	if b.FallbackZone != nil {
		return b.FallbackZone
	}
	return time.UTC
}

func (b *Builder) now() time.Time {
	if b.Now != nil {
		return b.Now()
	}
	return time.Now()
}

func (b *Builder) priceLimit() int {
	if b.PriceLimit > 0 {
		return b.PriceLimit
	}
	return DefaultPriceLimit
}

func (b *Builder) newsLimit() int {
	if b.NewsLimit > 0 {
		return b.NewsLimit
	}
	return DefaultNewsLimit
}
