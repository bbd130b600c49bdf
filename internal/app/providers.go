package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/nav21/stockAnalyzer/internal/analysis"
	"github.com/nav21/stockAnalyzer/internal/config"
	"github.com/nav21/stockAnalyzer/pkg/eodhd"
	"github.com/nav21/stockAnalyzer/pkg/llm"
	"github.com/nav21/stockAnalyzer/pkg/news"
	"github.com/nav21/stockAnalyzer/pkg/quote"
)

// eodhdRequestsPerSecond keeps the shared client under the free plan's burst.
const eodhdRequestsPerSecond = 5

var errNoGenerator = errors.New("no LLM provider configured")

// providers builds the configured adapters. The EODHD client is shared by
// every adapter that needs it so they draw from one rate limit.
type providers struct {
	cfg *config.Config
	eod *eodhd.Client
}

func newProviders(cfg *config.Config) *providers {
	return &providers{cfg: cfg}
}

func (p *providers) eodhd() *eodhd.Client {
	if p.eod == nil {
		p.eod = eodhd.NewClient(p.cfg.Keys.EODHD, eodhd.WithRateLimit(eodhdRequestsPerSecond))
	}
	return p.eod
}

func (p *providers) quote() (quote.Provider, error) {
	switch p.cfg.Providers.Quote {
	case "eodhd":
		return quote.NewEODHDProvider(p.eodhd()), nil
	case "alphavantage":
		return quote.NewAlphaVantageProvider(p.cfg.Keys.AlphaVantage), nil
	case "finnhub":
		return quote.NewFinnhubProvider(p.cfg.Keys.Finnhub), nil
	case "yahoo":
		return quote.NewYahooProvider(), nil
	}
	return nil, fmt.Errorf("unknown quote provider %q", p.cfg.Providers.Quote)
}

func (p *providers) history() (quote.HistoryProvider, error) {
	switch p.cfg.Providers.History {
	case "eodhd":
		return quote.NewEODHDHistoryProvider(p.eodhd()), nil
	case "yahoo":
		return quote.NewYahooProvider(), nil
	}
	return nil, fmt.Errorf("unknown history provider %q", p.cfg.Providers.History)
}

func (p *providers) news() (news.Provider, error) {
	switch p.cfg.Providers.News {
	case "eodhd":
		return news.NewEODHDClient(p.eodhd()), nil
	case "alphavantage":
		return news.NewAlphaVantageClient(p.cfg.Keys.AlphaVantage), nil
	case "finnhub":
		return news.NewFinnHubClient(p.cfg.Keys.Finnhub), nil
	case "massive":
		return news.NewMassiveClient(p.cfg.Keys.Massive), nil
	case "marketaux":
		return news.NewMarketauxClient(p.cfg.Keys.Marketaux), nil
	case "rss":
		return news.NewRSSClient(), nil
	}
	return nil, fmt.Errorf("unknown news provider %q", p.cfg.Providers.News)
}

func (p *providers) generator(ctx context.Context) (llm.Generator, error) {
	model := p.cfg.LLM.Model
	switch p.cfg.LLM.Provider {
	case "gemini":
		return llm.NewGeminiClient(ctx, p.cfg.Keys.Gemini, model)
	case "openai":
		return llm.NewOpenAIClient(p.cfg.Keys.OpenAI, model), nil
	case "anthropic":
		return llm.NewAnthropicClient(p.cfg.Keys.Anthropic, model), nil
	case "none":
		return noGenerator{}, nil
	}
	return nil, fmt.Errorf("unknown llm provider %q", p.cfg.LLM.Provider)
}

// rangeExtractor uses the model unless none is configured or the rule-based
// extractor was asked for.
func (p *providers) rangeExtractor(gen llm.Generator) analysis.RangeExtractor {
	if p.cfg.LLM.Provider == "none" || p.cfg.LLM.RangeExtractor == "pattern" {
		return analysis.PatternExtractor{}
	}
	return llm.NewRangeExtractor(gen)
}

// noGenerator keeps the API up when LLM_PROVIDER=none; analysis requests
// fail with a generation error.
type noGenerator struct{}

func (noGenerator) Name() string {
	return "none"
}

func (noGenerator) Generate(context.Context, string, string) (string, error) {
	return "", errNoGenerator
}
