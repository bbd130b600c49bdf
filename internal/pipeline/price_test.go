package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"

	"github.com/nav21/stockAnalyzer/internal/model"
	"github.com/nav21/stockAnalyzer/pkg/quote"
)

var runTime = time.Date(2025, 6, 3, 14, 0, 0, 0, time.UTC)

func newTestPriceIngester(store PriceStore, quotes quote.Provider, history quote.HistoryProvider, open bool) *PriceIngester {
	p := NewPriceIngester(store, quotes, history, fixedCalendar(open))
	p.now = func() time.Time { return runTime }
	return p
}

func TestRunPriceUpdateSavesValidTicks(t *testing.T) {
	quoteTime := time.Date(2025, 6, 3, 13, 59, 0, 0, time.UTC)
	store := &fakePriceStore{}
	quotes := &fakeQuotes{
		quotes: map[string]*quote.Quote{
			"AAPL": {Symbol: "AAPL", Price: 150, Timestamp: quoteTime, HasTimestamp: true},
			"MSFT": {Symbol: "MSFT", Price: 410.5},
		},
		errs: map[string]error{
			"TSLA": &quote.FetchError{Provider: "fake", Symbol: "TSLA", Reason: quote.ReasonNetwork},
		},
	}

	stats := newTestPriceIngester(store, quotes, nil, true).
		RunPriceUpdate(context.Background(), []string{"AAPL", "TSLA", "MSFT"})

	assert.Equal(t, 2, stats.Saved)
	assert.Equal(t, 1, stats.FetchFailed)
	assert.Equal(t, 1, store.saves)
	assert.Equal(t, 2, len(store.ticks))
	assert.Equal(t, "AAPL", store.ticks[0].Symbol)
	assert.Equal(t, quoteTime, store.ticks[0].Timestamp)
	// No provider timestamp falls back to the run time.
	assert.Equal(t, "MSFT", store.ticks[1].Symbol)
	assert.Equal(t, runTime, store.ticks[1].Timestamp)
}

func TestRunPriceUpdateInvalidFetchesCreateNoTicks(t *testing.T) {
	store := &fakePriceStore{}
	quotes := &fakeQuotes{
		quotes: map[string]*quote.Quote{
			"ZERO": {Symbol: "ZERO", Price: 0},
			"NEG":  {Symbol: "NEG", Price: -3},
		},
		errs: map[string]error{
			"MISS": &quote.FetchError{Provider: "fake", Symbol: "MISS", Reason: quote.ReasonMissingField},
		},
	}

	stats := newTestPriceIngester(store, quotes, nil, true).
		RunPriceUpdate(context.Background(), []string{"ZERO", "NEG", "MISS"})

	assert.Equal(t, 0, stats.Saved)
	assert.Equal(t, 2, stats.Invalid)
	assert.Equal(t, 1, stats.FetchFailed)
	assert.Equal(t, 0, len(store.ticks))
	assert.Equal(t, 0, store.saves)
}

func TestRunPriceUpdateMarketClosed(t *testing.T) {
	store := &fakePriceStore{}
	quotes := &fakeQuotes{quotes: map[string]*quote.Quote{"AAPL": {Price: 150}}}

	stats := newTestPriceIngester(store, quotes, nil, false).
		RunPriceUpdate(context.Background(), []string{"AAPL"})

	assert.Equal(t, true, stats.MarketClosed)
	assert.Equal(t, 0, len(store.ticks))
	assert.Equal(t, 0, store.saves)
}

func TestRunPriceUpdateCommitFailureSavesNothing(t *testing.T) {
	store := &fakePriceStore{saveErr: errBoom}
	quotes := &fakeQuotes{quotes: map[string]*quote.Quote{
		"AAPL": {Price: 150},
		"MSFT": {Price: 410},
	}}

	stats := newTestPriceIngester(store, quotes, nil, true).
		RunPriceUpdate(context.Background(), []string{"AAPL", "MSFT"})

	assert.Equal(t, 0, stats.Saved)
	assert.Equal(t, errBoom, stats.Err)
	assert.Equal(t, 0, len(store.ticks))
}

func day(d int) time.Time {
	return time.Date(2025, 6, d, 0, 0, 0, 0, time.UTC)
}

func TestPopulateHistoricalIsIdempotent(t *testing.T) {
	store := &fakePriceStore{}
	history := &fakeHistory{points: map[string][]model.HistoricalPoint{
		"AAPL": {
			{Date: day(2), Close: 201.7},
			{Date: day(3), Close: 203.27},
			{Date: day(3), Close: 203.27},
		},
	}}
	p := newTestPriceIngester(store, &fakeQuotes{}, history, true)

	first, err := p.PopulateHistorical(context.Background(), []string{"AAPL"}, day(1), day(5))
	assert.Equal(t, nil, err)
	assert.Equal(t, 2, first.Inserted)

	second, err := p.PopulateHistorical(context.Background(), []string{"AAPL"}, day(1), day(5))
	assert.Equal(t, nil, err)
	assert.Equal(t, 0, second.Inserted)
	assert.Equal(t, 3, second.Existing)

	assert.Equal(t, 2, store.count("AAPL"))
	assert.Equal(t, day(2), store.ticks[0].Timestamp)
}

func TestPopulateHistoricalSkipsInvalidAndOutOfWindow(t *testing.T) {
	store := &fakePriceStore{}
	history := &fakeHistory{points: map[string][]model.HistoricalPoint{
		"AAPL": {
			{Date: day(1), Close: 0},
			{Date: day(2), Close: 201.7},
			{Date: day(9), Close: 210},
		},
	}}
	p := newTestPriceIngester(store, &fakeQuotes{}, history, true)

	stats, err := p.PopulateHistorical(context.Background(), []string{"AAPL"}, day(1), day(5))

	assert.Equal(t, nil, err)
	assert.Equal(t, 1, stats.Inserted)
	assert.Equal(t, 1, stats.Invalid)
	assert.Equal(t, 1, len(store.ticks))
}

func TestPopulateHistoricalCommitsPerSymbol(t *testing.T) {
	store := &fakePriceStore{}
	history := &fakeHistory{
		points: map[string][]model.HistoricalPoint{
			"AAPL": {{Date: day(2), Close: 201.7}},
			"MSFT": {{Date: day(2), Close: 410}},
		},
		errs: map[string]error{"TSLA": errBoom},
	}
	p := newTestPriceIngester(store, &fakeQuotes{}, history, true)

	stats, err := p.PopulateHistorical(context.Background(), []string{"AAPL", "TSLA", "MSFT"}, day(1), day(5))

	assert.Equal(t, nil, err)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 2, stats.Inserted)
	assert.Equal(t, 2, store.saves)
	assert.Equal(t, false, stats.AllFailed())
}

func TestPopulateHistoricalRejectsInvertedRange(t *testing.T) {
	p := newTestPriceIngester(&fakePriceStore{}, &fakeQuotes{}, &fakeHistory{}, true)

	_, err := p.PopulateHistorical(context.Background(), []string{"AAPL"}, day(5), day(1))

	var cfgErr *model.ConfigurationError
	assert.Equal(t, true, errors.As(err, &cfgErr))
}

func TestPopulateHistoricalWithoutHistoryProvider(t *testing.T) {
	p := newTestPriceIngester(&fakePriceStore{}, &fakeQuotes{}, nil, true)

	_, err := p.PopulateHistorical(context.Background(), []string{"AAPL"}, day(1), day(5))

	assert.NotEqual(t, nil, err)
}

func TestBackfillStatsAllFailed(t *testing.T) {
	assert.Equal(t, true, BackfillStats{Symbols: 2, Failed: 2}.AllFailed())
	assert.Equal(t, false, BackfillStats{}.AllFailed())
}
