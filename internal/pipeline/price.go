// Package pipeline moves provider data into the store: live quotes, daily
// backfill and news. Every run logs and skips per-item failures and never
// returns them to the scheduler.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nav21/stockAnalyzer/internal/model"
	"github.com/nav21/stockAnalyzer/pkg/quote"
)

const fetchParallelism = 4

type PriceStore interface {
	SaveTicks(ctx context.Context, ticks []model.PriceTick) error
	TickDates(ctx context.Context, symbol string, from, to time.Time) (map[string]bool, error)
}

// Calendar is satisfied by market.Calendar.
type Calendar interface {
	IsOpen(now time.Time) bool
}

type PriceIngester struct {
	store    PriceStore
	quotes   quote.Provider
	history  quote.HistoryProvider
	calendar Calendar
	now      func() time.Time
}

// NewPriceIngester wires the live and backfill paths. history may be nil when
// no history provider is configured; backfill then fails with a
// configuration error.
func NewPriceIngester(store PriceStore, quotes quote.Provider, history quote.HistoryProvider, calendar Calendar) *PriceIngester {
	return &PriceIngester{
		store:    store,
		quotes:   quotes,
		history:  history,
		calendar: calendar,
		now:      time.Now,
	}
}

type PriceRunStats struct {
	MarketClosed bool
	Requested    int
	FetchFailed  int
	Invalid      int
	Saved        int
	Err          error
}

// RunPriceUpdate fetches one quote per symbol and commits every valid tick in
// a single transaction. A failed commit saves nothing.
func (p *PriceIngester) RunPriceUpdate(ctx context.Context, symbols []string) PriceRunStats {
	runAt := p.now().UTC()
	stats := PriceRunStats{Requested: len(symbols)}

	if !p.calendar.IsOpen(runAt) {
		slog.Info("market closed, skipping price update", "at", runAt)
		stats.MarketClosed = true
		return stats
	}

	quotes := make([]*quote.Quote, len(symbols))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchParallelism)
	for i, symbol := range symbols {
		g.Go(func() error {
			q, err := p.quotes.Fetch(gctx, symbol)
			if err != nil {
				slog.Warn("quote fetch failed", "provider", p.quotes.Name(), "symbol", symbol, "error", err)
				return nil
			}
			quotes[i] = q
			return nil
		})
	}
	_ = g.Wait()

	ticks := make([]model.PriceTick, 0, len(symbols))
	for i, q := range quotes {
		if q == nil {
			stats.FetchFailed++
			continue
		}

		ts := runAt
		if q.HasTimestamp {
			ts = q.Timestamp.UTC()
		}
		tick := model.PriceTick{Symbol: symbols[i], Price: q.Price, Timestamp: ts}
		if err := tick.Validate(); err != nil {
			slog.Warn("invalid tick skipped", "symbol", symbols[i], "error", err)
			stats.Invalid++
			continue
		}
		ticks = append(ticks, tick)
	}

	if len(ticks) == 0 {
		slog.Info("price update finished, nothing to save", "requested", stats.Requested, "failed", stats.FetchFailed, "invalid", stats.Invalid)
		return stats
	}

	if err := p.store.SaveTicks(ctx, ticks); err != nil {
		slog.Error("price batch rolled back", "ticks", len(ticks), "error", err)
		stats.Err = err
		return stats
	}

	stats.Saved = len(ticks)
	slog.Info("price update finished",
		"requested", stats.Requested,
		"saved", stats.Saved,
		"failed", stats.FetchFailed,
		"invalid", stats.Invalid,
	)
	return stats
}

type BackfillStats struct {
	Symbols  int
	Failed   int
	Inserted int
	Existing int
	Invalid  int
}

// PopulateHistorical backfills one tick per trading day at midnight UTC.
// Dates that already hold a tick for the symbol are skipped, so repeated
// runs are idempotent. Each symbol commits on its own.
func (p *PriceIngester) PopulateHistorical(ctx context.Context, symbols []string, start, end time.Time) (BackfillStats, error) {
	stats := BackfillStats{Symbols: len(symbols)}

	if p.history == nil {
		return stats, model.NewConfigurationError("no history provider configured")
	}
	start, end = dayStart(start), dayStart(end)
	if start.After(end) {
		return stats, model.NewConfigurationError("start_date must not be after end_date")
	}

	for _, symbol := range symbols {
		inserted, existing, invalid, err := p.backfillSymbol(ctx, symbol, start, end)
		stats.Existing += existing
		stats.Invalid += invalid
		if err != nil {
			slog.Error("backfill failed", "symbol", symbol, "error", err)
			stats.Failed++
			continue
		}
		stats.Inserted += inserted
		slog.Info("backfill symbol done", "symbol", symbol, "inserted", inserted, "existing", existing, "invalid", invalid)
	}

	return stats, nil
}

func (p *PriceIngester) backfillSymbol(ctx context.Context, symbol string, start, end time.Time) (inserted, existing, invalid int, err error) {
	points, err := p.history.FetchHistory(ctx, symbol, start, end)
	if err != nil {
		return 0, 0, 0, err
	}

	have, err := p.store.TickDates(ctx, symbol, start, end)
	if err != nil {
		return 0, 0, 0, err
	}
	if have == nil {
		have = make(map[string]bool)
	}

	lastDay := end.AddDate(0, 0, 1)
	ticks := make([]model.PriceTick, 0, len(points))
	for _, pt := range points {
		day := dayStart(pt.Date)
		if day.Before(start) || !day.Before(lastDay) {
			continue
		}

		key := model.DateKey(day)
		if have[key] {
			existing++
			continue
		}

		tick := model.PriceTick{Symbol: symbol, Price: pt.Close, Timestamp: day}
		if err := tick.Validate(); err != nil {
			slog.Debug("invalid history point skipped", "symbol", symbol, "date", key, "error", err)
			invalid++
			continue
		}

		have[key] = true
		ticks = append(ticks, tick)
	}

	if len(ticks) == 0 {
		return 0, existing, invalid, nil
	}

	if err := p.store.SaveTicks(ctx, ticks); err != nil {
		return 0, existing, invalid, err
	}
	return len(ticks), existing, invalid, nil
}

// AllFailed reports whether a backfill produced nothing but failures.
func (s BackfillStats) AllFailed() bool {
	return s.Symbols > 0 && s.Failed == s.Symbols
}

func dayStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
