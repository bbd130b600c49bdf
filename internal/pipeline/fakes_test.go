package pipeline

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/nav21/stockAnalyzer/internal/model"
	"github.com/nav21/stockAnalyzer/pkg/news"
	"github.com/nav21/stockAnalyzer/pkg/quote"
)

type fixedCalendar bool

func (c fixedCalendar) IsOpen(time.Time) bool { return bool(c) }

type fakePriceStore struct {
	mu      sync.Mutex
	ticks   []model.PriceTick
	saveErr error
	saves   int
}

func (s *fakePriceStore) SaveTicks(ctx context.Context, ticks []model.PriceTick) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	if s.saveErr != nil {
		return s.saveErr
	}
	for _, t := range ticks {
		t.ID = int64(len(s.ticks) + 1)
		s.ticks = append(s.ticks, t)
	}
	return nil
}

func (s *fakePriceStore) TickDates(ctx context.Context, symbol string, from, to time.Time) (map[string]bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	dates := make(map[string]bool)
	for _, t := range s.ticks {
		if t.Symbol == symbol && !t.Timestamp.Before(from) && t.Timestamp.Before(to.AddDate(0, 0, 1)) {
			dates[model.DateKey(t.Timestamp)] = true
		}
	}
	return dates, nil
}

func (s *fakePriceStore) count(symbol string) int {
	n := 0
	for _, t := range s.ticks {
		if t.Symbol == symbol {
			n++
		}
	}
	return n
}

type fakeQuotes struct {
	quotes map[string]*quote.Quote
	errs   map[string]error
}

func (f *fakeQuotes) Name() string { return "fake" }

func (f *fakeQuotes) Fetch(ctx context.Context, symbol string) (*quote.Quote, error) {
	if err, ok := f.errs[symbol]; ok {
		return nil, err
	}
	if q, ok := f.quotes[symbol]; ok {
		return q, nil
	}
	return nil, &quote.FetchError{Provider: "fake", Symbol: symbol, Reason: quote.ReasonStatus}
}

type fakeHistory struct {
	points map[string][]model.HistoricalPoint
	errs   map[string]error
}

func (f *fakeHistory) Name() string { return "fake" }

func (f *fakeHistory) FetchHistory(ctx context.Context, symbol string, from, to time.Time) ([]model.HistoricalPoint, error) {
	if err, ok := f.errs[symbol]; ok {
		return nil, err
	}
	return f.points[symbol], nil
}

type fakeNewsStore struct {
	articles []model.NewsArticle
	saveErr  error
}

func (s *fakeNewsStore) ExistingTitles(ctx context.Context, titles []string) (map[string]bool, error) {
	found := make(map[string]bool)
	for _, a := range s.articles {
		for _, t := range titles {
			if a.Title == t {
				found[t] = true
			}
		}
	}
	return found, nil
}

func (s *fakeNewsStore) SaveArticles(ctx context.Context, articles []model.NewsArticle) (int, error) {
	if s.saveErr != nil {
		return 0, s.saveErr
	}
	saved := 0
	for _, a := range articles {
		dup := false
		for _, existing := range s.articles {
			if existing.Title == a.Title {
				dup = true
			}
		}
		if dup {
			continue
		}
		a.ID = int64(len(s.articles) + 1)
		s.articles = append(s.articles, a)
		saved++
	}
	return saved, nil
}

func (s *fakeNewsStore) filter(symbol string, keep func(model.NewsArticle) bool) []model.NewsArticle {
	var out []model.NewsArticle
	for _, a := range s.articles {
		if symbol != "" && !contains(a.Symbols, symbol) {
			continue
		}
		if keep(a) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out
}

func (s *fakeNewsStore) LatestArticles(ctx context.Context, symbol string, limit int) ([]model.NewsArticle, error) {
	out := s.filter(symbol, func(model.NewsArticle) bool { return true })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *fakeNewsStore) ArticlesBetween(ctx context.Context, symbol string, from, to time.Time) ([]model.NewsArticle, error) {
	return s.filter(symbol, func(a model.NewsArticle) bool {
		return !a.Timestamp.Before(from) && !a.Timestamp.After(to)
	}), nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

type fakeNews struct {
	articles map[string][]news.Article
	errs     map[string]error
	calls    []string
}

func (f *fakeNews) Name() string { return "fake" }

func (f *fakeNews) Fetch(ctx context.Context, symbol string, from, to *time.Time) ([]news.Article, error) {
	f.calls = append(f.calls, symbol)
	if err, ok := f.errs[symbol]; ok {
		return nil, err
	}
	return f.articles[symbol], nil
}

var errBoom = errors.New("boom")
