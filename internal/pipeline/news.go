package pipeline

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/nav21/stockAnalyzer/internal/model"
	"github.com/nav21/stockAnalyzer/pkg/news"
)

// DefaultNewsLimit is how many articles the read path returns without a
// valid date window.
const DefaultNewsLimit = 5

type NewsStore interface {
	ExistingTitles(ctx context.Context, titles []string) (map[string]bool, error)
	SaveArticles(ctx context.Context, articles []model.NewsArticle) (int, error)
	LatestArticles(ctx context.Context, symbol string, limit int) ([]model.NewsArticle, error)
	ArticlesBetween(ctx context.Context, symbol string, from, to time.Time) ([]model.NewsArticle, error)
}

type NewsIngester struct {
	store    NewsStore
	provider news.Provider
}

func NewNewsIngester(store NewsStore, provider news.Provider) *NewsIngester {
	return &NewsIngester{store: store, provider: provider}
}

type NewsRunStats struct {
	Symbols    int
	Failed     int
	Fetched    int
	Malformed  int
	Duplicates int
	Saved      int
}

// RunNewsUpdate ingests news symbol by symbol. Titles are unique across the
// whole store, so an article already saved under another symbol counts as a
// duplicate here.
func (n *NewsIngester) RunNewsUpdate(ctx context.Context, symbols []string, from, to *time.Time) NewsRunStats {
	stats := NewsRunStats{Symbols: len(symbols)}

	for _, symbol := range symbols {
		if err := ctx.Err(); err != nil {
			slog.Warn("news update cancelled", "error", err)
			break
		}

		articles, err := n.provider.Fetch(ctx, symbol, from, to)
		if err != nil {
			// Provider failures look like an empty result from here on.
			slog.Warn("news fetch failed", "provider", n.provider.Name(), "symbol", symbol, "error", err)
			stats.Failed++
			continue
		}
		stats.Fetched += len(articles)

		saved, dups, malformed, err := n.ingestSymbol(ctx, symbol, articles)
		stats.Malformed += malformed
		stats.Duplicates += dups
		if err != nil {
			slog.Error("news batch rolled back", "symbol", symbol, "error", err)
			stats.Failed++
			continue
		}
		stats.Saved += saved

		slog.Info("news symbol done", "symbol", symbol, "fetched", len(articles), "saved", saved, "duplicates", dups, "malformed", malformed)
	}

	return stats
}

func (n *NewsIngester) ingestSymbol(ctx context.Context, symbol string, articles []news.Article) (saved, dups, malformed int, err error) {
	candidates := make([]model.NewsArticle, 0, len(articles))
	for _, a := range articles {
		article := model.NewsArticle{
			Title:     strings.TrimSpace(a.Title),
			Content:   a.Content,
			URL:       a.URL,
			Timestamp: a.PublishedAt.UTC(),
			Symbols:   normalizeTags(a.Symbols, symbol),
		}
		if err := article.Validate(); err != nil {
			slog.Debug("malformed article skipped", "symbol", symbol, "title", a.Title, "error", err)
			malformed++
			continue
		}
		candidates = append(candidates, article)
	}

	if len(candidates) == 0 {
		return 0, 0, malformed, nil
	}

	titles := make([]string, len(candidates))
	for i, a := range candidates {
		titles[i] = a.Title
	}
	existing, err := n.store.ExistingTitles(ctx, titles)
	if err != nil {
		return 0, 0, malformed, err
	}

	seen := make(map[string]bool, len(candidates))
	fresh := make([]model.NewsArticle, 0, len(candidates))
	for _, a := range candidates {
		if existing[a.Title] || seen[a.Title] {
			slog.Debug("duplicate article skipped", "symbol", symbol, "title", a.Title, "error", model.ErrDuplicate)
			dups++
			continue
		}
		seen[a.Title] = true
		fresh = append(fresh, a)
	}

	if len(fresh) == 0 {
		return 0, dups, malformed, nil
	}

	saved, err = n.store.SaveArticles(ctx, fresh)
	if err != nil {
		return 0, dups, malformed, err
	}
	// Rows lost to a concurrent insert of the same title.
	if lost := len(fresh) - saved; lost > 0 {
		slog.Debug("duplicate articles skipped on insert", "symbol", symbol, "count", lost, "error", model.ErrDuplicate)
		dups += lost
	}
	return saved, dups, malformed, nil
}

// normalizeTags puts provider tags in suffixed form, drops blanks and repeats
// and keeps order. An untagged article is tagged with the queried symbol.
func normalizeTags(tags []string, queried string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, tag := range tags {
		s := model.NormalizeNewsSymbol(tag)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	if len(out) == 0 {
		if s := model.NormalizeNewsSymbol(queried); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// NewsQuery holds raw request parameters. Dates are YYYY-MM-DD.
type NewsQuery struct {
	Symbol string
	From   string
	To     string
}

// QueryNews returns articles newest first. With both dates valid it returns
// everything in [From 00:00, To 23:59:59.999999] UTC; otherwise the latest
// DefaultNewsLimit articles.
func (n *NewsIngester) QueryNews(ctx context.Context, q NewsQuery) ([]model.NewsArticle, error) {
	symbol := model.NormalizeNewsSymbol(q.Symbol)

	if from, to, ok := parseWindow(q.From, q.To); ok {
		return n.store.ArticlesBetween(ctx, symbol, from, to)
	}

	if q.From != "" || q.To != "" {
		slog.Debug("unusable news date window, returning latest", "from", q.From, "to", q.To)
	}
	return n.store.LatestArticles(ctx, symbol, DefaultNewsLimit)
}

func parseWindow(fromStr, toStr string) (from, to time.Time, ok bool) {
	if fromStr == "" || toStr == "" {
		return time.Time{}, time.Time{}, false
	}
	from, err := time.Parse("2006-01-02", strings.TrimSpace(fromStr))
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	to, err = time.Parse("2006-01-02", strings.TrimSpace(toStr))
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	if from.After(to) {
		return time.Time{}, time.Time{}, false
	}
	return from, to.Add(24*time.Hour - time.Microsecond), true
}
