package news

import (
	"context"
	"time"

	"github.com/nav21/stockAnalyzer/internal/model"
	"github.com/nav21/stockAnalyzer/pkg/eodhd"
)

// EODHDClient reads /news. EODHD tags articles in TICKER.EXCHANGE form, which
// is also the form stored.
type EODHDClient struct {
	client *eodhd.Client
	limit  int
}

func NewEODHDClient(client *eodhd.Client) *EODHDClient {
	return &EODHDClient{client: client, limit: defaultLimit}
}

func (c *EODHDClient) Name() string {
	return "EODHD"
}

func (c *EODHDClient) Fetch(ctx context.Context, symbol string, from, to *time.Time) ([]Article, error) {
	opts := []eodhd.QueryOption{eodhd.WithLimit(c.limit)}
	if from != nil || to != nil {
		var start, end time.Time
		if from != nil {
			start = *from
		}
		if to != nil {
			end = *to
		}
		opts = append(opts, eodhd.WithDateRange(start, end))
	}

	items, err := c.client.GetNews(ctx, []string{model.NormalizeNewsSymbol(symbol)}, opts...)
	if err != nil {
		return nil, err
	}

	articles := make([]Article, 0, len(items))
	for _, item := range items {
		articles = append(articles, Article{
			Title:       item.Title,
			Content:     item.Content,
			URL:         item.Link,
			PublishedAt: item.Date,
			Symbols:     item.Symbols,
			Source:      c.Name(),
		})
	}
	return articles, nil
}
