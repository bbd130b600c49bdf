package news

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

const yahooHeadlineFeed = "https://feeds.finance.yahoo.com/rss/2.0/headline?s=%s&region=US&lang=en-US"

// RSSClient reads a per-ticker headline feed. Feeds carry no ticker tags, so
// every item is tagged with the queried symbol. The window is applied
// locally because feeds cannot be filtered server-side.
type RSSClient struct {
	feedURL string
	parser  *gofeed.Parser
}

func NewRSSClient() *RSSClient {
	return &RSSClient{
		feedURL: yahooHeadlineFeed,
		parser:  gofeed.NewParser(),
	}
}

func (c *RSSClient) Name() string {
	return "RSS"
}

func (c *RSSClient) Fetch(ctx context.Context, symbol string, from, to *time.Time) ([]Article, error) {
	ticker := strings.TrimSuffix(symbol, ".US")
	feed, err := c.parser.ParseURLWithContext(fmt.Sprintf(c.feedURL, url.QueryEscape(ticker)), ctx)
	if err != nil {
		return nil, fmt.Errorf("parse RSS %s: %w", ticker, err)
	}

	var end time.Time
	if to != nil {
		end = to.UTC().AddDate(0, 0, 1)
	}

	articles := make([]Article, 0, len(feed.Items))
	for _, item := range feed.Items {
		a := Article{
			Title:   strings.TrimSpace(item.Title),
			Content: strings.TrimSpace(item.Description),
			URL:     item.Link,
			Symbols: []string{ticker},
			Source:  c.Name(),
		}
		if item.PublishedParsed != nil {
			a.PublishedAt = item.PublishedParsed.UTC()
		}

		if !a.PublishedAt.IsZero() {
			if from != nil && a.PublishedAt.Before(from.UTC()) {
				continue
			}
			if to != nil && !a.PublishedAt.Before(end) {
				continue
			}
		}

		articles = append(articles, a)
	}

	return articles, nil
}
