package news

import (
	"context"
	"strings"
	"time"

	finnhub "github.com/Finnhub-Stock-API/finnhub-go/v2"
)

// FinnHubClient reads company news. Finnhub requires both dates, so an open
// window means the last seven days.
type FinnHubClient struct {
	client *finnhub.DefaultApiService
	now    func() time.Time
}

func NewFinnHubClient(apiKey string) *FinnHubClient {
	cfg := finnhub.NewConfiguration()
	cfg.AddDefaultHeader("X-Finnhub-Token", apiKey)
	client := finnhub.NewAPIClient(cfg).DefaultApi
	return &FinnHubClient{client: client, now: time.Now}
}

func (c *FinnHubClient) Fetch(ctx context.Context, symbol string, from, to *time.Time) ([]Article, error) {
	end := c.now().UTC()
	if to != nil {
		end = to.UTC()
	}
	start := end.AddDate(0, 0, -7)
	if from != nil {
		start = from.UTC()
	}

	res, _, err := c.client.CompanyNews(ctx).
		Symbol(strings.TrimSuffix(symbol, ".US")).
		From(start.Format("2006-01-02")).
		To(end.Format("2006-01-02")).
		Execute()
	if err != nil {
		return nil, err
	}

	articles := make([]Article, 0, len(res))
	for _, news := range res {
		a := Article{
			Source: c.Name(),
		}

		if news.Headline != nil {
			a.Title = *news.Headline
		}

		if news.Summary != nil {
			a.Content = *news.Summary
		}

		if news.Url != nil {
			a.URL = *news.Url
		}

		if news.Datetime != nil && *news.Datetime > 0 {
			a.PublishedAt = time.Unix(*news.Datetime, 0).UTC()
		}

		if news.Related != nil && *news.Related != "" {
			a.Symbols = strings.Split(*news.Related, ",")
		} else {
			a.Symbols = []string{}
		}

		articles = append(articles, a)
	}

	return articles, nil
}

func (c *FinnHubClient) Name() string {
	return "FinnHub"
}
