package news

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type MarketauxClient struct {
	apiKey     string
	httpClient *http.Client
}

func NewMarketauxClient(apiKey string) *MarketauxClient {
	return &MarketauxClient{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *MarketauxClient) Name() string {
	return "Marketaux"
}

func (c *MarketauxClient) Fetch(ctx context.Context, symbol string, from, to *time.Time) ([]Article, error) {
	q := url.Values{}
	q.Set("symbols", strings.TrimSuffix(symbol, ".US"))
	q.Set("filter_entities", "true")
	q.Set("language", "en")
	q.Set("api_token", c.apiKey)
	if s := dateParam(from, "2006-01-02"); s != "" {
		q.Set("published_after", s+"T00:00")
	}
	if s := dateParam(to, "2006-01-02"); s != "" {
		q.Set("published_before", s+"T23:59")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "https://api.marketaux.com/v1/news/all?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("marketaux request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("marketaux fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Provider: c.Name(), StatusCode: resp.StatusCode}
	}

	var raw marketauxResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("marketaux decode: %w", err)
	}
	if raw.Error != nil {
		return nil, fmt.Errorf("marketaux: %s", raw.Error.Message)
	}

	articles := make([]Article, 0, len(raw.Data))
	for _, item := range raw.Data {
		publishedAt, err := time.Parse(time.RFC3339Nano, item.PublishedAt)
		if err != nil {
			publishedAt = time.Time{}
		}

		content := item.Description
		if content == "" {
			content = item.Snippet
		}

		symbols := make([]string, 0, len(item.Entities))
		for _, e := range item.Entities {
			if e.Symbol != "" {
				symbols = append(symbols, e.Symbol)
			}
		}

		articles = append(articles, Article{
			Title:       item.Title,
			Content:     content,
			URL:         item.URL,
			PublishedAt: publishedAt.UTC(),
			Symbols:     symbols,
			Source:      c.Name(),
		})
	}

	return articles, nil
}

type marketauxResponse struct {
	Data  []marketauxItem `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type marketauxItem struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Snippet     string `json:"snippet"`
	URL         string `json:"url"`
	PublishedAt string `json:"published_at"`
	Entities    []struct {
		Symbol string `json:"symbol"`
	} `json:"entities"`
}
