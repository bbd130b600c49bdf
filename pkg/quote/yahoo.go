package quote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/nav21/stockAnalyzer/internal/model"
)

// YahooProvider uses the public chart API. It serves both latest quotes and
// daily history and needs no key.
type YahooProvider struct {
	httpClient *http.Client
}

func NewYahooProvider() *YahooProvider {
	return &YahooProvider{
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (p *YahooProvider) Name() string {
	return "Yahoo"
}

func (p *YahooProvider) Fetch(ctx context.Context, symbol string) (*Quote, error) {
	query := url.Values{}
	query.Set("interval", "1d")
	query.Set("range", "1d")

	chart, err := p.fetchChart(ctx, symbol, query)
	if err != nil {
		return nil, err
	}

	meta := chart.Meta
	if meta.RegularMarketPrice == nil {
		return nil, fetchErr(p.Name(), symbol, ReasonMissingField, errors.New("regularMarketPrice"))
	}

	var ts time.Time
	if meta.RegularMarketTime > 0 {
		ts = time.Unix(meta.RegularMarketTime, 0)
	}
	return newQuote(p.Name(), symbol, *meta.RegularMarketPrice, ts)
}

func (p *YahooProvider) FetchHistory(ctx context.Context, symbol string, from, to time.Time) ([]model.HistoricalPoint, error) {
	query := url.Values{}
	query.Set("interval", "1d")
	query.Set("period1", fmt.Sprint(from.Unix()))
	// period2 is exclusive.
	query.Set("period2", fmt.Sprint(to.AddDate(0, 0, 1).Unix()))

	chart, err := p.fetchChart(ctx, symbol, query)
	if err != nil {
		return nil, err
	}

	var closes []*float64
	if len(chart.Indicators.Quote) > 0 {
		closes = chart.Indicators.Quote[0].Close
	}

	points := make([]model.HistoricalPoint, 0, len(chart.Timestamp))
	for i, ts := range chart.Timestamp {
		if i >= len(closes) || closes[i] == nil {
			continue // holidays and halts
		}
		points = append(points, model.HistoricalPoint{
			Date:  time.Unix(ts, 0).UTC(),
			Close: *closes[i],
		})
	}

	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
	return points, nil
}

func (p *YahooProvider) fetchChart(ctx context.Context, symbol string, query url.Values) (*yahooResult, error) {
	u := fmt.Sprintf("https://query1.finance.yahoo.com/v8/finance/chart/%s?%s",
		url.PathEscape(symbol), query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fetchErr(p.Name(), symbol, ReasonNetwork, err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fetchErr(p.Name(), symbol, ReasonNetwork, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fetchErr(p.Name(), symbol, ReasonNetwork, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fetchErr(p.Name(), symbol, ReasonStatus, fmt.Errorf("HTTP %d", resp.StatusCode))
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fetchErr(p.Name(), symbol, ReasonDecode, err)
	}
	if chart.Chart.Error != nil {
		return nil, fetchErr(p.Name(), symbol, ReasonStatus, errors.New(chart.Chart.Error.Description))
	}
	if len(chart.Chart.Result) == 0 {
		return nil, fetchErr(p.Name(), symbol, ReasonMissingField, errors.New("chart.result"))
	}
	return &chart.Chart.Result[0], nil
}

type yahooChart struct {
	Chart struct {
		Result []yahooResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type yahooResult struct {
	Meta struct {
		Symbol             string   `json:"symbol"`
		RegularMarketPrice *float64 `json:"regularMarketPrice"`
		RegularMarketTime  int64    `json:"regularMarketTime"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Close []*float64 `json:"close"`
		} `json:"quote"`
	} `json:"indicators"`
}
