package quote

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nav21/stockAnalyzer/internal/model"
	"github.com/nav21/stockAnalyzer/pkg/eodhd"
)

// EODHDProvider reads the delayed real-time endpoint. The exchange suffix is
// added to the request path only; the returned quote keeps the bare symbol.
type EODHDProvider struct {
	client *eodhd.Client
}

func NewEODHDProvider(client *eodhd.Client) *EODHDProvider {
	return &EODHDProvider{client: client}
}

func (p *EODHDProvider) Name() string {
	return "EODHD"
}

func (p *EODHDProvider) Fetch(ctx context.Context, symbol string) (*Quote, error) {
	rt, err := p.client.GetRealTimeQuote(ctx, model.NormalizeNewsSymbol(symbol))
	if err != nil {
		return nil, classifyEODHD(p.Name(), symbol, err)
	}

	if !rt.Close.Valid {
		return nil, fetchErr(p.Name(), symbol, ReasonMissingField, errors.New("close"))
	}

	var ts time.Time
	if rt.Timestamp.Valid && rt.Timestamp.Value > 0 {
		ts = time.Unix(rt.Timestamp.Value, 0)
	}
	return newQuote(p.Name(), symbol, rt.Close.Value, ts)
}

// EODHDHistoryProvider backfills daily closes from the end-of-day endpoint.
type EODHDHistoryProvider struct {
	client *eodhd.Client
}

func NewEODHDHistoryProvider(client *eodhd.Client) *EODHDHistoryProvider {
	return &EODHDHistoryProvider{client: client}
}

func (p *EODHDHistoryProvider) Name() string {
	return "EODHD"
}

func (p *EODHDHistoryProvider) FetchHistory(ctx context.Context, symbol string, from, to time.Time) ([]model.HistoricalPoint, error) {
	bars, err := p.client.GetEOD(ctx, model.NormalizeNewsSymbol(symbol), eodhd.WithDateRange(from, to))
	if err != nil {
		return nil, classifyEODHD(p.Name(), symbol, err)
	}

	points := make([]model.HistoricalPoint, 0, len(bars))
	for _, bar := range bars {
		if bar.Date.IsZero() {
			continue
		}
		points = append(points, model.HistoricalPoint{Date: bar.Date, Close: bar.Close})
	}
	return points, nil
}

func classifyEODHD(provider, symbol string, err error) error {
	var apiErr *eodhd.APIError
	if errors.As(err, &apiErr) {
		return fetchErr(provider, symbol, ReasonStatus, fmt.Errorf("HTTP %d", apiErr.StatusCode))
	}
	var decodeErr *eodhd.DecodeError
	if errors.As(err, &decodeErr) {
		return fetchErr(provider, symbol, ReasonDecode, err)
	}
	return fetchErr(provider, symbol, ReasonNetwork, err)
}
