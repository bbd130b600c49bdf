package quote

import (
	"context"
	"errors"
	"fmt"
	"time"

	finnhub "github.com/Finnhub-Stock-API/finnhub-go/v2"
)

// FinnhubProvider reads /quote through the official SDK.
type FinnhubProvider struct {
	client *finnhub.DefaultApiService
}

func NewFinnhubProvider(apiKey string) *FinnhubProvider {
	cfg := finnhub.NewConfiguration()
	cfg.AddDefaultHeader("X-Finnhub-Token", apiKey)
	client := finnhub.NewAPIClient(cfg).DefaultApi
	return &FinnhubProvider{client: client}
}

func (p *FinnhubProvider) Name() string {
	return "Finnhub"
}

func (p *FinnhubProvider) Fetch(ctx context.Context, symbol string) (*Quote, error) {
	res, httpResp, err := p.client.Quote(ctx).Symbol(symbol).Execute()
	if err != nil {
		if httpResp != nil && httpResp.StatusCode >= 300 {
			return nil, fetchErr(p.Name(), symbol, ReasonStatus, fmt.Errorf("HTTP %d", httpResp.StatusCode))
		}
		return nil, fetchErr(p.Name(), symbol, ReasonNetwork, err)
	}

	// Unknown tickers come back as an all-zero quote.
	if res.C == nil {
		return nil, fetchErr(p.Name(), symbol, ReasonMissingField, errors.New("c"))
	}

	// The SDK's Quote model does not expose the trade time.
	return newQuote(p.Name(), symbol, float64(*res.C), time.Time{})
}
