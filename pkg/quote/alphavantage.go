package quote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// AlphaVantageProvider reads GLOBAL_QUOTE. The endpoint carries no trade
// time, so quotes come back without a timestamp.
type AlphaVantageProvider struct {
	apiKey     string
	httpClient *http.Client
}

func NewAlphaVantageProvider(apiKey string) *AlphaVantageProvider {
	return &AlphaVantageProvider{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (p *AlphaVantageProvider) Name() string {
	return "AlphaVantage"
}

func (p *AlphaVantageProvider) Fetch(ctx context.Context, symbol string) (*Quote, error) {
	u := fmt.Sprintf(
		"https://www.alphavantage.co/query?function=GLOBAL_QUOTE&symbol=%s&apikey=%s",
		url.QueryEscape(symbol), p.apiKey,
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fetchErr(p.Name(), symbol, ReasonNetwork, err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fetchErr(p.Name(), symbol, ReasonNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fetchErr(p.Name(), symbol, ReasonStatus, fmt.Errorf("HTTP %d", resp.StatusCode))
	}

	var raw avQuoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fetchErr(p.Name(), symbol, ReasonDecode, err)
	}

	// Rate-limit notes arrive as 200 with no quote object.
	if raw.GlobalQuote == nil {
		reason := raw.Note
		if reason == "" {
			reason = raw.Information
		}
		if reason == "" {
			reason = "Global Quote"
		}
		return nil, fetchErr(p.Name(), symbol, ReasonMissingField, errors.New(reason))
	}

	priceStr := strings.TrimSpace(raw.GlobalQuote.Price)
	if priceStr == "" {
		return nil, fetchErr(p.Name(), symbol, ReasonMissingField, errors.New("05. price"))
	}
	price, err := strconv.ParseFloat(priceStr, 64)
	if err != nil {
		return nil, fetchErr(p.Name(), symbol, ReasonDecode, err)
	}

	return newQuote(p.Name(), symbol, price, time.Time{})
}

type avQuoteResponse struct {
	GlobalQuote *avGlobalQuote `json:"Global Quote"`
	Note        string         `json:"Note"`
	Information string         `json:"Information"`
}

type avGlobalQuote struct {
	Symbol string `json:"01. symbol"`
	Price  string `json:"05. price"`
}
