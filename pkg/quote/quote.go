// Package quote adapts external market data APIs to a single quote
// capability: the latest price of one ticker, and optionally its daily
// closing history.
package quote

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nav21/stockAnalyzer/internal/model"
)

// Quote is a provider's view of the latest trade. HasTimestamp is false when
// the provider only reports a price.
type Quote struct {
	Symbol       string
	Price        float64
	Timestamp    time.Time
	HasTimestamp bool
}

type Provider interface {
	Name() string
	Fetch(ctx context.Context, symbol string) (*Quote, error)
}

type HistoryProvider interface {
	Name() string
	FetchHistory(ctx context.Context, symbol string, from, to time.Time) ([]model.HistoricalPoint, error)
}

var ErrFetch = errors.New("quote fetch failed")

// Failure reasons carried by FetchError.
const (
	ReasonNetwork          = "network"
	ReasonStatus           = "status"
	ReasonDecode           = "decode"
	ReasonMissingField     = "missing_field"
	ReasonNonPositivePrice = "non_positive_price"
)

type FetchError struct {
	Provider string
	Symbol   string
	Reason   string
	Err      error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %s: %v", e.Provider, e.Symbol, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s %s: %s", e.Provider, e.Symbol, e.Reason)
}

func (e *FetchError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrFetch}
	}
	return []error{ErrFetch, e.Err}
}

func fetchErr(provider, symbol, reason string, err error) *FetchError {
	return &FetchError{Provider: provider, Symbol: symbol, Reason: reason, Err: err}
}

// newQuote rejects prices the store would refuse anyway.
func newQuote(provider, symbol string, price float64, ts time.Time) (*Quote, error) {
	if price <= 0 {
		return nil, fetchErr(provider, symbol, ReasonNonPositivePrice, fmt.Errorf("price %v", price))
	}
	q := &Quote{Symbol: symbol, Price: price}
	if !ts.IsZero() {
		q.Timestamp = ts.UTC()
		q.HasTimestamp = true
	}
	return q, nil
}
