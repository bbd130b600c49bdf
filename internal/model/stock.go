package model

import (
	"math"
	"strings"
	"time"
)

const ExchangeSuffix = ".US"

type PriceTick struct {
	ID        int64
	Symbol    string
	Price     float64
	Timestamp time.Time
}

func (t PriceTick) Validate() error {
	if strings.TrimSpace(t.Symbol) == "" {
		return &ValidationError{Field: "symbol", Reason: "empty"}
	}
	if math.IsNaN(t.Price) || math.IsInf(t.Price, 0) {
		return &ValidationError{Field: "price", Reason: "not a number"}
	}
	if t.Price <= 0 {
		return &ValidationError{Field: "price", Reason: "must be positive"}
	}
	if t.Timestamp.IsZero() {
		return &ValidationError{Field: "timestamp", Reason: "missing"}
	}
	return nil
}

// HistoricalPoint is one daily close returned by a history provider.
type HistoricalPoint struct {
	Date  time.Time
	Close float64
}

type AnalysisRequest struct {
	Question     string
	Symbol       string
	UserTimezone string
}

// DateRange is a day-precision range. Either end may be unknown.
type DateRange struct {
	Start *time.Time
	End   *time.Time
}

func (r DateRange) IsEmpty() bool {
	return r.Start == nil && r.End == nil
}

// NormalizeNewsSymbol returns the exchange-suffixed form used to tag and
// query news. Prices are stored under the bare ticker and never pass through here.
func NormalizeNewsSymbol(symbol string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if s == "" {
		return ""
	}
	if strings.Contains(s, ".") {
		return s
	}
	return s + ExchangeSuffix
}

// NormalizeSymbols upper-cases and trims tickers, dropping blanks and
// repeats while keeping order.
func NormalizeSymbols(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, s := range in {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// DateKey is the calendar-date dedup key for backfilled ticks.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
