package quote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"

	"github.com/nav21/stockAnalyzer/pkg/eodhd"
)

// rewriteTransport redirects all requests to a fixed base URL (test server).
type rewriteTransport struct {
	base  string
	inner http.RoundTripper
}

func (rt *rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req2 := req.Clone(req.Context())
	parsed, _ := http.NewRequest("GET", rt.base, nil)
	req2.URL.Host = parsed.URL.Host
	req2.URL.Scheme = parsed.URL.Scheme
	return rt.inner.RoundTrip(req2)
}

func redirectedClient(srv *httptest.Server) *http.Client {
	client := srv.Client()
	client.Transport = &rewriteTransport{base: srv.URL, inner: http.DefaultTransport}
	return client
}

func reasonOf(t *testing.T, err error) string {
	t.Helper()
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FetchError, got %v", err)
	}
	return fe.Reason
}

func TestEODHDProviderFetch(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"code":"AAPL.US","timestamp":1748772000,"close":150}`))
	}))
	defer srv.Close()

	p := NewEODHDProvider(eodhd.NewClient("k", eodhd.WithBaseURL(srv.URL)))
	q, err := p.Fetch(context.Background(), "AAPL")

	assert.Equal(t, nil, err)
	assert.Equal(t, "/real-time/AAPL.US", gotPath)
	assert.Equal(t, "AAPL", q.Symbol)
	assert.Equal(t, 150.0, q.Price)
	assert.Equal(t, true, q.HasTimestamp)
	assert.Equal(t, time.Unix(1748772000, 0).UTC(), q.Timestamp)
}

func TestEODHDProviderFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		reason string
	}{
		{"status", http.StatusNotFound, `Ticker Not Found.`, ReasonStatus},
		{"decode", http.StatusOK, `<html>`, ReasonDecode},
		{"missing close", http.StatusOK, `{"code":"AAPL.US","timestamp":1}`, ReasonMissingField},
		{"not available", http.StatusOK, `{"code":"AAPL.US","timestamp":1,"close":"NA"}`, ReasonMissingField},
		{"all NA", http.StatusOK, `{"code":"AAPL.US","timestamp":"NA","close":"NA"}`, ReasonMissingField},
		{"zero price", http.StatusOK, `{"code":"AAPL.US","timestamp":1,"close":0}`, ReasonNonPositivePrice},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			p := NewEODHDProvider(eodhd.NewClient("k", eodhd.WithBaseURL(srv.URL)))
			q, err := p.Fetch(context.Background(), "AAPL")

			assert.Equal(t, (*Quote)(nil), q)
			assert.Equal(t, true, errors.Is(err, ErrFetch))
			assert.Equal(t, tt.reason, reasonOf(t, err))
		})
	}
}

func TestEODHDProviderNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	p := NewEODHDProvider(eodhd.NewClient("k", eodhd.WithBaseURL(url)))
	_, err := p.Fetch(context.Background(), "AAPL")

	assert.Equal(t, ReasonNetwork, reasonOf(t, err))
}

func TestEODHDHistoryProvider(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]map[string]interface{}{
			{"date": "2025-06-02", "close": 201.7},
			{"date": "not-a-date", "close": 1},
			{"date": "2025-06-03", "close": 203.27},
		})
	}))
	defer srv.Close()

	p := NewEODHDHistoryProvider(eodhd.NewClient("k", eodhd.WithBaseURL(srv.URL)))
	from := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	points, err := p.FetchHistory(context.Background(), "AAPL", from, from.AddDate(0, 0, 3))

	assert.Equal(t, nil, err)
	assert.Equal(t, 2, len(points))
	assert.Equal(t, 201.7, points[0].Close)
	assert.Equal(t, time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC), points[1].Date)
}

func TestAlphaVantageProviderFetch(t *testing.T) {
	var gotSymbol string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSymbol = r.URL.Query().Get("symbol")
		w.Write([]byte(`{"Global Quote": {"01. symbol": "AAPL", "05. price": "150.2500"}}`))
	}))
	defer srv.Close()

	p := &AlphaVantageProvider{apiKey: "k", httpClient: redirectedClient(srv)}
	q, err := p.Fetch(context.Background(), "AAPL")

	assert.Equal(t, nil, err)
	assert.Equal(t, "AAPL", gotSymbol)
	assert.Equal(t, 150.25, q.Price)
	assert.Equal(t, false, q.HasTimestamp)
}

func TestAlphaVantageProviderFailures(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		reason string
	}{
		{"rate limited", `{"Note": "Thank you for using Alpha Vantage!"}`, ReasonMissingField},
		{"empty quote", `{"Global Quote": {}}`, ReasonMissingField},
		{"bad number", `{"Global Quote": {"05. price": "abc"}}`, ReasonDecode},
		{"negative", `{"Global Quote": {"05. price": "-1.00"}}`, ReasonNonPositivePrice},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			p := &AlphaVantageProvider{apiKey: "k", httpClient: redirectedClient(srv)}
			_, err := p.Fetch(context.Background(), "AAPL")

			assert.Equal(t, tt.reason, reasonOf(t, err))
		})
	}
}

func TestYahooProviderFetch(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"chart":{"result":[{"meta":{"symbol":"AAPL","regularMarketPrice":151.5,"regularMarketTime":1748772000}}],"error":null}}`))
	}))
	defer srv.Close()

	p := &YahooProvider{httpClient: redirectedClient(srv)}
	q, err := p.Fetch(context.Background(), "AAPL")

	assert.Equal(t, nil, err)
	assert.Equal(t, "/v8/finance/chart/AAPL", gotPath)
	assert.Equal(t, 151.5, q.Price)
	assert.Equal(t, time.Unix(1748772000, 0).UTC(), q.Timestamp)
}

func TestYahooProviderChartError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`))
	}))
	defer srv.Close()

	p := &YahooProvider{httpClient: redirectedClient(srv)}
	_, err := p.Fetch(context.Background(), "NOPE")

	assert.Equal(t, ReasonStatus, reasonOf(t, err))
}

func TestYahooProviderFetchHistory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"chart":{"result":[{"meta":{},
			"timestamp":[1748871000,1748784600,1748957400],
			"indicators":{"quote":[{"close":[201.7,null,203.27]}]}}]}}`))
	}))
	defer srv.Close()

	p := &YahooProvider{httpClient: redirectedClient(srv)}
	from := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	points, err := p.FetchHistory(context.Background(), "AAPL", from, from.AddDate(0, 0, 3))

	assert.Equal(t, nil, err)
	assert.Equal(t, 2, len(points))
	assert.Equal(t, 201.7, points[0].Close)
	assert.Equal(t, 203.27, points[1].Close)
}

func TestFetchErrorMessage(t *testing.T) {
	err := fetchErr("EODHD", "AAPL", ReasonStatus, errors.New("HTTP 500"))

	assert.Equal(t, "EODHD AAPL: status: HTTP 500", err.Error())
	assert.Equal(t, true, errors.Is(err, ErrFetch))
}
