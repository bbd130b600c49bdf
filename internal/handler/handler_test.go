package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/assert/v2"

	"github.com/nav21/stockAnalyzer/internal/model"
	"github.com/nav21/stockAnalyzer/internal/pipeline"
)

type fakePriceStore struct {
	ticks   map[string]model.PriceTick
	err     error
	pingErr error
}

func (f *fakePriceStore) LatestTick(ctx context.Context, symbol string) (*model.PriceTick, error) {
	if f.err != nil {
		return nil, f.err
	}
	t, ok := f.ticks[symbol]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (f *fakePriceStore) Ping(ctx context.Context) error {
	return f.pingErr
}

type fakeBackfill struct {
	stats   pipeline.BackfillStats
	err     error
	symbols []string
	start   time.Time
	end     time.Time
}

func (f *fakeBackfill) PopulateHistorical(ctx context.Context, symbols []string, start, end time.Time) (pipeline.BackfillStats, error) {
	f.symbols, f.start, f.end = symbols, start, end
	return f.stats, f.err
}

type fakeNews struct {
	articles []model.NewsArticle
	err      error
	query    pipeline.NewsQuery
}

func (f *fakeNews) QueryNews(ctx context.Context, q pipeline.NewsQuery) ([]model.NewsArticle, error) {
	f.query = q
	return f.articles, f.err
}

type fakeAnalyzer struct {
	answer string
	err    error
	req    model.AnalysisRequest
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, req model.AnalysisRequest) (string, error) {
	f.req = req
	if strings.TrimSpace(req.Question) == "" {
		return "", model.NewConfigurationError("Question is required")
	}
	return f.answer, f.err
}

type testDeps struct {
	prices   *fakePriceStore
	backfill *fakeBackfill
	news     *fakeNews
	analyzer *fakeAnalyzer
}

func newTestRouter(d testDeps) *gin.Engine {
	gin.SetMode(gin.TestMode)
	if d.prices == nil {
		d.prices = &fakePriceStore{}
	}
	if d.backfill == nil {
		d.backfill = &fakeBackfill{}
	}
	if d.news == nil {
		d.news = &fakeNews{}
	}
	if d.analyzer == nil {
		d.analyzer = &fakeAnalyzer{}
	}
	r := gin.New()
	Register(r,
		NewStockHandler(d.prices, d.backfill, []string{"AAPL", "MSFT"}),
		NewNewsHandler(d.news),
		NewAnalysisHandler(d.analyzer),
	)
	return r
}

func do(r *gin.Engine, method, target, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	r.ServeHTTP(w, req)
	return w
}

func TestGetStock_LatestTick(t *testing.T) {
	ts := time.Date(2025, 6, 2, 15, 30, 0, 0, time.UTC)
	prices := &fakePriceStore{ticks: map[string]model.PriceTick{
		"MSFT": {Symbol: "MSFT", Price: 412.5, Timestamp: ts},
	}}
	r := newTestRouter(testDeps{prices: prices})

	w := do(r, "GET", "/api/stocks?symbol=msft", "")
	assert.Equal(t, http.StatusOK, w.Code)

	var res map[string]StockResponse
	json.Unmarshal(w.Body.Bytes(), &res)
	assert.Equal(t, res["MSFT"].Price, 412.5)
	assert.Equal(t, res["MSFT"].Timestamp, "2025-06-02T15:30:00Z")
}

func TestGetStock_DefaultsToAAPL(t *testing.T) {
	prices := &fakePriceStore{ticks: map[string]model.PriceTick{
		"AAPL": {Symbol: "AAPL", Price: 150, Timestamp: time.Now()},
	}}
	r := newTestRouter(testDeps{prices: prices})

	w := do(r, "GET", "/api/stocks", "")
	assert.Equal(t, http.StatusOK, w.Code)

	var res map[string]StockResponse
	json.Unmarshal(w.Body.Bytes(), &res)
	_, ok := res["AAPL"]
	assert.Equal(t, ok, true)
}

func TestGetStock_NoData(t *testing.T) {
	r := newTestRouter(testDeps{})

	w := do(r, "GET", "/api/stocks?symbol=TSLA", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, w.Body.String(), "{}")
}

func TestGetStock_StoreError(t *testing.T) {
	r := newTestRouter(testDeps{prices: &fakePriceStore{err: errors.New("boom")}})

	w := do(r, "GET", "/api/stocks", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestGetNews_PassesQuery(t *testing.T) {
	news := &fakeNews{articles: []model.NewsArticle{
		{Title: "Apple beats", Content: "c", URL: "u", Timestamp: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC), Symbols: []string{"AAPL.US"}},
		{Title: "No tags", Timestamp: time.Date(2025, 5, 31, 12, 0, 0, 0, time.UTC)},
	}}
	r := newTestRouter(testDeps{news: news})

	w := do(r, "GET", "/api/news?symbol=AAPL&from_date=2025-05-01&to_date=2025-06-01", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, news.query, pipeline.NewsQuery{Symbol: "AAPL", From: "2025-05-01", To: "2025-06-01"})

	var res []NewsResponse
	json.Unmarshal(w.Body.Bytes(), &res)
	assert.Equal(t, len(res), 2)
	assert.Equal(t, res[0].Title, "Apple beats")
	assert.Equal(t, res[0].Timestamp, "2025-06-01T12:00:00Z")
	assert.Equal(t, res[0].Symbols, []string{"AAPL.US"})
	assert.Equal(t, len(res[1].Symbols), 0)
	assert.Equal(t, strings.Contains(w.Body.String(), `"symbols":[]`), true)
}

func TestGetNews_EmptyIsArray(t *testing.T) {
	r := newTestRouter(testDeps{})

	w := do(r, "GET", "/api/news", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, w.Body.String(), "[]")
}

func TestGetNews_StoreError(t *testing.T) {
	r := newTestRouter(testDeps{news: &fakeNews{err: errors.New("boom")}})

	w := do(r, "GET", "/api/news", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestAnalyze_MissingQuestion(t *testing.T) {
	r := newTestRouter(testDeps{})

	w := do(r, "POST", "/api/analyze", `{"selectedSymbol":"AAPL"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, w.Body.String(), `{"error":"Question is required"}`)
}

func TestAnalyze_EmptyBody(t *testing.T) {
	r := newTestRouter(testDeps{})

	w := do(r, "POST", "/api/analyze", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, w.Body.String(), `{"error":"Question is required"}`)
}

func TestAnalyze_ReturnsAnswer(t *testing.T) {
	analyzer := &fakeAnalyzer{answer: "It went up."}
	r := newTestRouter(testDeps{analyzer: analyzer})

	w := do(r, "POST", "/api/analyze", `{"question":"Why?","selectedSymbol":"TSLA","userTimezone":"Europe/Berlin"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, analyzer.req, model.AnalysisRequest{Question: "Why?", Symbol: "TSLA", UserTimezone: "Europe/Berlin"})

	var res AnalyzeResponse
	json.Unmarshal(w.Body.Bytes(), &res)
	assert.Equal(t, res.Analysis, "It went up.")
}

func TestAnalyze_GenerationFailure(t *testing.T) {
	analyzer := &fakeAnalyzer{err: fmt.Errorf("%w: quota", model.ErrGeneration)}
	r := newTestRouter(testDeps{analyzer: analyzer})

	w := do(r, "POST", "/api/analyze", `{"question":"Why?"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var res map[string]string
	json.Unmarshal(w.Body.Bytes(), &res)
	assert.Equal(t, res["error"], "generation error: quota")
}

func TestPopulate_RequiresDates(t *testing.T) {
	r := newTestRouter(testDeps{})

	w := do(r, "POST", "/api/populate-historical", `{"start_date":"2025-01-01"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, "POST", "/api/populate-historical", `{"start_date":"01/01/2025","end_date":"2025-02-01"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, "POST", "/api/populate-historical", `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPopulate_DefaultsToConfiguredSymbols(t *testing.T) {
	backfill := &fakeBackfill{stats: pipeline.BackfillStats{Symbols: 2, Inserted: 40}}
	r := newTestRouter(testDeps{backfill: backfill})

	w := do(r, "POST", "/api/populate-historical", `{"start_date":"2025-01-01","end_date":"2025-01-31"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, backfill.symbols, []string{"AAPL", "MSFT"})
	assert.Equal(t, backfill.start, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, backfill.end, time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC))

	var res PopulateResponse
	json.Unmarshal(w.Body.Bytes(), &res)
	assert.Equal(t, res.Inserted, 40)
	assert.NotEqual(t, res.Message, "")
}

func TestPopulate_RequestSymbols(t *testing.T) {
	backfill := &fakeBackfill{stats: pipeline.BackfillStats{Symbols: 1}}
	r := newTestRouter(testDeps{backfill: backfill})

	w := do(r, "POST", "/api/populate-historical", `{"start_date":"2025-01-01","end_date":"2025-01-31","symbols":["NVDA"]}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, backfill.symbols, []string{"NVDA"})
}

func TestPopulate_ConfigurationError(t *testing.T) {
	backfill := &fakeBackfill{err: model.NewConfigurationError("start_date must not be after end_date")}
	r := newTestRouter(testDeps{backfill: backfill})

	w := do(r, "POST", "/api/populate-historical", `{"start_date":"2025-02-01","end_date":"2025-01-01"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, w.Body.String(), `{"error":"start_date must not be after end_date"}`)
}

func TestPopulate_AllFailed(t *testing.T) {
	backfill := &fakeBackfill{stats: pipeline.BackfillStats{Symbols: 2, Failed: 2}}
	r := newTestRouter(testDeps{backfill: backfill})

	w := do(r, "POST", "/api/populate-historical", `{"start_date":"2025-01-01","end_date":"2025-01-31"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestGetHealth(t *testing.T) {
	r := newTestRouter(testDeps{})
	w := do(r, "GET", "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)

	r = newTestRouter(testDeps{prices: &fakePriceStore{pingErr: errors.New("down")}})
	w = do(r, "GET", "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var res map[string]string
	json.Unmarshal(w.Body.Bytes(), &res)
	assert.Equal(t, res["database"], "disconnected")
}

func TestPopulate_NormalizesRequestSymbols(t *testing.T) {
	backfill := &fakeBackfill{stats: pipeline.BackfillStats{Symbols: 1}}
	r := newTestRouter(testDeps{backfill: backfill})

	w := do(r, "POST", "/api/populate-historical", `{"start_date":"2025-01-01","end_date":"2025-01-31","symbols":["nvda"," NVDA ",""]}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, backfill.symbols, []string{"NVDA"})
}

func TestPopulate_BlankSymbolsUseWatchList(t *testing.T) {
	backfill := &fakeBackfill{stats: pipeline.BackfillStats{Symbols: 2}}
	r := newTestRouter(testDeps{backfill: backfill})

	w := do(r, "POST", "/api/populate-historical", `{"start_date":"2025-01-01","end_date":"2025-01-31","symbols":["  "]}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, backfill.symbols, []string{"AAPL", "MSFT"})
}
