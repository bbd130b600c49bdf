package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nav21/stockAnalyzer/internal/model"
	"github.com/nav21/stockAnalyzer/internal/pipeline"
)

const defaultSymbol = "AAPL"

type PriceStore interface {
	LatestTick(ctx context.Context, symbol string) (*model.PriceTick, error)
	Ping(ctx context.Context) error
}

type Backfiller interface {
	PopulateHistorical(ctx context.Context, symbols []string, start, end time.Time) (pipeline.BackfillStats, error)
}

type StockHandler struct {
	repository PriceStore
	backfill   Backfiller
	symbols    []string
}

// NewStockHandler serves prices and backfill. symbols is the configured
// watch list used when a backfill request names none.
func NewStockHandler(repository PriceStore, backfill Backfiller, symbols []string) *StockHandler {
	return &StockHandler{repository: repository, backfill: backfill, symbols: symbols}
}

func (h *StockHandler) GetStock(c *gin.Context) {
	symbol := strings.ToUpper(strings.TrimSpace(c.DefaultQuery("symbol", defaultSymbol)))
	if symbol == "" {
		symbol = defaultSymbol
	}

	tick, err := h.repository.LatestTick(c.Request.Context(), symbol)
	if err != nil {
		slog.Error("error fetching latest price", "symbol", symbol, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if tick == nil {
		c.JSON(http.StatusOK, gin.H{})
		return
	}

	c.JSON(http.StatusOK, map[string]StockResponse{
		symbol: {
			Price:     tick.Price,
			Timestamp: tick.Timestamp.UTC().Format(time.RFC3339),
		},
	})
}

func (h *StockHandler) PopulateHistorical(c *gin.Context) {
	var req PopulateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if req.StartDate == "" || req.EndDate == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start_date and end_date are required"})
		return
	}

	start, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start_date must be YYYY-MM-DD"})
		return
	}
	end, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "end_date must be YYYY-MM-DD"})
		return
	}

	symbols := model.NormalizeSymbols(req.Symbols)
	if len(symbols) == 0 {
		symbols = h.symbols
	}

	stats, err := h.backfill.PopulateHistorical(c.Request.Context(), symbols, start, end)
	if err != nil {
		var cfgErr *model.ConfigurationError
		if errors.As(err, &cfgErr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": cfgErr.Message})
			return
		}
		slog.Error("error populating historical data", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if stats.AllFailed() {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Historical data fetch failed for every symbol"})
		return
	}

	c.JSON(http.StatusOK, PopulateResponse{
		Message: fmt.Sprintf("Historical data populated from %s to %s for %d symbols",
			req.StartDate, req.EndDate, stats.Symbols-stats.Failed),
		Inserted: stats.Inserted,
		Existing: stats.Existing,
		Failed:   stats.Failed,
	})
}

func (h *StockHandler) GetHealth(c *gin.Context) {
	if err := h.repository.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":   "unhealthy",
			"database": "disconnected",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"database": "connected",
	})
}
