package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nav21/stockAnalyzer/internal/model"
	"github.com/nav21/stockAnalyzer/internal/pipeline"
)

type NewsQuerier interface {
	QueryNews(ctx context.Context, q pipeline.NewsQuery) ([]model.NewsArticle, error)
}

type NewsHandler struct {
	news NewsQuerier
}

func NewNewsHandler(news NewsQuerier) *NewsHandler {
	return &NewsHandler{news: news}
}

// GetNews returns the latest articles for symbol, or every article between
// from_date and to_date when both are valid.
func (h *NewsHandler) GetNews(c *gin.Context) {
	q := pipeline.NewsQuery{
		Symbol: c.Query("symbol"),
		From:   c.Query("from_date"),
		To:     c.Query("to_date"),
	}

	articles, err := h.news.QueryNews(c.Request.Context(), q)
	if err != nil {
		slog.Error("error fetching news", "symbol", q.Symbol, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	res := make([]NewsResponse, 0, len(articles))
	for _, a := range articles {
		symbols := a.Symbols
		if symbols == nil {
			symbols = []string{}
		}
		res = append(res, NewsResponse{
			Title:     a.Title,
			Content:   a.Content,
			URL:       a.URL,
			Timestamp: a.Timestamp.UTC().Format(time.RFC3339),
			Symbols:   symbols,
		})
	}

	c.JSON(http.StatusOK, res)
}
