package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nav21/stockAnalyzer/internal/model"
)

type Analyzer interface {
	Analyze(ctx context.Context, req model.AnalysisRequest) (string, error)
}

type AnalysisHandler struct {
	analyzer Analyzer
}

func NewAnalysisHandler(analyzer Analyzer) *AnalysisHandler {
	return &AnalysisHandler{analyzer: analyzer}
}

func (h *AnalysisHandler) Analyze(c *gin.Context) {
	var req AnalyzeRequest
	// A missing or broken body is treated like an empty question.
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Debug("unreadable analyze body", "error", err)
	}

	analysis, err := h.analyzer.Analyze(c.Request.Context(), model.AnalysisRequest{
		Question:     req.Question,
		Symbol:       req.SelectedSymbol,
		UserTimezone: req.UserTimezone,
	})
	if err != nil {
		var cfgErr *model.ConfigurationError
		if errors.As(err, &cfgErr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": cfgErr.Message})
			return
		}
		slog.Error("error analyzing question", "symbol", req.SelectedSymbol, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, AnalyzeResponse{Analysis: analysis})
}
