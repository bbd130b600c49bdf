package handler

import "github.com/gin-gonic/gin"

// Register mounts the REST surface on r.
func Register(r gin.IRouter, stocks *StockHandler, news *NewsHandler, analysis *AnalysisHandler) {
	api := r.Group("/api")
	api.GET("/stocks", stocks.GetStock)
	api.GET("/news", news.GetNews)
	api.POST("/analyze", analysis.Analyze)
	api.POST("/populate-historical", stocks.PopulateHistorical)

	r.GET("/health", stocks.GetHealth)
}
