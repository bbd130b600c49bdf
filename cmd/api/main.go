package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/nav21/stockAnalyzer/internal/app"
	"github.com/nav21/stockAnalyzer/internal/config"
	"github.com/nav21/stockAnalyzer/internal/handler"
)

func main() {
	cfg, err := config.Load(config.Path())
	if err != nil {
		log.Fatalf("error loading config: %v", err)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})))

	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalf("error starting app: %v", err)
	}
	defer a.Close()

	sched := a.Scheduler(ctx)
	if err := sched.Register(cfg.Ingestion.PriceSchedule, cfg.Ingestion.NewsSchedule); err != nil {
		log.Fatalf("error registering jobs: %v", err)
	}
	if cfg.Ingestion.RunOnStart {
		go sched.RunNow()
	}
	sched.Start()

	r := gin.Default()

	allowedOrigins := []string{"http://localhost:3000"}

	if cfg.Server.FrontendURL != "" {
		allowedOrigins = append(allowedOrigins, cfg.Server.FrontendURL)
	}

	slog.Info("AllowOrigins URL:", "urls", allowedOrigins)

	r.Use(cors.New(cors.Config{
		AllowOrigins: allowedOrigins,
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type"},
	}))

	handler.Register(r,
		handler.NewStockHandler(a.Prices, a.PriceIngester, cfg.Ingestion.Symbols),
		handler.NewNewsHandler(a.NewsIngester),
		handler.NewAnalysisHandler(a.Analyzer),
	)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	go func() {
		slog.Info("server listening", "addr", srv.Addr, "symbols", cfg.Ingestion.Symbols)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("error starting server", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("error shutting down server", "error", err)
	}
	if err := sched.Stop(shutdownCtx); err != nil {
		slog.Error("error stopping scheduler", "error", err)
	}
}
