package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/nav21/stockAnalyzer/internal/app"
	"github.com/nav21/stockAnalyzer/internal/config"
)

// fetcher runs one price update and one news update, then exits. Run it from
// an external cron when the API process is not scheduling ingestion itself.
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

	if a.Locker == nil {
		slog.Warn("REDIS_URL not set, running without a cross-process lock")
	}

	a.Scheduler(ctx).RunNow()

	slog.Info("fetch complete", "symbols", cfg.Ingestion.Symbols)
}
