package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nav21/stockAnalyzer/internal/app"
	"github.com/nav21/stockAnalyzer/internal/config"
	"github.com/nav21/stockAnalyzer/internal/model"
)

const dateLayout = "2006-01-02"

var (
	startDate string
	endDate   string
	symbols   string
)

var rootCmd = &cobra.Command{
	Use:   "populate",
	Short: "Backfill daily closing prices",
	Long: `Fetches daily closes from the configured history provider and stores one
tick per trading day. Days that already hold a tick are skipped, so the
command can be re-run over overlapping windows. No LLM provider or key is
needed.`,
	SilenceUsage: true,
	RunE:         runPopulate,
}

func init() {
	rootCmd.Flags().StringVar(&startDate, "start", "", "first day to backfill, YYYY-MM-DD (default: three months before --end)")
	rootCmd.Flags().StringVar(&endDate, "end", "", "last day to backfill, YYYY-MM-DD (default: today)")
	rootCmd.Flags().StringVar(&symbols, "symbols", "", "comma separated tickers (default: configured SYMBOLS)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runPopulate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(config.Path())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})))

	withoutLLM(cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	start, end, err := backfillWindow(startDate, endDate, time.Now())
	if err != nil {
		return err
	}

	targets := splitSymbols(symbols)
	if len(targets) == 0 {
		targets = cfg.Ingestion.Symbols
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	slog.Info("populating historical data",
		"start", start.Format(dateLayout),
		"end", end.Format(dateLayout),
		"symbols", targets,
	)

	stats, err := a.PriceIngester.PopulateHistorical(ctx, targets, start, end)
	if err != nil {
		return err
	}

	slog.Info("populate complete",
		"inserted", stats.Inserted,
		"existing", stats.Existing,
		"invalid", stats.Invalid,
		"failed", stats.Failed,
	)

	if stats.AllFailed() {
		return fmt.Errorf("backfill failed for all %d symbols", stats.Symbols)
	}
	return nil
}

// withoutLLM drops the LLM selection; backfill never generates text, so a
// missing LLM key must not block it.
func withoutLLM(cfg *config.Config) {
	cfg.LLM.Provider = "none"
	cfg.LLM.Model = ""
}

// backfillWindow resolves the flags against now. An empty end means today,
// an empty start means three months before end.
func backfillWindow(startStr, endStr string, now time.Time) (time.Time, time.Time, error) {
	end := now.UTC().Truncate(24 * time.Hour)
	if endStr != "" {
		t, err := time.Parse(dateLayout, endStr)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("--end must be YYYY-MM-DD: %w", err)
		}
		end = t
	}

	start := end.AddDate(0, -3, 0)
	if startStr != "" {
		t, err := time.Parse(dateLayout, startStr)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("--start must be YYYY-MM-DD: %w", err)
		}
		start = t
	}

	if start.After(end) {
		return time.Time{}, time.Time{}, fmt.Errorf("--start %s is after --end %s", start.Format(dateLayout), end.Format(dateLayout))
	}
	return start, end, nil
}

func splitSymbols(s string) []string {
	return model.NormalizeSymbols(strings.Split(s, ","))
}
