// Package scheduler runs the ingestion pipelines on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/nav21/stockAnalyzer/internal/pipeline"
)

const runTimeout = 15 * time.Minute

type PriceRunner interface {
	RunPriceUpdate(ctx context.Context, symbols []string) pipeline.PriceRunStats
}

type NewsRunner interface {
	RunNewsUpdate(ctx context.Context, symbols []string, from, to *time.Time) pipeline.NewsRunStats
}

// Locker guards a job across processes. db.RedisLocker implements it.
type Locker interface {
	TryLock(ctx context.Context, name string) (release func(), ok bool, err error)
}

// Jobs is what the scheduler runs and for which symbols.
type Jobs struct {
	Prices  PriceRunner
	News    NewsRunner
	Symbols []string
}

type Scheduler struct {
	cron   *cron.Cron
	ctx    context.Context
	jobs   Jobs
	locker Locker

	priceMu sync.Mutex
	newsMu  sync.Mutex
}

// New builds a scheduler whose jobs run under ctx. locker may be nil.
func New(ctx context.Context, jobs Jobs, locker Locker) *Scheduler {
	l := cronLogger{}
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(l),
			cron.WithChain(cron.Recover(l), cron.SkipIfStillRunning(l)),
		),
		ctx:    ctx,
		jobs:   jobs,
		locker: locker,
	}
}

// Register adds the price and news jobs. Specs use the standard five-field
// syntax or descriptors such as "@every 2h".
func (s *Scheduler) Register(priceSpec, newsSpec string) error {
	if _, err := s.cron.AddFunc(priceSpec, s.RunPrices); err != nil {
		return fmt.Errorf("register price job: %w", err)
	}
	if _, err := s.cron.AddFunc(newsSpec, s.RunNews); err != nil {
		return fmt.Errorf("register news job: %w", err)
	}
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	slog.Info("scheduler started", "jobs", len(s.cron.Entries()))
}

// Stop stops scheduling and waits for running jobs until ctx expires.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		slog.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduler stop: %w", ctx.Err())
	}
}

// RunNow runs both jobs once, prices first.
func (s *Scheduler) RunNow() {
	s.RunPrices()
	s.RunNews()
}

func (s *Scheduler) RunPrices() {
	s.run("price-update", &s.priceMu, func(ctx context.Context) {
		s.jobs.Prices.RunPriceUpdate(ctx, s.jobs.Symbols)
	})
}

func (s *Scheduler) RunNews() {
	s.run("news-update", &s.newsMu, func(ctx context.Context) {
		s.jobs.News.RunNewsUpdate(ctx, s.jobs.Symbols, nil, nil)
	})
}

func (s *Scheduler) run(name string, mu *sync.Mutex, job func(ctx context.Context)) {
	if !mu.TryLock() {
		slog.Info("job already running, skipping", "job", name)
		return
	}
	defer mu.Unlock()

	ctx, cancel := context.WithTimeout(s.ctx, runTimeout)
	defer cancel()

	if s.locker != nil {
		release, ok, err := s.locker.TryLock(ctx, name)
		if err != nil {
			slog.Error("job lock failed, skipping", "job", name, "error", err)
			return
		}
		if !ok {
			slog.Info("job held by another process, skipping", "job", name)
			return
		}
		defer release()
	}

	start := time.Now()
	slog.Info("job started", "job", name)
	job(ctx)
	slog.Info("job finished", "job", name, "duration", time.Since(start).String())
}

// cronLogger routes cron's own logging through slog.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	slog.Debug("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	slog.Error("cron: "+msg, append([]interface{}{"error", err}, keysAndValues...)...)
}
