package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"newsletter-curator/internal/app"
	"newsletter-curator/internal/handler/http/respond"
	"newsletter-curator/internal/infra/db"
	workerPkg "newsletter-curator/internal/infra/worker"
	"newsletter-curator/internal/observability/logging"
	"newsletter-curator/internal/observability/tracing"
	"newsletter-curator/internal/pkg/config"
)

func main() {
	logger := logging.NewLogger()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(ctx)
	if err != nil {
		logger.Error("failed to open database", slog.String("error", respond.SanitizeError(err)))
		os.Exit(1)
	}
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()
	if err := db.MigrateUp(ctx); err != nil {
		logger.Error("failed to apply migrations", slog.Any("error", err))
		os.Exit(1)
	}

	workerMetrics := workerPkg.NewWorkerMetrics()
	workerCfg := workerPkg.LoadConfigFromEnv(logger, workerMetrics)
	logger.Info("worker configuration loaded",
		slog.String("fetch_cron", workerCfg.FetchCron),
		slog.String("newsletter_cron", workerCfg.NewsletterCron),
		slog.String("timezone", workerCfg.Timezone),
		slog.Duration("cycle_timeout", workerCfg.CycleTimeout),
		slog.Int("health_port", workerCfg.HealthPort),
		slog.Int("metrics_port", workerCfg.MetricsPort))

	loader := config.NewLoader(workerMetrics.ConfigMetrics)
	appCfg := app.LoadConfig(loader)
	loader.Finish(logger)
	appCfg.NotifyMaxConcurrent = workerCfg.NotifyMaxConcurrent
	shutdownTracing := tracing.InitProvider(appCfg.TraceSampleRatio)
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			logger.Error("tracer shutdown failed", slog.Any("error", err))
		}
	}()

	a := app.New(database, appCfg)

	startMetricsServer(ctx, logger, workerCfg.MetricsPort, a.Notify)

	healthAddr := fmt.Sprintf(":%d", workerCfg.HealthPort)
	healthServer := workerPkg.NewHealthServer(healthAddr, logger, pingCheck(database))
	go func() {
		if err := healthServer.Start(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("health server failed", slog.Any("error", err))
		}
	}()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := a.Pool().Run(ctx); err != nil {
			logger.Error("job pool failed", slog.Any("error", err))
		}
	}()

	c, err := newScheduler(ctx, logger, a, workerCfg, workerMetrics)
	if err != nil {
		logger.Error("failed to schedule cycles", slog.Any("error", err))
		os.Exit(1)
	}
	c.Start()
	healthServer.SetReady(true)
	logger.Info("worker started",
		slog.String("fetch_cron", workerCfg.FetchCron),
		slog.String("newsletter_cron", workerCfg.NewsletterCron))

	<-ctx.Done()
	logger.Info("shutdown signal received")
	healthServer.SetReady(false)

	// wait for running cycles before the pool and the database go away
	<-c.Stop().Done()
	wg.Wait()

	nctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.Notify.Shutdown(nctx); err != nil {
		logger.Warn("notification shutdown incomplete", slog.Any("error", err))
	}
	logger.Info("worker stopped")
}

func pingCheck(database *sql.DB) func(context.Context) error {
	return func(ctx context.Context) error {
		return database.PingContext(ctx)
	}
}

// newScheduler registers the fetch and newsletter cycles. A cycle that is
// still running when its next tick fires is skipped.
func newScheduler(ctx context.Context, logger *slog.Logger, a *app.App, cfg workerPkg.WorkerConfig, m *workerPkg.WorkerMetrics) (*cron.Cron, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Error("invalid timezone, using UTC", slog.String("timezone", cfg.Timezone), slog.Any("error", err))
		loc = time.UTC
	}
	cronLog := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelWarn))
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
	)

	if _, err := c.AddFunc(cfg.FetchCron, func() {
		runCycle(ctx, logger, cfg, m, workerPkg.CycleFetch, func(cctx context.Context) error {
			saved, err := a.Orchestrator.RunFetchCycle(cctx)
			m.RecordArticlesSaved(saved)
			logger.Info("fetch cycle finished", slog.Int("saved", saved))
			return err
		})
	}); err != nil {
		return nil, fmt.Errorf("add fetch cycle: %w", err)
	}

	if _, err := c.AddFunc(cfg.NewsletterCron, func() {
		runCycle(ctx, logger, cfg, m, workerPkg.CycleNewsletter, func(cctx context.Context) error {
			stats, err := a.Orchestrator.RunNewsletterCycle(cctx)
			m.RecordNewslettersQueued(stats.Enqueued)
			logger.Info("newsletter cycle finished",
				slog.Int("users", stats.Users),
				slog.Int("enqueued", stats.Enqueued),
				slog.Int("skipped_no_interests", stats.SkippedNoInterests),
				slog.Int("failed", stats.Failed))
			return err
		})
	}); err != nil {
		return nil, fmt.Errorf("add newsletter cycle: %w", err)
	}
	return c, nil
}

func runCycle(parent context.Context, logger *slog.Logger, cfg workerPkg.WorkerConfig, m *workerPkg.WorkerMetrics, cycle string, run func(context.Context) error) {
	if parent.Err() != nil {
		return
	}
	start := time.Now()
	logger.Info("cycle started", slog.String("cycle", cycle))

	ctx, cancel := context.WithTimeout(parent, cfg.CycleTimeout)
	defer cancel()

	err := run(ctx)
	m.RecordCycle(cycle, time.Since(start), err)
	if err != nil {
		logger.Error("cycle failed",
			slog.String("cycle", cycle),
			slog.String("error", respond.SanitizeError(err)))
	}
}
