package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"golang.org/x/sync/errgroup"

	"newsletter-curator/internal/domain/entity"
	"newsletter-curator/internal/domain/result"
	"newsletter-curator/internal/observability/logging"
	"newsletter-curator/internal/observability/metrics"
	"newsletter-curator/internal/observability/tracing"
	"newsletter-curator/internal/pkg/config"
	"newsletter-curator/internal/repository"
)

// Handler executes one job. The returned error's result.Kind decides whether
// the job is retried: only transient failures are.
type Handler interface {
	HandleJob(ctx context.Context, job *entity.Job) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, job *entity.Job) error

func (f HandlerFunc) HandleJob(ctx context.Context, job *entity.Job) error { return f(ctx, job) }

// Transition names used in logs and metrics.
const (
	TransitionDone      = "done"
	TransitionRetry     = "retry_scheduled"
	TransitionAbandoned = "abandoned"
)

// Config controls polling and concurrency.
type Config struct {
	Concurrency  int
	PollInterval time.Duration
	JobTimeout   time.Duration
	// StaleAfter is how long an in_flight job may go untouched before it is
	// considered orphaned by a crashed worker.
	StaleAfter time.Duration
}

func DefaultConfig() Config {
	return Config{
		Concurrency:  4,
		PollInterval: 5 * time.Second,
		JobTimeout:   2 * time.Minute,
		StaleAfter:   10 * time.Minute,
	}
}

// LoadConfig reads QUEUE_CONCURRENCY, QUEUE_POLL_INTERVAL, QUEUE_JOB_TIMEOUT and QUEUE_STALE_AFTER.
func LoadConfig(l *config.Loader) Config {
	d := DefaultConfig()
	return Config{
		Concurrency:  l.Int("QUEUE_CONCURRENCY", d.Concurrency, config.IntRange(1, 64)),
		PollInterval: l.Duration("QUEUE_POLL_INTERVAL", d.PollInterval, config.DurationRange(100*time.Millisecond, time.Minute)),
		JobTimeout:   l.Duration("QUEUE_JOB_TIMEOUT", d.JobTimeout, config.DurationRange(time.Second, time.Hour)),
		StaleAfter:   l.Duration("QUEUE_STALE_AFTER", d.StaleAfter, config.DurationRange(time.Minute, 24*time.Hour)),
	}
}

// Pool claims due jobs and runs them on a bounded set of goroutines.
type Pool struct {
	jobs     repository.JobRepository
	handlers map[entity.JobKind]Handler
	cfg      Config
	policy   RetryPolicy
	now      func() time.Time
}

// NewPool builds a pool with the default retry policy. Zero config fields take defaults.
func NewPool(jobs repository.JobRepository, cfg Config, handlers map[entity.JobKind]Handler) *Pool {
	d := DefaultConfig()
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = d.Concurrency
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = d.PollInterval
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = d.JobTimeout
	}
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = d.StaleAfter
	}
	return &Pool{
		jobs:     jobs,
		handlers: handlers,
		cfg:      cfg,
		policy:   DefaultRetryPolicy(),
		now:      time.Now,
	}
}

// WithRetryPolicy replaces the retry policy.
func (p *Pool) WithRetryPolicy(policy RetryPolicy) *Pool {
	p.policy = policy
	return p
}

// WithClock replaces the time source.
func (p *Pool) WithClock(now func() time.Time) *Pool {
	p.now = now
	return p
}

// Run polls until ctx is cancelled. Poll errors are logged and the loop continues.
func (p *Pool) Run(ctx context.Context) error {
	slog.Info("job pool started",
		slog.Int("concurrency", p.cfg.Concurrency),
		slog.Duration("poll_interval", p.cfg.PollInterval))

	ticker := time.NewTicker(p.cfg.PollInterval)
	defer ticker.Stop()

	for {
		if _, err := p.ReclaimStale(ctx); err != nil && ctx.Err() == nil {
			slog.Error("reclaim stale jobs failed", slog.Any("error", err))
		}
		if _, err := p.RunOnce(ctx); err != nil && ctx.Err() == nil {
			slog.Error("job poll failed", slog.Any("error", err))
		}
		if _, err := p.Stats(ctx); err != nil && ctx.Err() == nil {
			slog.Warn("job stats refresh failed", slog.Any("error", err))
		}

		select {
		case <-ctx.Done():
			slog.Info("job pool stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// RunOnce claims one batch of due jobs, runs them and waits for all of them.
// It returns the number of jobs processed.
func (p *Pool) RunOnce(ctx context.Context) (int, error) {
	claimed, err := p.jobs.ClaimDue(ctx, p.now(), p.cfg.Concurrency)
	if err != nil {
		return 0, fmt.Errorf("claim due jobs: %w", err)
	}
	if len(claimed) == 0 {
		return 0, nil
	}

	g := new(errgroup.Group)
	g.SetLimit(p.cfg.Concurrency)
	for _, job := range claimed {
		g.Go(func() error {
			p.process(ctx, job)
			return nil
		})
	}
	_ = g.Wait()
	return len(claimed), nil
}

// ReclaimStale returns orphaned in_flight jobs to retry_scheduled.
func (p *Pool) ReclaimStale(ctx context.Context) (int64, error) {
	n, err := p.jobs.ReclaimStale(ctx, p.now().Add(-p.cfg.StaleAfter))
	if err != nil {
		return 0, fmt.Errorf("reclaim stale jobs: %w", err)
	}
	if n > 0 {
		slog.Warn("reclaimed stale in-flight jobs", slog.Int64("count", n))
	}
	return n, nil
}

// Stats counts jobs per state and refreshes the state gauge.
func (p *Pool) Stats(ctx context.Context) (map[entity.JobState]int64, error) {
	return Stats(ctx, p.jobs)
}

// Stats counts jobs per state and refreshes the state gauge.
func Stats(ctx context.Context, jobs repository.JobRepository) (map[entity.JobState]int64, error) {
	counts, err := jobs.CountByState(ctx)
	if err != nil {
		return nil, fmt.Errorf("count jobs: %w", err)
	}
	gauge := make(map[string]int64, len(counts))
	for state, n := range counts {
		gauge[string(state)] = n
	}
	metrics.UpdateJobStates(gauge)
	return counts, nil
}

func (p *Pool) process(ctx context.Context, job *entity.Job) {
	ctx, span := tracing.StartJobSpan(ctx, job)
	logger := logging.WithJob(logging.FromContext(ctx), job)
	ctx = logging.WithLogger(ctx, logger)

	start := time.Now()
	err := p.invoke(ctx, job)
	metrics.RecordJobDuration(string(job.Kind), time.Since(start))
	tracing.EndWithError(span, err)

	// the transition must be recorded even when shutdown cancelled the handler
	p.transition(context.WithoutCancel(ctx), logger, job, err)
}

func (p *Pool) invoke(ctx context.Context, job *entity.Job) (err error) {
	handler, ok := p.handlers[job.Kind]
	if !ok {
		return result.Err[struct{}](result.KindConfig, fmt.Sprintf("no handler for job kind %q", job.Kind)).Err()
	}

	ctx, cancel := context.WithTimeout(ctx, p.cfg.JobTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic in job handler",
				slog.Int64("job_id", job.ID),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())))
			err = fmt.Errorf("job handler panic: %v", r)
		}
	}()
	return handler.HandleJob(ctx, job)
}

// Decide returns the transition for a finished attempt.
func Decide(job *entity.Job, err error) string {
	switch {
	case err == nil:
		return TransitionDone
	case result.KindOf(err).Retryable() && job.CanRetry():
		return TransitionRetry
	default:
		return TransitionAbandoned
	}
}

func (p *Pool) transition(ctx context.Context, logger *slog.Logger, job *entity.Job, err error) {
	next := Decide(job, err)
	var storeErr error

	switch next {
	case TransitionDone:
		storeErr = p.jobs.MarkDone(ctx, job.ID)
		logger.Info("job done")
	case TransitionRetry:
		at := p.now().Add(p.policy.Delay(job.Attempts))
		storeErr = p.jobs.ScheduleRetry(ctx, job.ID, at, err.Error())
		logger.Warn("job failed, retry scheduled",
			slog.Time("next_eligible_at", at),
			slog.Any("error", err))
	case TransitionAbandoned:
		storeErr = p.jobs.MarkAbandoned(ctx, job.ID, err.Error())
		level := slog.LevelError
		if errors.Is(err, context.Canceled) {
			level = slog.LevelWarn
		}
		logger.Log(ctx, level, "job abandoned",
			slog.String("error_kind", string(result.KindOf(err))),
			slog.Any("error", err))
	}

	if storeErr != nil {
		// the job stays in_flight and ReclaimStale picks it up later
		logger.Error("job state update failed",
			slog.String("transition", next),
			slog.Any("error", storeErr))
		return
	}
	metrics.RecordJobTransition(string(job.Kind), next)
}
