package worker

import (
	"fmt"
	"log/slog"
	"time"

	"newsletter-curator/internal/pkg/config"
)

// WorkerConfig holds the scheduling and server settings of cmd/worker.
// Every field is loaded fail-open: an invalid value falls back to its default.
type WorkerConfig struct {
	// FetchCron schedules the fetch cycle. Default: hourly.
	FetchCron string

	// NewsletterCron schedules the newsletter cycle. Default: Monday 07:00.
	NewsletterCron string

	// Timezone is the IANA zone both schedules are evaluated in.
	Timezone string

	NotifyMaxConcurrent int

	// CycleTimeout bounds a single fetch or newsletter cycle.
	CycleTimeout time.Duration

	HealthPort  int
	MetricsPort int
}

func DefaultConfig() WorkerConfig {
	return WorkerConfig{
		FetchCron:           "0 * * * *",
		NewsletterCron:      "0 7 * * 1",
		Timezone:            "UTC",
		NotifyMaxConcurrent: 10,
		CycleTimeout:        30 * time.Minute,
		HealthPort:          9091,
		MetricsPort:         9090,
	}
}

// Validate reports every invalid field at once.
func (c *WorkerConfig) Validate() error {
	var errs []error
	if err := config.ValidateCronSchedule(c.FetchCron); err != nil {
		errs = append(errs, fmt.Errorf("fetch cron: %w", err))
	}
	if err := config.ValidateCronSchedule(c.NewsletterCron); err != nil {
		errs = append(errs, fmt.Errorf("newsletter cron: %w", err))
	}
	if err := config.ValidateTimezone(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone: %w", err))
	}
	if err := config.ValidateIntRange(c.NotifyMaxConcurrent, 1, 50); err != nil {
		errs = append(errs, fmt.Errorf("notify max concurrent: %w", err))
	}
	if err := config.ValidatePositiveDuration(c.CycleTimeout); err != nil {
		errs = append(errs, fmt.Errorf("cycle timeout: %w", err))
	}
	if err := config.ValidateIntRange(c.HealthPort, 1024, 65535); err != nil {
		errs = append(errs, fmt.Errorf("health port: %w", err))
	}
	if err := config.ValidateIntRange(c.MetricsPort, 1024, 65535); err != nil {
		errs = append(errs, fmt.Errorf("metrics port: %w", err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("validation failed: %v", errs)
	}
	return nil
}

// LoadConfigFromEnv reads FETCH_CRON, NEWSLETTER_CRON, WORKER_TIMEZONE,
// NOTIFY_MAX_CONCURRENT, CYCLE_TIMEOUT, WORKER_HEALTH_PORT and
// WORKER_METRICS_PORT. It never fails; fallbacks are logged and counted.
func LoadConfigFromEnv(logger *slog.Logger, metrics *WorkerMetrics) WorkerConfig {
	d := DefaultConfig()
	var cm *config.ConfigMetrics
	if metrics != nil {
		cm = metrics.ConfigMetrics
	}
	l := config.NewLoader(cm)

	cfg := WorkerConfig{
		FetchCron:           l.String("FETCH_CRON", d.FetchCron, config.ValidateCronSchedule),
		NewsletterCron:      l.String("NEWSLETTER_CRON", d.NewsletterCron, config.ValidateCronSchedule),
		Timezone:            l.String("WORKER_TIMEZONE", d.Timezone, config.ValidateTimezone),
		NotifyMaxConcurrent: l.Int("NOTIFY_MAX_CONCURRENT", d.NotifyMaxConcurrent, config.IntRange(1, 50)),
		CycleTimeout:        l.Duration("CYCLE_TIMEOUT", d.CycleTimeout, config.DurationRange(time.Minute, 4*time.Hour)),
		HealthPort:          l.Int("WORKER_HEALTH_PORT", d.HealthPort, config.IntRange(1024, 65535)),
		MetricsPort:         l.Int("WORKER_METRICS_PORT", d.MetricsPort, config.IntRange(1024, 65535)),
	}
	l.Finish(logger)
	return cfg
}
