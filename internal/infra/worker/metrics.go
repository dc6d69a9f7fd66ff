package worker

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"newsletter-curator/internal/pkg/config"
)

// Cycle names used as the "cycle" label.
const (
	CycleFetch      = "fetch"
	CycleNewsletter = "newsletter"
)

// WorkerMetrics are the scheduler metrics of cmd/worker. They are registered
// with the default registry on creation, so create them once per process.
type WorkerMetrics struct {
	*config.ConfigMetrics

	CycleRunsTotal         *prometheus.CounterVec
	CycleDurationSeconds   *prometheus.HistogramVec
	ArticlesSavedTotal     prometheus.Counter
	NewslettersQueuedTotal prometheus.Counter
	LastSuccessTimestamp   *prometheus.GaugeVec
}

func NewWorkerMetrics() *WorkerMetrics {
	return &WorkerMetrics{
		ConfigMetrics: config.NewConfigMetrics("worker"),

		CycleRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_cycle_runs_total",
			Help: "Total number of scheduled cycle runs by cycle and status",
		}, []string{"cycle", "status"}),

		CycleDurationSeconds: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "worker_cycle_duration_seconds",
			Help:    "Duration of scheduled cycles in seconds",
			Buckets: []float64{1, 5, 30, 60, 300, 900, 1800},
		}, []string{"cycle"}),

		ArticlesSavedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "worker_articles_saved_total",
			Help: "Articles stored by fetch cycles",
		}),

		NewslettersQueuedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "worker_newsletters_queued_total",
			Help: "Newsletter jobs enqueued by newsletter cycles",
		}),

		LastSuccessTimestamp: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "worker_cycle_last_success_timestamp",
			Help: "Unix timestamp of the last successful run per cycle",
		}, []string{"cycle"}),
	}
}

// RecordCycle records one finished run of cycle.
func (m *WorkerMetrics) RecordCycle(cycle string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	m.CycleRunsTotal.WithLabelValues(cycle, status).Inc()
	m.CycleDurationSeconds.WithLabelValues(cycle).Observe(duration.Seconds())
	if err == nil {
		m.LastSuccessTimestamp.WithLabelValues(cycle).SetToCurrentTime()
	}
}

func (m *WorkerMetrics) RecordArticlesSaved(n int) {
	m.ArticlesSavedTotal.Add(float64(n))
}

func (m *WorkerMetrics) RecordNewslettersQueued(n int) {
	m.NewslettersQueuedTotal.Add(float64(n))
}
