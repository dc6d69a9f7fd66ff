// Package metrics holds the pipeline metrics shared by the use cases.
// HTTP metrics live with the HTTP middleware.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Pipeline metrics
var (
	FetchKeywordErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "curator_fetch_keyword_errors_total",
			Help: "Keyword searches that failed and were skipped",
		},
	)

	FetchedArticlesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "curator_fetched_articles_total",
			Help: "Unique raw articles returned by fetch cycles",
		},
	)

	FetchMissingURLTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "curator_fetch_missing_url_total",
			Help: "Raw articles dropped by fetch cycles because they carried no URL",
		},
	)

	IngestedArticlesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "curator_articles_ingested_total",
			Help: "Raw articles processed by ingestion, by result",
		},
		[]string{"result"},
	)

	SummariesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "curator_summaries_total",
			Help: "Summarization attempts by outcome",
		},
		[]string{"outcome"},
	)

	NewslettersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "curator_newsletters_total",
			Help: "Newsletter generation results",
		},
		[]string{"status"},
	)

	LLMRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "curator_llm_request_duration_seconds",
			Help:    "Language model request duration",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"provider", "status"},
	)

	JobTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "curator_jobs_total",
			Help: "Queue job state transitions",
		},
		[]string{"kind", "transition"},
	)

	JobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "curator_job_duration_seconds",
			Help:    "Queue job handler duration",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		},
		[]string{"kind"},
	)

	JobsByState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "curator_jobs_by_state",
			Help: "Number of jobs per state at last poll",
		},
		[]string{"state"},
	)
)
