package metrics

import (
	"time"
)

// RecordFetchKeywordError counts one keyword search that was skipped.
func RecordFetchKeywordError() {
	FetchKeywordErrorsTotal.Inc()
}

func RecordFetchedArticles(n int) {
	FetchedArticlesTotal.Add(float64(n))
}

func RecordFetchMissingURL() {
	FetchMissingURLTotal.Inc()
}

// RecordIngestion records one raw record's fate: "saved", "saved_undispatched", "duplicate", "invalid" or "error".
func RecordIngestion(result string) {
	IngestedArticlesTotal.WithLabelValues(result).Inc()
}

// RecordSummary records a summarization outcome such as "summarized" or "already_summarized".
func RecordSummary(outcome string) {
	SummariesTotal.WithLabelValues(outcome).Inc()
}

func RecordNewsletter(status string) {
	NewslettersTotal.WithLabelValues(status).Inc()
}

func RecordLLMRequest(provider string, success bool, duration time.Duration) {
	status := "success"
	if !success {
		status = "failure"
	}
	LLMRequestDuration.WithLabelValues(provider, status).Observe(duration.Seconds())
}

// RecordJobTransition counts a queue transition, e.g. ("summarize_article", "retry_scheduled").
func RecordJobTransition(kind, transition string) {
	JobTransitionsTotal.WithLabelValues(kind, transition).Inc()
}

func RecordJobDuration(kind string, duration time.Duration) {
	JobDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// UpdateJobStates replaces the per-state gauge values.
func UpdateJobStates(counts map[string]int64) {
	for _, state := range []string{"pending", "in_flight", "retry_scheduled", "done", "abandoned"} {
		JobsByState.WithLabelValues(state).Set(float64(counts[state]))
	}
}
