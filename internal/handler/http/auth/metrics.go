package auth

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// authRequestsTotal counts bearer token checks by result.
	authRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_requests_total",
			Help: "Total bearer token validations by result",
		},
		[]string{"result"}, // success | missing | invalid | expired
	)

	authDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "auth_duration_seconds",
			Help:    "Bearer token validation duration",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01},
		},
	)
)

// RecordAuthRequest records one token validation outcome.
func RecordAuthRequest(result string) {
	authRequestsTotal.WithLabelValues(result).Inc()
}

func RecordAuthDuration(durationSeconds float64) {
	authDuration.Observe(durationSeconds)
}
