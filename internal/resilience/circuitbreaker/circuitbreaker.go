// Package circuitbreaker provides circuit breakers for external service calls.
// It uses the github.com/sony/gobreaker library to prevent cascading failures.
package circuitbreaker

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sony/gobreaker"
)

var stateGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Name: "curator_circuit_breaker_state",
	Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
}, []string{"circuit"})

// Config holds the configuration for a circuit breaker.
type Config struct {
	// Name is the circuit breaker name for logging and metrics
	Name string

	// MaxRequests is the maximum number of requests allowed in half-open state
	MaxRequests uint32

	// Interval is the cyclic period of the closed state to clear counts
	Interval time.Duration

	// Timeout is how long to stay open before probing again
	Timeout time.Duration

	// FailureThreshold is the failure ratio that trips the circuit, e.g. 0.6
	FailureThreshold float64

	// MinRequests is the minimum number of requests before the ratio is evaluated
	MinRequests uint32

	// IsSuccessful classifies a returned error. Errors it accepts are passed
	// back to the caller without counting as failures. Nil counts every error.
	IsSuccessful func(err error) bool
}

// DefaultConfig returns a default configuration for circuit breakers.
func DefaultConfig(name string) Config {
	return Config{
		Name:             name,
		MaxRequests:      3,
		Interval:         30 * time.Second,
		Timeout:          60 * time.Second,
		FailureThreshold: 0.6,
		MinRequests:      5,
	}
}

// LLMConfig is tuned for language model providers: few requests, expensive failures.
func LLMConfig(provider string) Config {
	return DefaultConfig(provider + "-api")
}

// NewsAPIConfig trips only on sustained failure across many keyword searches.
func NewsAPIConfig() Config {
	return Config{
		Name:             "newsapi",
		MaxRequests:      2,
		Interval:         60 * time.Second,
		Timeout:          120 * time.Second,
		FailureThreshold: 0.7,
		MinRequests:      10,
	}
}

// CircuitBreaker wraps gobreaker.CircuitBreaker.
type CircuitBreaker struct {
	breaker *gobreaker.CircuitBreaker
	name    string
}

// New creates a new circuit breaker with the given configuration.
func New(cfg Config) *CircuitBreaker {
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.FailureThreshold
		},
		IsSuccessful: cfg.IsSuccessful,
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			stateGauge.WithLabelValues(name).Set(float64(to))
			slog.Warn("circuit breaker state changed",
				slog.String("circuit", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
		},
	}

	stateGauge.WithLabelValues(cfg.Name).Set(float64(gobreaker.StateClosed))
	return &CircuitBreaker{
		breaker: gobreaker.NewCircuitBreaker(settings),
		name:    cfg.Name,
	}
}

// Execute runs fn through the breaker. When the circuit is open it returns
// gobreaker.ErrOpenState without calling fn.
func (cb *CircuitBreaker) Execute(fn func() (interface{}, error)) (interface{}, error) {
	return cb.breaker.Execute(fn)
}

// Run is the typed form of Execute.
func Run[T any](cb *CircuitBreaker, fn func() (T, error)) (T, error) {
	out, err := cb.breaker.Execute(func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out.(T), nil
}

func (cb *CircuitBreaker) State() gobreaker.State {
	return cb.breaker.State()
}

func (cb *CircuitBreaker) Name() string {
	return cb.name
}

// IsOpen returns true if the circuit breaker is in the open state.
func (cb *CircuitBreaker) IsOpen() bool {
	return cb.breaker.State() == gobreaker.StateOpen
}
