// Package retry provides in-call retry with exponential backoff and jitter
// on top of cenkalti/backoff.
package retry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Config holds the configuration for retry logic.
type Config struct {
	// MaxAttempts is the total number of calls, including the first
	MaxAttempts int

	// InitialDelay is the delay before the first retry
	InitialDelay time.Duration

	// MaxDelay caps the delay between retries
	MaxDelay time.Duration

	// Multiplier is the exponential growth factor
	Multiplier float64

	// JitterFraction is the fraction of delay added as random jitter (0.0 to 1.0)
	JitterFraction float64
}

// LLMConfig keeps retries few because every call is billed.
func LLMConfig() Config {
	return Config{
		MaxAttempts:    3,
		InitialDelay:   2 * time.Second,
		MaxDelay:       10 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.1,
	}
}

func (c Config) backOff(ctx context.Context) backoff.BackOffContext {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.InitialDelay
	b.MaxInterval = c.MaxDelay
	b.Multiplier = c.Multiplier
	b.RandomizationFactor = min(max(c.JitterFraction, 0), 1)
	b.MaxElapsedTime = 0
	b.Reset()

	retries := uint64(0)
	if c.MaxAttempts > 1 {
		retries = uint64(c.MaxAttempts - 1)
	}
	return backoff.WithContext(backoff.WithMaxRetries(b, retries), ctx)
}

// WithBackoff calls fn until it succeeds, returns a non-retryable error, or
// MaxAttempts is reached. A non-retryable error is returned unwrapped.
func WithBackoff(ctx context.Context, cfg Config, fn func() error) error {
	attempts := 0
	permanent := false
	op := func() error {
		attempts++
		err := fn()
		if err != nil && !IsRetryable(err) {
			permanent = true
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, delay time.Duration) {
		slog.Warn("operation failed, retrying",
			slog.Int("attempt", attempts),
			slog.Int("max_attempts", cfg.MaxAttempts),
			slog.Duration("delay", delay),
			slog.Any("error", err))
	}

	err := backoff.RetryNotify(op, cfg.backOff(ctx), notify)
	switch {
	case err == nil:
		if attempts > 1 {
			slog.Info("operation succeeded after retry", slog.Int("attempt", attempts))
		}
		return nil
	case permanent:
		return err
	case ctx.Err() != nil:
		return fmt.Errorf("retry aborted after %d attempt(s): %w", attempts, ctx.Err())
	default:
		return fmt.Errorf("max retry attempts (%d) exceeded: %w", attempts, err)
	}
}

// IsRetryable determines if an error is worth retrying.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ETIMEDOUT) ||
		errors.Is(err, syscall.ENETUNREACH) ||
		errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Temporary()
	}

	return false
}

// HTTPError carries an upstream status code so callers can classify it.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// Temporary reports 5xx, 429 and 408 responses.
func (e *HTTPError) Temporary() bool {
	switch {
	case e.StatusCode >= 500 && e.StatusCode < 600:
		return true
	case e.StatusCode == http.StatusTooManyRequests, e.StatusCode == http.StatusRequestTimeout:
		return true
	default:
		return false
	}
}
