package queue

import (
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryPolicy computes the delay before attempt n+1 after attempt n failed.
type RetryPolicy struct {
	Base       time.Duration
	Multiplier float64
	Jitter     float64
	Max        time.Duration
}

// DefaultRetryPolicy waits 1m, 2m, 4m ... with 10% jitter.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Base: time.Minute, Multiplier: 2, Jitter: 0.1, Max: time.Hour}
}

// Delay returns the wait after the given (1-based) failed attempt.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	b := &backoff.ExponentialBackOff{
		InitialInterval:     p.Base,
		RandomizationFactor: p.Jitter,
		Multiplier:          p.Multiplier,
		MaxInterval:         p.Max,
		MaxElapsedTime:      0,
		Stop:                backoff.Stop,
		Clock:               backoff.SystemClock,
	}
	b.Reset()
	var d time.Duration
	for i := 0; i < attempt; i++ {
		d = b.NextBackOff()
	}
	return d
}
