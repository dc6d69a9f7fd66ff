// Package config provides fail-open environment loaders shared by every binary.
//
// A loader never returns an error: a missing variable yields the default silently,
// an unparsable or invalid one yields the default plus a warning. Callers log the
// warnings and count them through ConfigMetrics.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// LoadResult is the outcome of loading one variable.
type LoadResult[T any] struct {
	Value           T
	Warnings        []string
	FallbackApplied bool
}

// LoadEnvString returns the variable or defaultValue when unset. No validation.
func LoadEnvString(envKey, defaultValue string) string {
	value := os.Getenv(envKey)
	if value == "" {
		return defaultValue
	}
	return value
}

// LoadEnvWithFallback loads a string and validates it, falling back on failure.
func LoadEnvWithFallback(envKey, defaultValue string, validator func(string) error) LoadResult[string] {
	return load(envKey, defaultValue, func(s string) (string, error) { return s, nil }, validator)
}

// LoadEnvInt loads an integer in base 10.
func LoadEnvInt(envKey string, defaultValue int, validator func(int) error) LoadResult[int] {
	return load(envKey, defaultValue, strconv.Atoi, validator)
}

// LoadEnvFloat loads a float64, used for rates.
func LoadEnvFloat(envKey string, defaultValue float64, validator func(float64) error) LoadResult[float64] {
	return load(envKey, defaultValue, func(s string) (float64, error) {
		return strconv.ParseFloat(s, 64)
	}, validator)
}

// LoadEnvDuration loads a Go duration string such as "30s" or "1h30m".
func LoadEnvDuration(envKey string, defaultValue time.Duration, validator func(time.Duration) error) LoadResult[time.Duration] {
	return load(envKey, defaultValue, time.ParseDuration, validator)
}

// LoadEnvBool accepts the spellings understood by strconv.ParseBool.
func LoadEnvBool(envKey string, defaultValue bool) LoadResult[bool] {
	return load(envKey, defaultValue, strconv.ParseBool, nil)
}

func load[T any](envKey string, defaultValue T, parse func(string) (T, error), validator func(T) error) LoadResult[T] {
	raw := strings.TrimSpace(os.Getenv(envKey))
	if raw == "" {
		return LoadResult[T]{Value: defaultValue}
	}

	fallback := func(reason error) LoadResult[T] {
		return LoadResult[T]{
			Value:           defaultValue,
			Warnings:        []string{fmt.Sprintf("Invalid %s='%s': %v, falling back to default '%v'", envKey, raw, reason, defaultValue)},
			FallbackApplied: true,
		}
	}

	parsed, err := parse(raw)
	if err != nil {
		return fallback(err)
	}
	if validator != nil {
		if err := validator(parsed); err != nil {
			return fallback(err)
		}
	}
	return LoadResult[T]{Value: parsed}
}

// Loader accumulates warnings and fallback metrics across a config struct load.
type Loader struct {
	metrics  *ConfigMetrics
	warnings []string
	fellBack bool
}

// NewLoader returns a Loader. metrics may be nil.
func NewLoader(metrics *ConfigMetrics) *Loader {
	return &Loader{metrics: metrics}
}

func (l *Loader) String(envKey, defaultValue string, validator func(string) error) string {
	return track(l, envKey, LoadEnvWithFallback(envKey, defaultValue, validator))
}

func (l *Loader) Int(envKey string, defaultValue int, validator func(int) error) int {
	return track(l, envKey, LoadEnvInt(envKey, defaultValue, validator))
}

func (l *Loader) Float(envKey string, defaultValue float64, validator func(float64) error) float64 {
	return track(l, envKey, LoadEnvFloat(envKey, defaultValue, validator))
}

func (l *Loader) Duration(envKey string, defaultValue time.Duration, validator func(time.Duration) error) time.Duration {
	return track(l, envKey, LoadEnvDuration(envKey, defaultValue, validator))
}

func (l *Loader) Bool(envKey string, defaultValue bool) bool {
	return track(l, envKey, LoadEnvBool(envKey, defaultValue))
}

// Warnings returns every fallback message collected so far.
func (l *Loader) Warnings() []string {
	return l.warnings
}

// Finish logs the collected warnings and updates the load gauges.
func (l *Loader) Finish(logger *slog.Logger) {
	for _, w := range l.warnings {
		logger.Warn("configuration fallback applied", slog.String("warning", w))
	}
	if l.metrics != nil {
		l.metrics.RecordLoadTimestamp()
		// Several loaders may share one ConfigMetrics; never clear a fallback another reported.
		if l.fellBack {
			l.metrics.SetFallbackActive(true)
		}
	}
}

func track[T any](l *Loader, envKey string, r LoadResult[T]) T {
	if r.FallbackApplied {
		l.fellBack = true
		l.warnings = append(l.warnings, r.Warnings...)
		if l.metrics != nil {
			l.metrics.RecordValidationError(envKey)
			l.metrics.RecordFallback(envKey)
		}
	}
	return r.Value
}
