// Package observability groups the logging, metrics and tracing helpers shared
// by the API, the worker and the operator CLI.
//
// Subpackages:
//   - logging: slog JSON logger with request and job scoped fields
//   - metrics: Prometheus collectors for HTTP and the curation pipeline
//   - tracing: OpenTelemetry provider setup, HTTP middleware and job spans
package observability
