// Package resilience groups the fault tolerance helpers used around external calls.
//
// Subpackages:
//   - circuitbreaker: sony/gobreaker wrapper guarding the language model and news APIs
//   - retry: in-call exponential backoff with jitter for transient failures
//
// In-call retries are short (seconds). Long retries of a whole summarization are the
// job queue's concern and are scheduled as durable state transitions instead.
package resilience
