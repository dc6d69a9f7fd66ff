package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"
	"unicode/utf8"
)

// RateLimitError represents a 429 from a webhook service.
type RateLimitError struct {
	RetryAfter time.Duration
	Message    string
}

func (e *RateLimitError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s (retry after %v)", e.Message, e.RetryAfter)
	}
	return fmt.Sprintf("rate limit exceeded (retry after %v)", e.RetryAfter)
}

// ClientError represents a 4xx client error from a webhook service.
type ClientError struct {
	StatusCode int
	Message    string
}

func (e *ClientError) Error() string {
	return e.Message
}

// ServerError represents a 5xx server error from a webhook service.
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	return e.Message
}

// isRetryableError reports whether err is worth another attempt. Client errors
// are final; rate limits are handled separately by the caller.
func isRetryableError(err error) bool {
	var serverErr *ServerError
	if errors.As(err, &serverErr) {
		return true
	}
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return false
	}
	var rateLimitErr *RateLimitError
	if errors.As(err, &rateLimitErr) {
		return false
	}
	return true
}

// truncate cuts text to at most maxRunes runes including suffix.
func truncate(text string, maxRunes int, suffix string) string {
	if utf8.RuneCountInString(text) <= maxRunes {
		return text
	}
	keep := maxRunes - utf8.RuneCountInString(suffix)
	if keep < 0 {
		keep = 0
	}
	return string([]rune(text)[:keep]) + suffix
}

// webhook posts JSON payloads with shared status handling and retry logic.
type webhook struct {
	name        string
	url         string
	httpClient  *http.Client
	rateLimiter *RateLimiter
	maxAttempts int
	baseDelay   time.Duration
}

// post sends one request and classifies the response.
func (w *webhook) post(ctx context.Context, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create http request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return &RateLimitError{Message: w.name + " rate limit exceeded", RetryAfter: extractRetryAfter(resp, body)}
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return &ClientError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("%s API client error: %s", w.name, body)}
	case resp.StatusCode >= 500:
		return &ServerError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("%s API server error: %s", w.name, body)}
	}
	return fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, body)
}

// deliver waits for the rate limiter and posts payload, retrying server and
// network failures with a linear delay and honouring retry_after on 429.
func (w *webhook) deliver(ctx context.Context, notice Notice, payload any) error {
	if err := w.rateLimiter.Allow(ctx); err != nil {
		return fmt.Errorf("rate limiter error: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= w.maxAttempts; attempt++ {
		err := w.post(ctx, payload)
		if err == nil {
			slog.Info("newsletter notification sent",
				slog.String("channel", w.name),
				slog.Int64("newsletter_id", notice.NewsletterID),
				slog.Int("attempt", attempt))
			return nil
		}
		lastErr = err

		var rateLimitErr *RateLimitError
		if errors.As(err, &rateLimitErr) {
			slog.Warn("webhook rate limit hit, backing off",
				slog.String("channel", w.name),
				slog.Duration("retry_after", rateLimitErr.RetryAfter),
				slog.Int("attempt", attempt))
			if err := sleep(ctx, rateLimitErr.RetryAfter); err != nil {
				return err
			}
			continue
		}
		if !isRetryableError(err) {
			return err
		}
		if attempt < w.maxAttempts {
			delay := w.baseDelay * time.Duration(attempt)
			slog.Warn("webhook request failed, retrying",
				slog.String("channel", w.name),
				slog.Any("error", err),
				slog.Int("attempt", attempt),
				slog.Duration("delay", delay))
			if err := sleep(ctx, delay); err != nil {
				return err
			}
		}
	}
	return fmt.Errorf("%s notification failed after %d attempts: %w", w.name, w.maxAttempts, lastErr)
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("context canceled during backoff: %w", ctx.Err())
	}
}

// extractRetryAfter reads retry_after (seconds) from a JSON body, then the
// Retry-After header, defaulting to 5s.
func extractRetryAfter(resp *http.Response, body []byte) time.Duration {
	var payload struct {
		RetryAfter float64 `json:"retry_after"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.RetryAfter > 0 {
		return time.Duration(payload.RetryAfter * float64(time.Second))
	}
	if h := resp.Header.Get("Retry-After"); h != "" {
		if seconds, err := strconv.Atoi(h); err == nil && seconds > 0 {
			return time.Duration(seconds) * time.Second
		}
	}
	return 5 * time.Second
}
