package fetcher

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-shiori/go-readability"

	"newsletter-curator/internal/resilience/circuitbreaker"
)

// ReadabilityFetcher downloads article pages and extracts the main text with
// the Mozilla Readability algorithm. It is safe for concurrent use.
type ReadabilityFetcher struct {
	client         *http.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	config         ContentFetchConfig
}

func NewReadabilityFetcher(cfg ContentFetchConfig) *ReadabilityFetcher {
	f := &ReadabilityFetcher{
		circuitBreaker: circuitbreaker.New(circuitbreaker.Config{
			Name:             "content-fetch",
			MaxRequests:      5,
			Interval:         60 * time.Second,
			Timeout:          60 * time.Second,
			FailureThreshold: 0.6,
			MinRequests:      5,
		}),
		config: cfg,
	}
	f.client = &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSClientConfig:     &tls.Config{MinVersion: tls.VersionTLS12},
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= f.config.MaxRedirects {
				return fmt.Errorf("%w: %d redirects", ErrTooManyRedirects, len(via))
			}
			if err := validateURL(req.URL.String(), f.config.DenyPrivateIPs); err != nil {
				return fmt.Errorf("redirect target validation failed: %w", err)
			}
			return nil
		},
	}
	return f
}

// Enabled reports whether enrichment should be attempted at all.
func (f *ReadabilityFetcher) Enabled() bool { return f.config.Enabled }

// Threshold is the content length below which enrichment is worthwhile.
func (f *ReadabilityFetcher) Threshold() int { return f.config.Threshold }

// FetchContent returns the readable text of the page at urlStr.
func (f *ReadabilityFetcher) FetchContent(ctx context.Context, urlStr string) (string, error) {
	if err := validateURL(urlStr, f.config.DenyPrivateIPs); err != nil {
		return "", err
	}
	return circuitbreaker.Run(f.circuitBreaker, func() (string, error) {
		return f.doFetch(ctx, urlStr)
	})
}

func (f *ReadabilityFetcher) doFetch(ctx context.Context, urlStr string) (string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, f.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, urlStr, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	req.Header.Set("User-Agent", "NewsletterCuratorBot/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: request exceeded %v", ErrTimeout, f.config.Timeout)
		}
		var urlErr *url.Error
		if errors.As(err, &urlErr) && urlErr.Err != nil {
			return "", urlErr.Err
		}
		return "", fmt.Errorf("HTTP request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	htmlBytes, err := io.ReadAll(io.LimitReader(resp.Body, f.config.MaxBodySize+1))
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}
	if int64(len(htmlBytes)) > f.config.MaxBodySize {
		return "", fmt.Errorf("%w: limit %d bytes", ErrBodyTooLarge, f.config.MaxBodySize)
	}

	pageURL := resp.Request.URL
	article, err := readability.FromReader(bytes.NewReader(htmlBytes), pageURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrReadabilityFailed, err)
	}
	if article.TextContent == "" {
		return "", fmt.Errorf("%w: no readable content found", ErrReadabilityFailed)
	}

	slog.Debug("content fetched",
		slog.String("url", urlStr),
		slog.Int("length", len(article.TextContent)))
	return article.TextContent, nil
}
