package fetcher

import (
	"fmt"
	"time"

	"newsletter-curator/internal/pkg/config"
)

// ContentFetchConfig controls full-text enrichment of articles whose
// news-source content is truncated.
type ContentFetchConfig struct {
	// Enabled turns enrichment on. When false the stored content is summarized as is.
	Enabled bool

	// Threshold is the stored content length (runes) at or above which no fetch happens.
	Threshold int

	// Timeout bounds a single page request.
	Timeout time.Duration

	// MaxBodySize is enforced while reading, not from Content-Length.
	MaxBodySize int64

	MaxRedirects int

	// DenyPrivateIPs rejects URLs (and redirect targets) that resolve to
	// loopback, private or link-local addresses.
	DenyPrivateIPs bool
}

func DefaultConfig() ContentFetchConfig {
	return ContentFetchConfig{
		Enabled:        true,
		Threshold:      1500,
		Timeout:        10 * time.Second,
		MaxBodySize:    10 * 1024 * 1024,
		MaxRedirects:   5,
		DenyPrivateIPs: true,
	}
}

// Validate checks ranges that would make fetching unsafe or useless.
func (c *ContentFetchConfig) Validate() error {
	if c.Threshold < 0 {
		return fmt.Errorf("threshold must be non-negative, got %d", c.Threshold)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %v", c.Timeout)
	}
	if c.MaxBodySize < 1024 || c.MaxBodySize > 100*1024*1024 {
		return fmt.Errorf("max body size must be between 1KB and 100MB, got %d", c.MaxBodySize)
	}
	if c.MaxRedirects < 0 || c.MaxRedirects > 10 {
		return fmt.Errorf("max redirects must be between 0 and 10, got %d", c.MaxRedirects)
	}
	return nil
}

// LoadConfig reads the CONTENT_FETCH_* variables, falling back per field.
func LoadConfig(l *config.Loader) ContentFetchConfig {
	def := DefaultConfig()
	return ContentFetchConfig{
		Enabled:        l.Bool("CONTENT_FETCH_ENABLED", def.Enabled),
		Threshold:      l.Int("CONTENT_FETCH_THRESHOLD", def.Threshold, config.IntRange(0, 100000)),
		Timeout:        l.Duration("CONTENT_FETCH_TIMEOUT", def.Timeout, config.DurationRange(time.Second, 2*time.Minute)),
		MaxBodySize:    int64(l.Int("CONTENT_FETCH_MAX_BODY_SIZE", int(def.MaxBodySize), config.IntRange(1024, 100*1024*1024))),
		MaxRedirects:   l.Int("CONTENT_FETCH_MAX_REDIRECTS", def.MaxRedirects, config.IntRange(0, 10)),
		DenyPrivateIPs: l.Bool("CONTENT_FETCH_DENY_PRIVATE_IPS", def.DenyPrivateIPs),
	}
}
