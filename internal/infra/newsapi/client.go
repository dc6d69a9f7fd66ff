// Package newsapi is the HTTP client for the NewsAPI "everything" search endpoint.
package newsapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"newsletter-curator/internal/pkg/config"
	"newsletter-curator/internal/resilience/circuitbreaker"
	"newsletter-curator/internal/resilience/retry"
	"newsletter-curator/internal/usecase/fetch"
)

const DefaultBaseURL = "https://newsapi.org/v2"

// Config holds the client settings.
type Config struct {
	APIKey     string
	BaseURL    string
	RatePerSec float64
	Timeout    time.Duration
}

// LoadConfig reads NEWSAPI_KEY, NEWSAPI_BASE_URL, NEWSAPI_RATE_PER_SEC and NEWSAPI_TIMEOUT.
func LoadConfig(l *config.Loader) Config {
	return Config{
		APIKey:     config.LoadEnvString("NEWSAPI_KEY", ""),
		BaseURL:    l.String("NEWSAPI_BASE_URL", DefaultBaseURL, config.ValidateBaseURL),
		RatePerSec: l.Float("NEWSAPI_RATE_PER_SEC", 1, config.ValidatePositiveFloat),
		Timeout:    l.Duration("NEWSAPI_TIMEOUT", 15*time.Second, config.ValidatePositiveDuration),
	}
}

// Client implements fetch.NewsSource.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	breaker *circuitbreaker.CircuitBreaker
}

func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSec), 1),
		breaker: newBreaker(),
	}
}

func newBreaker() *circuitbreaker.CircuitBreaker {
	cfg := circuitbreaker.NewsAPIConfig()
	cfg.IsSuccessful = serviceHealthy
	return circuitbreaker.New(cfg)
}

// serviceHealthy reports whether err leaves the service itself in good
// standing. A rejected keyword or an odd body concerns one query only; only
// transport failures and 5xx, 429 or 408 answers count against the breaker.
func serviceHealthy(err error) bool {
	var httpErr *retry.HTTPError
	switch {
	case err == nil:
		return true
	case errors.As(err, &httpErr):
		return !httpErr.Temporary()
	case errors.Is(err, fetch.ErrSourceStatus), errors.Is(err, fetch.ErrMalformedResponse):
		return true
	case errors.Is(err, context.Canceled):
		return true
	default:
		return false
	}
}

func (c *Client) Configured() bool { return c.cfg.APIKey != "" }

type response struct {
	Status   string `json:"status"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	Articles []struct {
		URL         string `json:"url"`
		Title       string `json:"title"`
		Description string `json:"description"`
		Content     string `json:"content"`
		PublishedAt string `json:"publishedAt"`
		Source      struct {
			Name string `json:"name"`
		} `json:"source"`
	} `json:"articles"`
}

// Search runs one keyword query. Non-ok statuses and undecodable bodies are errors.
func (c *Client) Search(ctx context.Context, q fetch.Query) ([]fetch.RawArticle, error) {
	if !c.Configured() {
		return nil, fetch.ErrSourceNotConfigured
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("newsapi rate limit wait: %w", err)
	}

	out, err := circuitbreaker.Run(c.breaker, func() ([]fetch.RawArticle, error) {
		return c.doSearch(ctx, q)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("newsapi unavailable: %w", err)
	}
	return out, err
}

func (c *Client) doSearch(ctx context.Context, q fetch.Query) ([]fetch.RawArticle, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.searchURL(q), nil)
	if err != nil {
		return nil, fmt.Errorf("newsapi build request: %w", err)
	}
	req.Header.Set("User-Agent", "NewsletterCurator/1.0")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("newsapi request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("newsapi read body: %w", err)
	}

	var parsed response
	if err := json.Unmarshal(body, &parsed); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, &retry.HTTPError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		}
		return nil, fmt.Errorf("%w: %v", fetch.ErrMalformedResponse, err)
	}
	if parsed.Status != "ok" {
		return nil, fmt.Errorf("%w: %s (%s): %w", fetch.ErrSourceStatus, parsed.Message, parsed.Code,
			&retry.HTTPError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)})
	}

	articles := make([]fetch.RawArticle, 0, len(parsed.Articles))
	for _, a := range parsed.Articles {
		articles = append(articles, fetch.RawArticle{
			URL:         a.URL,
			Title:       a.Title,
			Description: a.Description,
			Content:     a.Content,
			PublishedAt: a.PublishedAt,
			SourceName:  a.Source.Name,
		})
	}
	return articles, nil
}

func (c *Client) searchURL(q fetch.Query) string {
	pageSize := q.PageSize
	if pageSize <= 0 || pageSize > fetch.MaxPageSize {
		pageSize = fetch.MaxPageSize
	}
	params := url.Values{}
	params.Set("q", quoteKeyword(q.Keyword))
	params.Set("from", q.From.UTC().Format(time.RFC3339))
	params.Set("to", q.To.UTC().Format(time.RFC3339))
	params.Set("language", "en")
	params.Set("sortBy", "relevancy")
	params.Set("pageSize", strconv.Itoa(pageSize))
	params.Set("apiKey", c.cfg.APIKey)
	return strings.TrimRight(c.cfg.BaseURL, "/") + "/everything?" + params.Encode()
}

// quoteKeyword phrase-quotes multi-word keywords so they match as a unit.
func quoteKeyword(kw string) string {
	kw = strings.TrimSpace(kw)
	if strings.ContainsAny(kw, " \t") && !strings.HasPrefix(kw, `"`) {
		return `"` + kw + `"`
	}
	return kw
}
