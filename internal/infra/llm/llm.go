// Package llm provides the language model clients used by the summarizer and
// the newsletter composer. A client is constructed once at process start and
// injected; there is no package-level instance.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"newsletter-curator/internal/observability/metrics"
	"newsletter-curator/internal/pkg/config"
	"newsletter-curator/internal/resilience/circuitbreaker"
	"newsletter-curator/internal/resilience/retry"
)

var (
	// ErrNotConfigured is returned by every call on a client built without credentials.
	ErrNotConfigured = errors.New("language model not configured: API key missing")
	// ErrEmptyResponse means the provider answered without any text.
	ErrEmptyResponse = errors.New("language model returned empty response")
	// ErrCircuitOpen means recent failures tripped the provider circuit breaker.
	ErrCircuitOpen = errors.New("language model unavailable: circuit breaker open")
)

// Client is a single-turn prompt completion capability.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
	// Provider names the backing service for logs and metrics.
	Provider() string
}

const (
	ProviderClaude = "claude"
	ProviderOpenAI = "openai"
)

// Config controls provider selection and per-call limits.
type Config struct {
	Provider        string
	Model           string
	MaxTokens       int
	Timeout         time.Duration
	MaxPromptChars  int
	AnthropicAPIKey string
	OpenAIAPIKey    string
	// BaseURL overrides the provider endpoint. Used by tests and proxies.
	BaseURL string
}

// LoadConfig reads LLM_PROVIDER, LLM_MODEL, LLM_MAX_TOKENS, LLM_TIMEOUT,
// ANTHROPIC_API_KEY and OPENAI_API_KEY.
func LoadConfig(l *config.Loader) Config {
	return Config{
		Provider: l.String("LLM_PROVIDER", ProviderClaude, func(v string) error {
			if v != ProviderClaude && v != ProviderOpenAI {
				return fmt.Errorf("must be %q or %q", ProviderClaude, ProviderOpenAI)
			}
			return nil
		}),
		Model:           l.String("LLM_MODEL", "", nil),
		MaxTokens:       l.Int("LLM_MAX_TOKENS", 1024, config.IntRange(64, 8192)),
		Timeout:         l.Duration("LLM_TIMEOUT", 60*time.Second, config.ValidatePositiveDuration),
		MaxPromptChars:  l.Int("LLM_MAX_PROMPT_CHARS", 20000, config.IntRange(1000, 200000)),
		AnthropicAPIKey: config.LoadEnvString("ANTHROPIC_API_KEY", ""),
		OpenAIAPIKey:    config.LoadEnvString("OPENAI_API_KEY", ""),
		BaseURL:         config.LoadEnvString("LLM_BASE_URL", ""),
	}
}

// New builds the client for cfg.Provider. A missing key yields an Unconfigured
// client and a warning instead of an error so the pipeline can keep running.
func New(cfg Config) Client {
	switch cfg.Provider {
	case ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			slog.Warn("OPENAI_API_KEY not set, language model calls will fail")
			return Unconfigured{provider: ProviderOpenAI}
		}
		return NewOpenAI(cfg)
	default:
		if cfg.AnthropicAPIKey == "" {
			slog.Warn("ANTHROPIC_API_KEY not set, language model calls will fail")
			return Unconfigured{provider: ProviderClaude}
		}
		return NewClaude(cfg)
	}
}

// Unconfigured is the client used when credentials are absent.
type Unconfigured struct{ provider string }

func (u Unconfigured) Complete(context.Context, string) (string, error) {
	return "", ErrNotConfigured
}

func (u Unconfigured) Provider() string {
	if u.provider == "" {
		return "unconfigured"
	}
	return u.provider
}

// guard runs provider calls through retry and the circuit breaker and records latency.
type guard struct {
	provider string
	timeout  time.Duration
	retry    retry.Config
	breaker  *circuitbreaker.CircuitBreaker
}

func newGuard(provider string, timeout time.Duration) guard {
	return guard{
		provider: provider,
		timeout:  timeout,
		retry:    retry.LLMConfig(),
		breaker:  circuitbreaker.New(circuitbreaker.LLMConfig(provider)),
	}
}

func (g guard) do(ctx context.Context, call func(context.Context) (string, error)) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	var out string
	err := retry.WithBackoff(ctx, g.retry, func() error {
		start := time.Now()
		text, err := circuitbreaker.Run(g.breaker, func() (string, error) {
			return call(ctx)
		})
		metrics.RecordLLMRequest(g.provider, err == nil, time.Since(start))
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				slog.Warn("llm circuit breaker rejected request",
					slog.String("provider", g.provider),
					slog.String("state", g.breaker.State().String()))
				return ErrCircuitOpen
			}
			return err
		}
		out = text
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("%s complete: %w", g.provider, err)
	}
	return out, nil
}

// truncate caps prompt size on a rune boundary.
func truncate(prompt string, maxChars int) string {
	if maxChars <= 0 {
		return prompt
	}
	runes := []rune(prompt)
	if len(runes) <= maxChars {
		return prompt
	}
	slog.Warn("prompt truncated",
		slog.Int("original_length", len(runes)),
		slog.Int("truncated_length", maxChars))
	return string(runes[:maxChars])
}
