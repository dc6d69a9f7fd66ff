package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"newsletter-curator/internal/resilience/retry"
)

// Claude completes prompts with Anthropic's Messages API.
type Claude struct {
	client    anthropic.Client
	model     string
	maxTokens int
	maxChars  int
	guard     guard
}

func NewClaude(cfg Config) *Claude {
	model := cfg.Model
	if model == "" {
		model = string(anthropic.ModelClaudeSonnet4_5_20250929)
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.AnthropicAPIKey),
		// retries are handled by guard so failures are counted once per attempt
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &Claude{
		client:    anthropic.NewClient(opts...),
		model:     model,
		maxTokens: cfg.MaxTokens,
		maxChars:  cfg.MaxPromptChars,
		guard:     newGuard(ProviderClaude, cfg.Timeout),
	}
}

func (c *Claude) Provider() string { return ProviderClaude }

func (c *Claude) Complete(ctx context.Context, prompt string) (string, error) {
	prompt = truncate(prompt, c.maxChars)
	return c.guard.do(ctx, func(ctx context.Context) (string, error) {
		msg, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
			Model:     anthropic.Model(c.model),
			MaxTokens: int64(c.maxTokens),
			Messages: []anthropic.MessageParam{
				anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
			},
		})
		if err != nil {
			var apiErr *anthropic.Error
			if errors.As(err, &apiErr) {
				return "", &retry.HTTPError{StatusCode: apiErr.StatusCode, Message: "anthropic api error"}
			}
			return "", fmt.Errorf("anthropic api: %w", err)
		}

		var sb strings.Builder
		for _, block := range msg.Content {
			if tb, ok := block.AsAny().(anthropic.TextBlock); ok {
				sb.WriteString(tb.Text)
			}
		}
		text := strings.TrimSpace(sb.String())
		if text == "" {
			return "", ErrEmptyResponse
		}
		return text, nil
	})
}
