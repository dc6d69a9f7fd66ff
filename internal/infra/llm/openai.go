package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"newsletter-curator/internal/resilience/retry"
)

// OpenAI completes prompts with the chat completions API.
type OpenAI struct {
	client    *openai.Client
	model     string
	maxTokens int
	maxChars  int
	guard     guard
}

func NewOpenAI(cfg Config) *OpenAI {
	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}
	clientCfg := openai.DefaultConfig(cfg.OpenAIAPIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &OpenAI{
		client:    openai.NewClientWithConfig(clientCfg),
		model:     model,
		maxTokens: cfg.MaxTokens,
		maxChars:  cfg.MaxPromptChars,
		guard:     newGuard(ProviderOpenAI, cfg.Timeout),
	}
}

func (o *OpenAI) Provider() string { return ProviderOpenAI }

func (o *OpenAI) Complete(ctx context.Context, prompt string) (string, error) {
	prompt = truncate(prompt, o.maxChars)
	return o.guard.do(ctx, func(ctx context.Context) (string, error) {
		resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:     o.model,
			MaxTokens: o.maxTokens,
			Messages: []openai.ChatCompletionMessage{{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			}},
		})
		if err != nil {
			var apiErr *openai.APIError
			if errors.As(err, &apiErr) {
				return "", &retry.HTTPError{StatusCode: apiErr.HTTPStatusCode, Message: apiErr.Message}
			}
			var reqErr *openai.RequestError
			if errors.As(err, &reqErr) {
				return "", &retry.HTTPError{StatusCode: reqErr.HTTPStatusCode, Message: "openai request error"}
			}
			return "", fmt.Errorf("openai api: %w", err)
		}
		if len(resp.Choices) == 0 {
			return "", ErrEmptyResponse
		}
		text := strings.TrimSpace(resp.Choices[0].Message.Content)
		if text == "" {
			return "", ErrEmptyResponse
		}
		return text, nil
	})
}
