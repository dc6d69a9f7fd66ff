package notifier

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// SlackNotifier posts Block Kit messages to a Slack Incoming Webhook.
type SlackNotifier struct {
	hook *webhook
}

// NewSlackNotifier limits delivery to 1 request/second, the Slack webhook limit.
func NewSlackNotifier(cfg WebhookConfig) *SlackNotifier {
	return &SlackNotifier{hook: &webhook{
		name:        "Slack",
		url:         cfg.WebhookURL,
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		rateLimiter: NewRateLimiter(1.0, 1),
		maxAttempts: 2,
		baseDelay:   5 * time.Second,
	}}
}

// SlackWebhookPayload is the JSON body of a webhook post.
type SlackWebhookPayload struct {
	Text   string       `json:"text"`
	Blocks []SlackBlock `json:"blocks"`
}

type SlackBlock struct {
	Type     string            `json:"type"`
	Text     *SlackTextObject  `json:"text,omitempty"`
	Elements []SlackTextObject `json:"elements,omitempty"`
}

type SlackTextObject struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

const (
	maxSectionTextLength = 3000
	maxFallbackLength    = 150
	slackEllipsis        = "..."
)

func buildSlackPayload(n Notice) SlackWebhookPayload {
	fallback := truncate(fmt.Sprintf("Newsletter ready for %s", n.Username), maxFallbackLength, slackEllipsis)
	section := truncate(fmt.Sprintf("*Newsletter #%d for %s*\n\n%s", n.NewsletterID, n.Username, n.Preview),
		maxSectionTextLength, slackEllipsis)
	footer := fmt.Sprintf("%d articles • %s", n.ArticleCount, n.GeneratedAt.UTC().Format(time.RFC3339))

	return SlackWebhookPayload{
		Text: fallback,
		Blocks: []SlackBlock{
			{Type: "section", Text: &SlackTextObject{Type: "mrkdwn", Text: section}},
			{Type: "context", Elements: []SlackTextObject{{Type: "mrkdwn", Text: footer}}},
		},
	}
}

func (s *SlackNotifier) NotifyNewsletter(ctx context.Context, n Notice) error {
	return s.hook.deliver(ctx, n, buildSlackPayload(n))
}
