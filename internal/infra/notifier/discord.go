package notifier

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// DiscordNotifier posts embeds to a Discord webhook.
type DiscordNotifier struct {
	hook *webhook
}

// NewDiscordNotifier limits delivery to 30 requests/minute with a burst of 3.
func NewDiscordNotifier(cfg WebhookConfig) *DiscordNotifier {
	return &DiscordNotifier{hook: &webhook{
		name:        "Discord",
		url:         cfg.WebhookURL,
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		rateLimiter: NewRateLimiter(0.5, 3),
		maxAttempts: 2,
		baseDelay:   5 * time.Second,
	}}
}

type DiscordWebhookPayload struct {
	Embeds []DiscordEmbed `json:"embeds"`
}

type DiscordEmbed struct {
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Color       int                `json:"color"`
	Footer      DiscordEmbedFooter `json:"footer"`
	Timestamp   string             `json:"timestamp"`
}

type DiscordEmbedFooter struct {
	Text string `json:"text"`
}

const (
	maxTitleLength       = 256
	maxDescriptionLength = 4096
	discordBlueColor     = 5793266 // #5865F2
)

func buildDiscordPayload(n Notice) DiscordWebhookPayload {
	return DiscordWebhookPayload{Embeds: []DiscordEmbed{{
		Title:       truncate(fmt.Sprintf("Newsletter ready for %s", n.Username), maxTitleLength, ""),
		Description: truncate(n.Preview, maxDescriptionLength, "..."),
		Color:       discordBlueColor,
		Footer:      DiscordEmbedFooter{Text: fmt.Sprintf("%d articles", n.ArticleCount)},
		Timestamp:   n.GeneratedAt.UTC().Format(time.RFC3339),
	}}}
}

func (d *DiscordNotifier) NotifyNewsletter(ctx context.Context, n Notice) error {
	return d.hook.deliver(ctx, n, buildDiscordPayload(n))
}
