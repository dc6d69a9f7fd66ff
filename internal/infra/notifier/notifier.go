// Package notifier delivers "newsletter ready" announcements to chat webhooks.
// Implementations handle rate limiting, retries and error logging internally.
package notifier

import (
	"context"
	"time"

	"newsletter-curator/internal/pkg/config"
)

// Notice describes a freshly generated newsletter.
type Notice struct {
	NewsletterID int64
	UserID       int64
	Username     string
	GeneratedAt  time.Time
	ArticleCount int
	// Preview is the opening of the newsletter body.
	Preview string
}

// Notifier announces a newsletter on one delivery channel.
type Notifier interface {
	NotifyNewsletter(ctx context.Context, notice Notice) error
}

// WebhookConfig is shared by the Slack and Discord notifiers.
type WebhookConfig struct {
	Enabled    bool
	WebhookURL string
	Timeout    time.Duration
}

// LoadSlackConfig reads SLACK_ENABLED, SLACK_WEBHOOK_URL and SLACK_TIMEOUT.
func LoadSlackConfig(l *config.Loader) WebhookConfig {
	return loadWebhookConfig(l, "SLACK")
}

// LoadDiscordConfig reads DISCORD_ENABLED, DISCORD_WEBHOOK_URL and DISCORD_TIMEOUT.
func LoadDiscordConfig(l *config.Loader) WebhookConfig {
	return loadWebhookConfig(l, "DISCORD")
}

func loadWebhookConfig(l *config.Loader, prefix string) WebhookConfig {
	cfg := WebhookConfig{
		Enabled:    l.Bool(prefix+"_ENABLED", false),
		WebhookURL: config.LoadEnvString(prefix+"_WEBHOOK_URL", ""),
		Timeout:    l.Duration(prefix+"_TIMEOUT", 10*time.Second, config.DurationRange(time.Second, time.Minute)),
	}
	// a channel without a URL can never deliver
	if cfg.WebhookURL == "" {
		cfg.Enabled = false
	}
	return cfg
}
