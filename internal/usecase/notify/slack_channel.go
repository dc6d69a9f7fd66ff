package notify

import "newsletter-curator/internal/infra/notifier"

// NewSlackChannel returns the Slack channel, or a disabled one when cfg.Enabled is false.
func NewSlackChannel(cfg notifier.WebhookConfig) Channel {
	var n notifier.Notifier = notifier.NewNoOpNotifier()
	if cfg.Enabled {
		n = notifier.NewSlackNotifier(cfg)
	}
	return &webhookChannel{name: "slack", notifier: n, enabled: cfg.Enabled}
}
