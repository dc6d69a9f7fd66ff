package notify

import "newsletter-curator/internal/infra/notifier"

// NewDiscordChannel returns the Discord channel, or a disabled one when cfg.Enabled is false.
func NewDiscordChannel(cfg notifier.WebhookConfig) Channel {
	var n notifier.Notifier = notifier.NewNoOpNotifier()
	if cfg.Enabled {
		n = notifier.NewDiscordNotifier(cfg)
	}
	return &webhookChannel{name: "discord", notifier: n, enabled: cfg.Enabled}
}
