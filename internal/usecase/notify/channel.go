// Package notify announces generated newsletters on the configured chat
// channels. Delivery is fire-and-forget: a slow or failing channel never
// blocks newsletter generation.
package notify

import (
	"context"

	"newsletter-curator/internal/infra/notifier"
)

// Channel is one delivery target. Implementations apply their own rate
// limiting and retries and must be safe for concurrent use.
type Channel interface {
	// Name is the lowercase identifier used in logs and metric labels.
	Name() string
	IsEnabled() bool
	Send(ctx context.Context, notice notifier.Notice) error
}

// webhookChannel adapts a notifier.Notifier to Channel. A disabled channel is
// backed by the no-op notifier.
type webhookChannel struct {
	name     string
	notifier notifier.Notifier
	enabled  bool
}

func (c *webhookChannel) Name() string { return c.name }

func (c *webhookChannel) IsEnabled() bool { return c.enabled }

func (c *webhookChannel) Send(ctx context.Context, notice notifier.Notice) error {
	if !c.enabled {
		return ErrChannelDisabled
	}
	if notice.NewsletterID <= 0 {
		return ErrInvalidNotice
	}
	return c.notifier.NotifyNewsletter(ctx, notice)
}
