package notifier

import "context"

// NoOpNotifier is used for disabled channels.
type NoOpNotifier struct{}

func NewNoOpNotifier() *NoOpNotifier {
	return &NoOpNotifier{}
}

func (n *NoOpNotifier) NotifyNewsletter(context.Context, Notice) error {
	return nil
}
