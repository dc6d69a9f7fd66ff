package notify

import "errors"

var (
	// ErrChannelDisabled is returned by Send on a disabled channel.
	ErrChannelDisabled = errors.New("channel is disabled")

	// ErrInvalidNotice indicates a notice without a persisted newsletter.
	ErrInvalidNotice = errors.New("invalid newsletter notice")
)
