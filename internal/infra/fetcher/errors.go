package fetcher

import "errors"

var (
	ErrInvalidURL        = errors.New("invalid URL or unsupported scheme")
	ErrPrivateIP         = errors.New("private IP access denied")
	ErrTooManyRedirects  = errors.New("too many redirects")
	ErrBodyTooLarge      = errors.New("response body too large")
	ErrTimeout           = errors.New("request timeout")
	ErrReadabilityFailed = errors.New("content extraction failed")
)
