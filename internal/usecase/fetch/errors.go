// Package fetch searches the news source once per interest keyword and merges
// the results into a single URL-unique list.
package fetch

import "errors"

var (
	// ErrSourceNotConfigured is returned by a NewsSource that has no API key.
	ErrSourceNotConfigured = errors.New("news source API key not configured")

	// ErrSourceStatus means the source answered with a non-ok status field.
	ErrSourceStatus = errors.New("news source returned error status")

	// ErrMalformedResponse means the response body could not be decoded.
	ErrMalformedResponse = errors.New("malformed news source response")
)
