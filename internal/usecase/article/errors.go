// Package article provides the read side of the Article Store: listing and
// fetching ingested articles for the REST surface.
package article

import "errors"

var (
	// ErrArticleNotFound indicates that the requested article was not found.
	ErrArticleNotFound = errors.New("article not found")

	// ErrInvalidArticleID indicates that the provided article ID is invalid.
	// Article IDs must be positive integers.
	ErrInvalidArticleID = errors.New("invalid article ID")
)
