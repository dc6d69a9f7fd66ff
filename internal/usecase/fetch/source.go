package fetch

import (
	"context"
	"time"
)

// RawArticle is one record as returned by the news source, before validation.
// PublishedAt is kept as the source's string so ingestion decides how to treat bad values.
type RawArticle struct {
	URL         string
	Title       string
	Description string
	Content     string
	PublishedAt string
	SourceName  string
}

// Query is a single keyword search.
type Query struct {
	Keyword  string
	From     time.Time
	To       time.Time
	PageSize int
}

// NewsSource performs keyword searches against the external news API.
type NewsSource interface {
	Search(ctx context.Context, q Query) ([]RawArticle, error)
	// Configured reports whether credentials are present.
	Configured() bool
}
