// Package entity defines the core domain entities and validation logic for the curation pipeline.
// It contains the fundamental business objects such as Interest, Article and Newsletter, along with
// their validation rules and domain-specific errors.
package entity

import "time"

// Column limits shared by ingestion and persistence.
const (
	MaxTitleLength  = 255
	MaxURLLength    = 500
	MaxSourceLength = 100

	DefaultTitle  = "No Title"
	DefaultSource = "Unknown Source"
)

// Article represents a news article ingested from the news source.
// Summary is empty until either the source description or the summarizer fills it.
// Topics is the set of interests matched once at ingestion time and never recomputed.
type Article struct {
	ID            int64
	Title         string
	URL           string
	Source        string
	PublishedDate time.Time
	Summary       string
	FullText      string
	Topics        []Interest
	CreatedAt     time.Time
}

// HasSummary reports whether the article already carries a non-empty summary.
func (a *Article) HasSummary() bool {
	return a.Summary != ""
}

// SummarySource returns the text a summarizer should work on, in priority order
// full text, existing summary, title. The second return value is false when none is present.
func (a *Article) SummarySource() (string, bool) {
	switch {
	case a.FullText != "":
		return a.FullText, true
	case a.Summary != "":
		return a.Summary, true
	case a.Title != "":
		return a.Title, true
	default:
		return "", false
	}
}

// TopicIDs returns the ids of the matched interests.
func (a *Article) TopicIDs() []int64 {
	ids := make([]int64, 0, len(a.Topics))
	for _, t := range a.Topics {
		ids = append(ids, t.ID)
	}
	return ids
}
