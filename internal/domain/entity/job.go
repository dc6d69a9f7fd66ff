package entity

import "time"

// JobKind identifies the handler responsible for a queued job.
type JobKind string

const (
	JobKindSummarizeArticle   JobKind = "summarize_article"
	JobKindGenerateNewsletter JobKind = "generate_newsletter"
)

// JobState is a position in the job lifecycle:
// pending -> in_flight -> retry_scheduled | done | abandoned.
type JobState string

const (
	JobPending        JobState = "pending"
	JobInFlight       JobState = "in_flight"
	JobRetryScheduled JobState = "retry_scheduled"
	JobDone           JobState = "done"
	JobAbandoned      JobState = "abandoned"
)

// Terminal reports whether no further transition is possible.
func (s JobState) Terminal() bool {
	return s == JobDone || s == JobAbandoned
}

// Job is a durable unit of asynchronous work. SubjectID is the article id for
// summarization jobs and the user id for newsletter jobs.
type Job struct {
	ID             int64
	Kind           JobKind
	SubjectID      int64
	State          JobState
	Attempts       int
	MaxAttempts    int
	NextEligibleAt time.Time
	LastError      string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// CanRetry reports whether another attempt is allowed after the current one failed.
func (j *Job) CanRetry() bool {
	return j.Attempts < j.MaxAttempts
}
