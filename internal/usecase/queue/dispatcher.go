// Package queue runs asynchronous work from the durable job table. Jobs move
// pending -> in_flight -> retry_scheduled | done | abandoned; the transition
// after each attempt is decided here, not by the handlers.
package queue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"newsletter-curator/internal/domain/entity"
	"newsletter-curator/internal/repository"
)

// Attempt limits per job kind. A summarization gets three retries; newsletter
// generation runs once per cycle.
const (
	SummarizeMaxAttempts  = 4
	NewsletterMaxAttempts = 1
)

// Dispatcher enqueues jobs without waiting for them to run.
type Dispatcher struct {
	Jobs repository.JobRepository
	Now  func() time.Time
}

func NewDispatcher(jobs repository.JobRepository) *Dispatcher {
	return &Dispatcher{Jobs: jobs, Now: time.Now}
}

// Enqueue stores a pending job that is eligible immediately.
func (d *Dispatcher) Enqueue(ctx context.Context, kind entity.JobKind, subjectID int64, maxAttempts int) (*entity.Job, error) {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	job := &entity.Job{
		Kind:           kind,
		SubjectID:      subjectID,
		State:          entity.JobPending,
		MaxAttempts:    maxAttempts,
		NextEligibleAt: d.now(),
	}
	if err := d.Jobs.Enqueue(ctx, job); err != nil {
		return nil, fmt.Errorf("enqueue %s job for %d: %w", kind, subjectID, err)
	}
	slog.Debug("job enqueued",
		slog.Int64("job_id", job.ID),
		slog.String("job_kind", string(kind)),
		slog.Int64("subject_id", subjectID))
	return job, nil
}

// DispatchSummarize implements ingest.JobDispatcher.
func (d *Dispatcher) DispatchSummarize(ctx context.Context, articleID int64) error {
	_, err := d.Enqueue(ctx, entity.JobKindSummarizeArticle, articleID, SummarizeMaxAttempts)
	return err
}

// DispatchNewsletter enqueues one generation job for userID.
func (d *Dispatcher) DispatchNewsletter(ctx context.Context, userID int64) error {
	_, err := d.Enqueue(ctx, entity.JobKindGenerateNewsletter, userID, NewsletterMaxAttempts)
	return err
}

func (d *Dispatcher) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}
