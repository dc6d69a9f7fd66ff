package repository

import (
	"context"
	"time"

	"newsletter-curator/internal/domain/entity"
)

// JobRepository is the durable queue backing asynchronous work.
type JobRepository interface {
	// Enqueue stores a pending job and sets job.ID.
	Enqueue(ctx context.Context, job *entity.Job) error
	// ClaimDue atomically moves up to limit eligible pending or retry_scheduled jobs
	// to in_flight, incrementing their attempt count. Concurrent claimers never share a job.
	ClaimDue(ctx context.Context, now time.Time, limit int) ([]*entity.Job, error)
	MarkDone(ctx context.Context, id int64) error
	ScheduleRetry(ctx context.Context, id int64, nextEligibleAt time.Time, lastError string) error
	MarkAbandoned(ctx context.Context, id int64, lastError string) error
	// ReclaimStale returns in_flight jobs last touched before olderThan to retry_scheduled.
	ReclaimStale(ctx context.Context, olderThan time.Time) (int64, error)
	CountByState(ctx context.Context) (map[entity.JobState]int64, error)
}
