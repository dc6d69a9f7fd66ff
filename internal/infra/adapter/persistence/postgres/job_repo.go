package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"newsletter-curator/internal/domain/entity"
	"newsletter-curator/internal/repository"
)

// JobRepo is the durable job queue. Claiming relies on FOR UPDATE SKIP LOCKED
// so several workers can poll the same table.
type JobRepo struct {
	db *sql.DB
}

func NewJobRepo(db *sql.DB) repository.JobRepository {
	return &JobRepo{db: db}
}

const jobColumns = "id, kind, subject_id, state, attempts, max_attempts, next_eligible_at, last_error, created_at, updated_at"

func (repo *JobRepo) Enqueue(ctx context.Context, job *entity.Job) error {
	const query = `
INSERT INTO jobs (kind, subject_id, state, attempts, max_attempts, next_eligible_at)
VALUES ($1, $2, 'pending', 0, $3, $4)
RETURNING id, created_at, updated_at`
	if job.NextEligibleAt.IsZero() {
		job.NextEligibleAt = time.Now()
	}
	err := repo.db.QueryRowContext(ctx, query, string(job.Kind), job.SubjectID, job.MaxAttempts, job.NextEligibleAt).
		Scan(&job.ID, &job.CreatedAt, &job.UpdatedAt)
	if err != nil {
		return fmt.Errorf("Enqueue: %w", err)
	}
	job.State = entity.JobPending
	job.Attempts = 0
	return nil
}

func (repo *JobRepo) ClaimDue(ctx context.Context, now time.Time, limit int) ([]*entity.Job, error) {
	query := `
UPDATE jobs
   SET state = 'in_flight', attempts = attempts + 1, updated_at = now()
 WHERE id IN (
       SELECT id FROM jobs
        WHERE state IN ('pending', 'retry_scheduled')
          AND next_eligible_at <= $1
        ORDER BY next_eligible_at, id
        LIMIT $2
        FOR UPDATE SKIP LOCKED)
RETURNING ` + jobColumns
	rows, err := repo.db.QueryContext(ctx, query, now, limit)
	if err != nil {
		return nil, fmt.Errorf("ClaimDue: %w", err)
	}
	defer func() { _ = rows.Close() }()

	jobs := make([]*entity.Job, 0, limit)
	for rows.Next() {
		var (
			job         entity.Job
			kind, state string
		)
		if err := rows.Scan(&job.ID, &kind, &job.SubjectID, &state, &job.Attempts, &job.MaxAttempts,
			&job.NextEligibleAt, &job.LastError, &job.CreatedAt, &job.UpdatedAt); err != nil {
			return nil, fmt.Errorf("ClaimDue: Scan: %w", err)
		}
		job.Kind = entity.JobKind(kind)
		job.State = entity.JobState(state)
		jobs = append(jobs, &job)
	}
	return jobs, rows.Err()
}

func (repo *JobRepo) MarkDone(ctx context.Context, id int64) error {
	const query = `
UPDATE jobs SET state = 'done', last_error = '', updated_at = now()
WHERE id = $1 AND state = 'in_flight'`
	return repo.transition(ctx, "MarkDone", query, id)
}

func (repo *JobRepo) ScheduleRetry(ctx context.Context, id int64, nextEligibleAt time.Time, lastError string) error {
	const query = `
UPDATE jobs SET state = 'retry_scheduled', next_eligible_at = $2, last_error = $3, updated_at = now()
WHERE id = $1 AND state = 'in_flight'`
	return repo.transition(ctx, "ScheduleRetry", query, id, nextEligibleAt, lastError)
}

func (repo *JobRepo) MarkAbandoned(ctx context.Context, id int64, lastError string) error {
	const query = `
UPDATE jobs SET state = 'abandoned', last_error = $2, updated_at = now()
WHERE id = $1 AND state = 'in_flight'`
	return repo.transition(ctx, "MarkAbandoned", query, id, lastError)
}

func (repo *JobRepo) transition(ctx context.Context, op, query string, args ...any) error {
	res, err := repo.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%s: job %v is not in flight: %w", op, args[0], entity.ErrNotFound)
	}
	return nil
}

// ReclaimStale abandons stale jobs that already used every attempt and
// reschedules the rest immediately.
func (repo *JobRepo) ReclaimStale(ctx context.Context, olderThan time.Time) (int64, error) {
	const query = `
UPDATE jobs
   SET state = CASE WHEN attempts >= max_attempts THEN 'abandoned' ELSE 'retry_scheduled' END,
       next_eligible_at = now(),
       last_error = 'reclaimed after worker timeout',
       updated_at = now()
 WHERE state = 'in_flight' AND updated_at < $1`
	res, err := repo.db.ExecContext(ctx, query, olderThan)
	if err != nil {
		return 0, fmt.Errorf("ReclaimStale: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("ReclaimStale: RowsAffected: %w", err)
	}
	return n, nil
}

func (repo *JobRepo) CountByState(ctx context.Context) (map[entity.JobState]int64, error) {
	const query = `SELECT state, COUNT(*) FROM jobs GROUP BY state`
	rows, err := repo.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("CountByState: %w", err)
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[entity.JobState]int64)
	for rows.Next() {
		var state string
		var n int64
		if err := rows.Scan(&state, &n); err != nil {
			return nil, fmt.Errorf("CountByState: Scan: %w", err)
		}
		counts[entity.JobState(state)] = n
	}
	return counts, rows.Err()
}
