package queue_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"newsletter-curator/internal/domain/entity"
)

// memJobs is an in-memory JobRepository with the claim semantics of the Postgres adapter.
type memJobs struct {
	mu     sync.Mutex
	nextID int64
	jobs   map[int64]*entity.Job
}

func newMemJobs() *memJobs {
	return &memJobs{jobs: map[int64]*entity.Job{}}
}

func (m *memJobs) Enqueue(_ context.Context, job *entity.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	job.ID = m.nextID
	cp := *job
	m.jobs[job.ID] = &cp
	return nil
}

func (m *memJobs) ClaimDue(_ context.Context, now time.Time, limit int) ([]*entity.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]int64, 0, len(m.jobs))
	for id := range m.jobs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var out []*entity.Job
	for _, id := range ids {
		j := m.jobs[id]
		if len(out) == limit {
			break
		}
		if (j.State == entity.JobPending || j.State == entity.JobRetryScheduled) && !j.NextEligibleAt.After(now) {
			j.State = entity.JobInFlight
			j.Attempts++
			j.UpdatedAt = now
			cp := *j
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memJobs) set(id int64, fn func(*entity.Job)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn(m.jobs[id])
	return nil
}

func (m *memJobs) MarkDone(_ context.Context, id int64) error {
	return m.set(id, func(j *entity.Job) { j.State = entity.JobDone })
}

func (m *memJobs) ScheduleRetry(_ context.Context, id int64, next time.Time, lastErr string) error {
	return m.set(id, func(j *entity.Job) {
		j.State, j.NextEligibleAt, j.LastError = entity.JobRetryScheduled, next, lastErr
	})
}

func (m *memJobs) MarkAbandoned(_ context.Context, id int64, lastErr string) error {
	return m.set(id, func(j *entity.Job) { j.State, j.LastError = entity.JobAbandoned, lastErr })
}

func (m *memJobs) ReclaimStale(_ context.Context, olderThan time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, j := range m.jobs {
		if j.State != entity.JobInFlight || !j.UpdatedAt.Before(olderThan) {
			continue
		}
		j.State = entity.JobRetryScheduled
		if j.Attempts >= j.MaxAttempts {
			j.State = entity.JobAbandoned
		}
		j.NextEligibleAt = olderThan
		j.LastError = "reclaimed after worker timeout"
		n++
	}
	return n, nil
}

func (m *memJobs) CountByState(context.Context) (map[entity.JobState]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[entity.JobState]int64{}
	for _, j := range m.jobs {
		out[j.State]++
	}
	return out, nil
}

func (m *memJobs) get(id int64) entity.Job {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.jobs[id]
}
