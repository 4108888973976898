package queue

import (
	"context"
	"sort"
	"sync"
	"time"

	"fitserver/internal/domain"
)

// MemoryStore keeps jobs in process memory. Intended for tests and
// single-node development environments.
type MemoryStore struct {
	mu   sync.Mutex
	jobs map[string]*domain.Job

	// now is injectable for stale-claim tests.
	now func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{jobs: make(map[string]*domain.Job), now: time.Now}
}

func (s *MemoryStore) Create(ctx context.Context, job *domain.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *job
	cp.CreatedAt = s.now()
	cp.UpdatedAt = cp.CreatedAt
	s.jobs[cp.ID] = &cp
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, jobID string) (*domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *job
	return &cp, nil
}

func (s *MemoryStore) Claim(ctx context.Context, category domain.Category) (*domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var queued []*domain.Job
	for _, job := range s.jobs {
		if job.Category == category && job.State == domain.JobStateQueued {
			queued = append(queued, job)
		}
	}
	if len(queued) == 0 {
		return nil, domain.ErrNotFound
	}
	sort.Slice(queued, func(i, j int) bool { return queued[i].CreatedAt.Before(queued[j].CreatedAt) })
	job := queued[0]
	job.State = domain.JobStateActive
	job.UpdatedAt = s.now()
	cp := *job
	return &cp, nil
}

func (s *MemoryStore) SetAttempt(ctx context.Context, jobID string, attempt int) error {
	return s.mutate(jobID, func(job *domain.Job) {
		if attempt > job.Attempt {
			job.Attempt = attempt
		}
	})
}

func (s *MemoryStore) MarkCharged(ctx context.Context, jobID string) error {
	return s.mutate(jobID, func(job *domain.Job) {
		job.Charged = true
	})
}

func (s *MemoryStore) SetProgress(ctx context.Context, jobID string, progress int) error {
	return s.mutate(jobID, func(job *domain.Job) {
		if progress > job.Progress {
			job.Progress = progress
		}
	})
}

func (s *MemoryStore) Requeue(ctx context.Context, jobID string) error {
	return s.mutate(jobID, func(job *domain.Job) {
		job.State = domain.JobStateQueued
	})
}

func (s *MemoryStore) Complete(ctx context.Context, jobID, resultRef string) error {
	return s.mutate(jobID, func(job *domain.Job) {
		job.State = domain.JobStateCompleted
		job.Progress = 100
		job.ResultRef = resultRef
	})
}

func (s *MemoryStore) Fail(ctx context.Context, jobID, reason string) error {
	return s.mutate(jobID, func(job *domain.Job) {
		job.State = domain.JobStateFailed
		job.FailureReason = reason
	})
}

func (s *MemoryStore) StaleActive(ctx context.Context, olderThan time.Time) ([]*domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var stale []*domain.Job
	for _, job := range s.jobs {
		if job.State == domain.JobStateActive && job.UpdatedAt.Before(olderThan) {
			cp := *job
			stale = append(stale, &cp)
		}
	}
	return stale, nil
}

// mutate applies fn to a non-terminal job. Terminal states are immutable.
func (s *MemoryStore) mutate(jobID string, fn func(*domain.Job)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return domain.ErrNotFound
	}
	if job.State.Terminal() {
		return domain.ErrJobTerminal
	}
	fn(job)
	job.UpdatedAt = s.now()
	return nil
}

var _ Store = (*MemoryStore)(nil)
