package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"fitserver/internal/domain"
	"fitserver/internal/infra"
	"fitserver/internal/sqlinline"
)

// PGStore persists jobs in PostgreSQL. Claiming uses SKIP LOCKED so multiple
// workers never share a job; terminal-state guards are part of every update
// statement, which keeps per-job transitions monotonic.
type PGStore struct {
	runner infra.SQLExecutor
}

func NewPGStore(runner infra.SQLExecutor) *PGStore {
	return &PGStore{runner: runner}
}

func (s *PGStore) Create(ctx context.Context, job *domain.Job) error {
	_, err := s.runner.Exec(ctx, sqlinline.QJobInsert, job.ID, job.UserID, string(job.Category), []byte(job.Payload))
	if err != nil {
		return fmt.Errorf("queue: insert job: %w", err)
	}
	return nil
}

func (s *PGStore) Get(ctx context.Context, jobID string) (*domain.Job, error) {
	row := s.runner.QueryRow(ctx, sqlinline.QJobGet, jobID)
	return scanJob(row)
}

func (s *PGStore) Claim(ctx context.Context, category domain.Category) (*domain.Job, error) {
	row := s.runner.QueryRow(ctx, sqlinline.QJobClaim, string(category))
	job, err := scanJob(row)
	if err != nil {
		return nil, err
	}
	return job, nil
}

func (s *PGStore) SetAttempt(ctx context.Context, jobID string, attempt int) error {
	_, err := s.runner.Exec(ctx, sqlinline.QJobSetAttempt, jobID, attempt)
	return err
}

func (s *PGStore) MarkCharged(ctx context.Context, jobID string) error {
	_, err := s.runner.Exec(ctx, sqlinline.QJobMarkCharged, jobID)
	return err
}

func (s *PGStore) SetProgress(ctx context.Context, jobID string, progress int) error {
	_, err := s.runner.Exec(ctx, sqlinline.QJobSetProgress, jobID, progress)
	return err
}

func (s *PGStore) Requeue(ctx context.Context, jobID string) error {
	_, err := s.runner.Exec(ctx, sqlinline.QJobRequeue, jobID)
	return err
}

func (s *PGStore) Complete(ctx context.Context, jobID, resultRef string) error {
	_, err := s.runner.Exec(ctx, sqlinline.QJobComplete, jobID, resultRef)
	return err
}

func (s *PGStore) Fail(ctx context.Context, jobID, reason string) error {
	_, err := s.runner.Exec(ctx, sqlinline.QJobFail, jobID, reason)
	return err
}

func (s *PGStore) StaleActive(ctx context.Context, olderThan time.Time) ([]*domain.Job, error) {
	rows, err := s.runner.Query(ctx, sqlinline.QJobStaleActive, olderThan)
	if err != nil {
		return nil, fmt.Errorf("queue: list stale jobs: %w", err)
	}
	defer rows.Close()

	var stale []*domain.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		stale = append(stale, job)
	}
	return stale, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*domain.Job, error) {
	var job domain.Job
	var category, state string
	err := row.Scan(
		&job.ID,
		&job.UserID,
		&category,
		&job.Payload,
		&state,
		&job.Attempt,
		&job.Charged,
		&job.Progress,
		&job.ResultRef,
		&job.FailureReason,
		&job.CreatedAt,
		&job.UpdatedAt,
	)
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	job.Category = domain.Category(category)
	job.State = domain.JobState(state)
	return &job, nil
}

var _ Store = (*PGStore)(nil)
var _ rowScanner = (pgx.Row)(nil)
