package queue

import (
	"context"
	"time"

	"fitserver/internal/domain"
)

// Store persists generation jobs. Implementations must keep a job's own
// state transitions monotonic: terminal states are immutable and progress
// never decreases.
type Store interface {
	Create(ctx context.Context, job *domain.Job) error
	Get(ctx context.Context, jobID string) (*domain.Job, error)

	// Claim atomically moves the oldest queued job of the category to
	// active and returns it. domain.ErrNotFound when the category queue is
	// empty.
	Claim(ctx context.Context, category domain.Category) (*domain.Job, error)

	// SetAttempt records the attempt number the owning worker is running.
	SetAttempt(ctx context.Context, jobID string, attempt int) error

	// MarkCharged records that the job's quota charge landed, so a
	// redelivery of the same job does not charge again.
	MarkCharged(ctx context.Context, jobID string) error

	// SetProgress reports a coarse milestone. Regressions are clamped so
	// status readers always observe a non-decreasing sequence.
	SetProgress(ctx context.Context, jobID string, progress int) error

	// Requeue returns a non-terminal job to the queued state.
	Requeue(ctx context.Context, jobID string) error

	Complete(ctx context.Context, jobID, resultRef string) error
	Fail(ctx context.Context, jobID, reason string) error

	// StaleActive lists active jobs whose last update is older than the
	// deadline. Used by the reaper to recover abandoned claims.
	StaleActive(ctx context.Context, olderThan time.Time) ([]*domain.Job, error)
}
