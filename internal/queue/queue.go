package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"fitserver/internal/backoff"
	"fitserver/internal/domain"
	"fitserver/internal/infra"
	"fitserver/internal/metrics"
)

// Progress milestones reported by workers. Consumers must tolerate missed
// intermediate values.
const (
	ProgressStarted    = 10
	ProgressInvoked    = 40
	ProgressPersisting = 80
	ProgressDone       = 100
)

// ProgressFunc reports a coarse milestone for the owning job.
type ProgressFunc func(progress int)

// Handler executes one attempt of a job and returns the artifact reference
// on success. Errors wrapped with Fatal stop further attempts.
type Handler func(ctx context.Context, job *domain.Job, report ProgressFunc) (string, error)

// fatalError marks a failure that must not be retried at the job level.
type fatalError struct {
	err error
}

func (e *fatalError) Error() string { return e.err.Error() }
func (e *fatalError) Unwrap() error { return e.err }

// Fatal wraps an error so the queue fails the job without further attempts.
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return &fatalError{err: err}
}

// IsFatal reports whether the error was marked fatal.
func IsFatal(err error) bool {
	var fe *fatalError
	return errors.As(err, &fe)
}

// Status is the consumer-facing view of one job.
type Status struct {
	JobID         string          `json:"job_id"`
	State         domain.JobState `json:"state"`
	Progress      int             `json:"progress"`
	Result        string          `json:"result,omitempty"`
	FailureReason string          `json:"failure_reason,omitempty"`
}

// Options tunes the queue. Zero-value fields fall back to defaults.
type Options struct {
	// Concurrency is the fixed worker pool size per category.
	Concurrency map[domain.Category]int
	// MaxAttempts is the per-job retry ceiling.
	MaxAttempts int
	// RetryBase is the base delay between job attempts; it doubles per
	// attempt with the generic jitter policy.
	RetryBase time.Duration
	// PollInterval is the idle wait between claim attempts.
	PollInterval time.Duration
	// StaleAfter is the age past which an active job is considered
	// abandoned by its worker.
	StaleAfter time.Duration
	// ReaperSchedule is a cron spec for the stale-job reaper.
	ReaperSchedule string
}

func (o Options) withDefaults() Options {
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 3
	}
	if o.RetryBase <= 0 {
		o.RetryBase = 2 * time.Second
	}
	if o.PollInterval <= 0 {
		o.PollInterval = 2 * time.Second
	}
	if o.StaleAfter <= 0 {
		o.StaleAfter = 15 * time.Minute
	}
	if o.ReaperSchedule == "" {
		o.ReaperSchedule = "@every 1m"
	}
	return o
}

// Queue is a durable, at-least-once work queue with bounded concurrency per
// category and per-job retry with exponential backoff. Job ordering across
// jobs is not guaranteed; a single job's state transitions are monotonic.
type Queue struct {
	store   Store
	handler Handler
	opts    Options
	policy  backoff.Policy
	logger  infra.Logger

	// OnTerminal, when set, runs after a job reaches a terminal state.
	OnTerminal func(ctx context.Context, job *domain.Job)
}

// New constructs a queue over the given store and per-attempt handler.
func New(store Store, handler Handler, opts Options, logger infra.Logger) *Queue {
	opts = opts.withDefaults()
	return &Queue{
		store:   store,
		handler: handler,
		opts:    opts,
		policy:  backoff.New(opts.MaxAttempts, opts.RetryBase, 60*time.Second, 2),
		logger:  logger,
	}
}

// Enqueue persists a new queued job and returns its identifier. Quota
// admission happens strictly before this call, in the API layer.
func (q *Queue) Enqueue(ctx context.Context, userID string, category domain.Category, payload domain.Payload) (string, error) {
	if !category.Valid() {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidCategory, category)
	}
	if err := payload.ValidateFor(category); err != nil {
		return "", err
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("queue: encode payload: %w", err)
	}
	job := &domain.Job{
		ID:       uuid.NewString(),
		UserID:   userID,
		Category: category,
		Payload:  raw,
		State:    domain.JobStateQueued,
	}
	if err := q.store.Create(ctx, job); err != nil {
		return "", err
	}
	metrics.JobsEnqueued.WithLabelValues(string(category)).Inc()
	q.logger.Info().
		Str("job_id", job.ID).
		Str("user_id", userID).
		Str("category", string(category)).
		Msg("queue: job enqueued")
	return job.ID, nil
}

// Status returns the consumer-facing view of a job.
func (q *Queue) Status(ctx context.Context, jobID string) (*Status, error) {
	job, err := q.store.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}
	return &Status{
		JobID:         job.ID,
		State:         job.State,
		Progress:      job.Progress,
		Result:        job.ResultRef,
		FailureReason: job.FailureReason,
	}, nil
}

// Run starts the per-category worker pools and the stale-job reaper, and
// blocks until ctx is cancelled.
func (q *Queue) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	for _, category := range domain.Categories {
		workers := q.opts.Concurrency[category]
		if workers <= 0 {
			workers = 1
		}
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(category domain.Category) {
				defer wg.Done()
				q.workerLoop(ctx, category)
			}(category)
		}
	}

	reaper := cron.New()
	if _, err := reaper.AddFunc(q.opts.ReaperSchedule, func() { q.reapStale(ctx) }); err != nil {
		return fmt.Errorf("queue: reaper schedule: %w", err)
	}
	reaper.Start()

	q.logger.Info().Msg("queue: workers started")
	<-ctx.Done()
	reaperCtx := reaper.Stop()
	<-reaperCtx.Done()
	wg.Wait()
	return ctx.Err()
}

// workerLoop claims and processes one job at a time, including all of the
// job's retry and backoff suspensions, before claiming the next.
func (q *Queue) workerLoop(ctx context.Context, category domain.Category) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		job, err := q.store.Claim(ctx, category)
		if err != nil {
			if !errors.Is(err, domain.ErrNotFound) {
				q.logger.Error().Err(err).Str("category", string(category)).Msg("queue: claim failed")
			}
			q.idle(ctx)
			continue
		}
		q.process(ctx, job)
	}
}

// process drives one job through up to MaxAttempts handler invocations. A
// redelivered job resumes from its persisted attempt count so requeueing
// never grants a fresh retry budget.
func (q *Queue) process(ctx context.Context, job *domain.Job) {
	q.logger.Info().
		Str("job_id", job.ID).
		Str("category", string(job.Category)).
		Msg("queue: picked job")

	report := func(progress int) {
		if err := q.store.SetProgress(ctx, job.ID, progress); err != nil {
			q.logger.Warn().Err(err).Str("job_id", job.ID).Msg("queue: progress update failed")
		}
	}

	var resultRef string
	err := q.policy.DoFrom(ctx, job.Attempt+1, func(ctx context.Context, attempt int) (backoff.Result, error) {
		job.Attempt = attempt
		if err := q.store.SetAttempt(ctx, job.ID, attempt); err != nil {
			q.logger.Warn().Err(err).Str("job_id", job.ID).Msg("queue: attempt update failed")
		}
		metrics.JobAttempts.WithLabelValues(string(job.Category)).Inc()

		ref, err := q.handler(ctx, job, report)
		if err == nil {
			resultRef = ref
			return backoff.ResultSuccess, nil
		}
		if IsFatal(err) {
			return backoff.ResultFatal, err
		}
		q.logger.Warn().Err(err).
			Str("job_id", job.ID).
			Int("attempt", attempt).
			Msg("queue: attempt failed")
		return backoff.ResultRetryable, err
	})

	if err != nil {
		q.finish(ctx, job, domain.JobStateFailed, "", err.Error())
		return
	}
	report(ProgressDone)
	q.finish(ctx, job, domain.JobStateCompleted, resultRef, "")
}

func (q *Queue) finish(ctx context.Context, job *domain.Job, state domain.JobState, resultRef, reason string) {
	var err error
	if state == domain.JobStateCompleted {
		err = q.store.Complete(ctx, job.ID, resultRef)
	} else {
		err = q.store.Fail(ctx, job.ID, reason)
	}
	if err != nil {
		q.logger.Error().Err(err).Str("job_id", job.ID).Msg("queue: terminal update failed")
		return
	}
	metrics.JobsTerminal.WithLabelValues(string(job.Category), string(state)).Inc()

	job.State = state
	job.ResultRef = resultRef
	job.FailureReason = reason
	if q.OnTerminal != nil {
		q.OnTerminal(ctx, job)
	}
	q.logger.Info().
		Str("job_id", job.ID).
		Str("state", string(state)).
		Msg("queue: job finished")
}

// reapStale recovers active jobs abandoned by a crashed or wedged worker:
// requeued when attempts remain, failed otherwise.
func (q *Queue) reapStale(ctx context.Context) {
	stale, err := q.store.StaleActive(ctx, time.Now().Add(-q.opts.StaleAfter))
	if err != nil {
		q.logger.Error().Err(err).Msg("queue: stale scan failed")
		return
	}
	for _, job := range stale {
		if job.Attempt >= q.opts.MaxAttempts {
			q.logger.Warn().Str("job_id", job.ID).Msg("queue: failing stale job")
			q.finish(ctx, job, domain.JobStateFailed, "", "abandoned after worker stall")
			continue
		}
		q.logger.Warn().Str("job_id", job.ID).Msg("queue: requeueing stale job")
		if err := q.store.Requeue(ctx, job.ID); err != nil {
			q.logger.Error().Err(err).Str("job_id", job.ID).Msg("queue: requeue failed")
		}
	}
}

func (q *Queue) idle(ctx context.Context) {
	timer := time.NewTimer(q.opts.PollInterval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
