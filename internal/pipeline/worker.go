package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"fitserver/internal/domain"
	"fitserver/internal/infra"
	"fitserver/internal/metrics"
	"fitserver/internal/providers"
	"fitserver/internal/queue"
)

// Generator produces a validated artifact for a category and payload. It is
// the orchestrator in production.
type Generator interface {
	Generate(ctx context.Context, category domain.Category, payload domain.Payload) (*providers.Result, error)
}

// ArtifactStore persists a generated artifact and returns its reference.
type ArtifactStore interface {
	WriteArtifact(ctx context.Context, jobID string, artifact *domain.Artifact) (string, error)
}

// QuotaKeeper charges and refunds usage units around generation attempts.
type QuotaKeeper interface {
	Increment(ctx context.Context, userID string, category domain.Category) error
	Decrement(ctx context.Context, userID string, category domain.Category) error
}

// Notifier informs the user of a terminal job outcome.
type Notifier interface {
	Complete(ctx context.Context, userID, jobID string, category domain.Category, artifactRef, locale string)
	Error(ctx context.Context, userID, jobID string, category domain.Category, errorSummary, locale string)
}

// JobLedger persists the per-job charge flag so that a job redelivered to
// another worker does not charge quota a second time.
type JobLedger interface {
	MarkCharged(ctx context.Context, jobID string) error
}

// Worker binds the generation collaborators into the queue's per-attempt
// handler and terminal hook. One Worker serves every category.
type Worker struct {
	generator Generator
	artifacts ArtifactStore
	quota     QuotaKeeper
	notifier  Notifier
	jobs      JobLedger
	logger    infra.Logger
}

func NewWorker(generator Generator, artifacts ArtifactStore, quota QuotaKeeper, notifier Notifier, jobs JobLedger, logger infra.Logger) *Worker {
	return &Worker{
		generator: generator,
		artifacts: artifacts,
		quota:     quota,
		notifier:  notifier,
		jobs:      jobs,
		logger:    logger,
	}
}

// Handle executes one attempt of a generation job. The usage unit is charged
// optimistically on the first attempt that reaches the quota ledger, keyed on
// the job's persisted charge flag so neither in-process retries nor a
// redelivery after a worker crash charge again. The refund for failed jobs
// happens in Terminal.
func (w *Worker) Handle(ctx context.Context, job *domain.Job, report queue.ProgressFunc) (string, error) {
	var payload domain.Payload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return "", queue.Fatal(fmt.Errorf("%w: %v", domain.ErrInvalidPayload, err))
	}
	if err := payload.ValidateFor(job.Category); err != nil {
		return "", queue.Fatal(err)
	}
	report(queue.ProgressStarted)

	if !job.Charged {
		if err := w.quota.Increment(ctx, job.UserID, job.Category); err != nil {
			return "", err
		}
		job.Charged = true
		if err := w.jobs.MarkCharged(ctx, job.ID); err != nil {
			// The charge landed; only the flag write failed. In-process
			// retries still see job.Charged, so the exposure is one
			// duplicate charge if this worker crashes before the flag
			// is persisted.
			w.logger.Warn().Err(err).Str("job_id", job.ID).Msg("pipeline: charge flag persist failed")
		}
	}

	start := time.Now()
	res, err := w.generator.Generate(ctx, job.Category, payload)
	if err != nil {
		if providers.IsQuotaExhausted(err) {
			// Both providers are out of capacity; retrying within the
			// job's backoff window will not help.
			return "", queue.Fatal(fmt.Errorf("%w: %v", domain.ErrProviderFailure, err))
		}
		return "", fmt.Errorf("%w: %v", domain.ErrProviderFailure, err)
	}
	report(queue.ProgressInvoked)

	report(queue.ProgressPersisting)
	ref, err := w.artifacts.WriteArtifact(ctx, job.ID, res.Artifact)
	if err != nil {
		return "", err
	}

	metrics.GenerationLatency.WithLabelValues(string(job.Category)).Observe(time.Since(start).Seconds())
	w.logger.Info().
		Str("job_id", job.ID).
		Str("category", string(job.Category)).
		Str("provider", res.Provider).
		Str("artifact_ref", ref).
		Msg("pipeline: artifact generated")
	return ref, nil
}

// Terminal runs exactly once per job after a terminal state transition: it
// refunds the optimistic quota charge on failure and dispatches the single
// outcome notification. A failed job that never managed to charge, for
// example when the ledger itself was down, gets no refund.
func (w *Worker) Terminal(ctx context.Context, job *domain.Job) {
	locale := w.localeOf(job)
	switch job.State {
	case domain.JobStateCompleted:
		w.notifier.Complete(ctx, job.UserID, job.ID, job.Category, job.ResultRef, locale)
	case domain.JobStateFailed:
		if job.Charged {
			if err := w.quota.Decrement(ctx, job.UserID, job.Category); err != nil {
				w.logger.Error().Err(err).
					Str("job_id", job.ID).
					Str("user_id", job.UserID).
					Msg("pipeline: quota refund failed")
			}
		}
		w.notifier.Error(ctx, job.UserID, job.ID, job.Category, job.FailureReason, locale)
	}
}

func (w *Worker) localeOf(job *domain.Job) string {
	var payload domain.Payload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return ""
	}
	return payload.Locale
}
