package providers

import (
	"context"
	"fmt"

	"fitserver/internal/backoff"
	"fitserver/internal/domain"
	"fitserver/internal/infra"
)

// Result is the normalized output of one generation operation.
type Result struct {
	Artifact *domain.Artifact
	Provider string
}

// Gateway is the uniform capability set implemented by each AI backend.
type Gateway interface {
	GenerateText(ctx context.Context, prompt string, schema Schema) (*Result, error)
	GenerateVision(ctx context.Context, prompt, imageRef string, schema Schema) (*Result, error)
	Name() string
}

// attemptFunc performs one raw provider call and returns the response text.
type attemptFunc func(ctx context.Context) ([]byte, error)

// generateWithRetry drives the rate-limit-aware retry loop shared by every
// backend, validates output against the declared schema, and degrades to the
// deterministic static artifact when attempts are exhausted and the category
// has a safe fallback. Quota/billing failures always propagate so the
// orchestrator can switch providers.
func generateWithRetry(ctx context.Context, policy backoff.Policy, logger *infra.Logger, name string, schema Schema, call attemptFunc) (*Result, error) {
	var artifact *domain.Artifact
	err := policy.Do(ctx, func(ctx context.Context, attempt int) (backoff.Result, error) {
		raw, err := call(ctx)
		if err != nil {
			if IsQuotaExhausted(err) || IsMalformed(err) {
				return backoff.ResultFatal, err
			}
			if logger != nil {
				logger.Warn().Err(err).Str("provider", name).Int("attempt", attempt).Msg("provider: attempt failed")
			}
			return backoff.ResultRetryable, err
		}
		parsed, perr := domain.ParseArtifact(schema.Category, raw)
		if perr != nil {
			// Locally detected shape mismatch; retried like any transient failure.
			if logger != nil {
				logger.Warn().Err(perr).Str("provider", name).Int("attempt", attempt).Msg("provider: schema validation failed")
			}
			return backoff.ResultRetryable, perr
		}
		artifact = parsed
		return backoff.ResultSuccess, nil
	})
	if err != nil {
		if IsQuotaExhausted(err) {
			return nil, err
		}
		if fallback := StaticArtifact(schema.Category); fallback != nil {
			if logger != nil {
				logger.Warn().Err(err).Str("provider", name).Str("category", string(schema.Category)).Msg("provider: degrading to static artifact")
			}
			return &Result{Artifact: fallback, Provider: StaticProviderName}, nil
		}
		return nil, fmt.Errorf("%s %s generation: %w", name, schema.Category, err)
	}
	return &Result{Artifact: artifact, Provider: name}, nil
}
