package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"fitserver/internal/domain"
	"fitserver/internal/infra"
	"fitserver/internal/metrics"
	"fitserver/internal/providers"
)

// attemptRecord traces one provider invocation within a single Generate
// call. Records live only for the duration of the call and are emitted to
// the log on terminal outcomes.
type attemptRecord struct {
	provider  string
	attempt   int
	startedAt time.Time
	outcome   string
}

// Orchestrator selects an active provider for each generation call and, on a
// quota/billing-class provider failure, transparently switches to the single
// alternate provider for one retry pass. The configured default is never left
// mutated: fallback is per-call, not sticky.
type Orchestrator struct {
	mu          sync.Mutex
	defaultName string
	gateways    map[string]providers.Gateway
	logger      infra.Logger
}

// New constructs an orchestrator over the configured gateways.
func New(defaultName string, gateways map[string]providers.Gateway, logger infra.Logger) (*Orchestrator, error) {
	if len(gateways) == 0 {
		return nil, errors.New("orchestrator: at least one provider is required")
	}
	if _, ok := gateways[defaultName]; !ok {
		return nil, fmt.Errorf("orchestrator: default provider %q not configured", defaultName)
	}
	return &Orchestrator{
		defaultName: defaultName,
		gateways:    gateways,
		logger:      logger,
	}, nil
}

// CurrentProvider reports the configured default provider. It reflects the
// default regardless of whether any in-flight call is using the fallback.
func (o *Orchestrator) CurrentProvider() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.defaultName
}

// SetDefaultProvider changes the configured default for subsequent calls.
func (o *Orchestrator) SetDefaultProvider(name string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.gateways[name]; !ok {
		return fmt.Errorf("orchestrator: provider %q not configured", name)
	}
	o.defaultName = name
	return nil
}

// Generate runs one logical generation request: primary provider first, then
// at most one pass on the alternate when the primary reports quota/billing
// exhaustion. Non-quota failures propagate immediately with no fallback.
func (o *Orchestrator) Generate(ctx context.Context, category domain.Category, payload domain.Payload) (*providers.Result, error) {
	primary := o.CurrentProvider()
	records := make([]attemptRecord, 0, 2)

	res, err := o.invoke(ctx, primary, category, payload, 1, &records)
	if err == nil {
		return res, nil
	}
	if !providers.IsQuotaExhausted(err) {
		o.logAttempts(category, records)
		return nil, err
	}

	alternate := o.alternateOf(primary)
	if alternate == "" {
		o.logAttempts(category, records)
		return nil, err
	}
	o.logger.Warn().
		Str("category", string(category)).
		Str("primary", primary).
		Str("fallback", alternate).
		Err(err).
		Msg("orchestrator: provider quota exhausted, switching for this call")
	metrics.ProviderFallbacks.WithLabelValues(primary, alternate).Inc()

	res, fbErr := o.invoke(ctx, alternate, category, payload, 2, &records)
	o.logAttempts(category, records)
	if fbErr != nil {
		return nil, fmt.Errorf("fallback provider %s: %w", alternate, fbErr)
	}
	return res, nil
}

func (o *Orchestrator) invoke(ctx context.Context, name string, category domain.Category, payload domain.Payload, attempt int, records *[]attemptRecord) (*providers.Result, error) {
	gateway, ok := o.gateways[name]
	if !ok {
		return nil, fmt.Errorf("orchestrator: provider %q not configured", name)
	}
	rec := attemptRecord{provider: name, attempt: attempt, startedAt: time.Now()}
	prompt := providers.BuildPrompt(category, payload)

	var res *providers.Result
	var err error
	if category.VisionBased() {
		res, err = gateway.GenerateVision(ctx, prompt, payload.ImageRef, providers.SchemaFor(category))
	} else {
		res, err = gateway.GenerateText(ctx, prompt, providers.SchemaFor(category))
	}
	switch {
	case err == nil:
		rec.outcome = "success"
	case providers.IsQuotaExhausted(err):
		rec.outcome = "fatal-failure"
	default:
		rec.outcome = "retryable-failure"
	}
	*records = append(*records, rec)
	metrics.ProviderCalls.WithLabelValues(name, string(category), rec.outcome).Inc()
	return res, err
}

func (o *Orchestrator) alternateOf(primary string) string {
	o.mu.Lock()
	defer o.mu.Unlock()
	for name := range o.gateways {
		if name != primary {
			return name
		}
	}
	return ""
}

func (o *Orchestrator) logAttempts(category domain.Category, records []attemptRecord) {
	for _, rec := range records {
		o.logger.Debug().
			Str("category", string(category)).
			Str("provider", rec.provider).
			Int("attempt", rec.attempt).
			Dur("elapsed", time.Since(rec.startedAt)).
			Str("outcome", rec.outcome).
			Msg("orchestrator: provider attempt")
	}
}
