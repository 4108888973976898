package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"fitserver/internal/backoff"
	"fitserver/internal/domain"
	"fitserver/internal/events"
	"fitserver/internal/infra"
	"fitserver/internal/notify"
	"fitserver/internal/orchestrator"
	"fitserver/internal/pipeline"
	"fitserver/internal/providers"
	"fitserver/internal/queue"
	"fitserver/internal/quota"
	"fitserver/internal/storage"
)

func main() {
	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: db connection failed")
	}
	defer pool.Close()

	runner := infra.NewSQLRunner(pool, logger)

	storagePath := cfg.StoragePath
	if !filepath.IsAbs(storagePath) {
		if abs, err := filepath.Abs(storagePath); err == nil {
			storagePath = abs
		}
	}
	fileStore, err := storage.NewFileStore(storagePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to configure storage")
	}

	gateways, err := initGateways(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to configure providers")
	}
	orch, err := orchestrator.New(cfg.DefaultProvider, gateways, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to configure orchestrator")
	}

	ledger := quota.NewLedger(quota.NewPGStore(runner), quotaLimits(cfg), logger)

	bus := events.NewBus(64)
	defer bus.Close()
	go logOutcomes(bus.Subscribe(), logger)

	dispatcher := notify.NewDispatcher(bus, cfg.DefaultLanguage, logger)

	jobStore := queue.NewPGStore(runner)
	worker := pipeline.NewWorker(orch, fileStore, ledger, dispatcher, jobStore, logger)

	jobs := queue.New(jobStore, worker.Handle, queue.Options{
		Concurrency: map[domain.Category]int{
			domain.CategoryWorkout:    cfg.PlanConcurrency,
			domain.CategoryMeal:       cfg.PlanConcurrency,
			domain.CategoryInbodyScan: cfg.ScanConcurrency,
			domain.CategoryBodyPhoto:  cfg.ScanConcurrency,
		},
		MaxAttempts:    cfg.JobMaxAttempts,
		RetryBase:      cfg.JobRetryBase,
		PollInterval:   cfg.JobPollInterval,
		StaleAfter:     cfg.JobStaleAfter,
		ReaperSchedule: cfg.ReaperSchedule,
	}, logger)
	jobs.OnTerminal = worker.Terminal

	if err := jobs.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("worker: stopped with error")
	}
	logger.Info().Msg("worker: stopped")
}

func initGateways(cfg *infra.Config, logger infra.Logger) (map[string]providers.Gateway, error) {
	policy := backoff.NewRateLimitAware(cfg.ProviderMaxAttempts, cfg.ProviderBaseDelay, cfg.ProviderMaxDelay, cfg.ProviderMultiplier)
	httpClient := &http.Client{Timeout: cfg.ProviderCallTimeout}

	gateways := make(map[string]providers.Gateway)
	if strings.TrimSpace(cfg.GeminiAPIKey) != "" {
		gemini, err := providers.NewGemini(providers.GeminiOptions{
			APIKey:     cfg.GeminiAPIKey,
			BaseURL:    cfg.GeminiBaseURL,
			Model:      cfg.GeminiModel,
			HTTPClient: httpClient,
			Logger:     &logger,
			Policy:     &policy,
		})
		if err != nil {
			return nil, err
		}
		gateways["gemini"] = gemini
	}
	if strings.TrimSpace(cfg.OpenAIAPIKey) != "" {
		openAI, err := providers.NewOpenAI(providers.OpenAIOptions{
			APIKey:       cfg.OpenAIAPIKey,
			BaseURL:      cfg.OpenAIBaseURL,
			Model:        cfg.OpenAIModel,
			Organization: cfg.OpenAIOrg,
			HTTPClient:   httpClient,
			Logger:       &logger,
			Policy:       &policy,
		})
		if err != nil {
			return nil, err
		}
		gateways["openai"] = openAI
	}
	if len(gateways) == 0 {
		return nil, errors.New("no provider credentials configured")
	}
	return gateways, nil
}

// logOutcomes consumes the terminal-outcome event stream. The push transport
// subscribes the same way in deployments that carry one.
func logOutcomes(ch <-chan events.Event, logger infra.Logger) {
	for ev := range ch {
		logger.Info().
			Str("job_id", ev.JobID).
			Str("user_id", ev.UserID).
			Str("outcome", string(ev.Outcome)).
			Str("language", ev.Language).
			Str("title", ev.Title).
			Msg("worker: outcome notification")
	}
}

func quotaLimits(cfg *infra.Config) map[domain.Category]int {
	return map[domain.Category]int{
		domain.CategoryWorkout:    cfg.WorkoutQuota,
		domain.CategoryMeal:       cfg.MealQuota,
		domain.CategoryInbodyScan: cfg.InbodyQuota,
		domain.CategoryBodyPhoto:  cfg.BodyPhotoQuota,
	}
}
