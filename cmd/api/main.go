package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"fitserver/internal/domain"
	"fitserver/internal/http/handlers"
	httpapi "fitserver/internal/http/httpapi"
	"fitserver/internal/infra"
	"fitserver/internal/infra/geoip"
	"fitserver/internal/middleware"
	"fitserver/internal/queue"
	"fitserver/internal/quota"
)

func main() {
	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()
	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer dbpool.Close()

	runner := infra.NewSQLRunner(dbpool, logger)

	ledger := quota.NewLedger(quota.NewPGStore(runner), quotaLimits(cfg), logger)

	// The API only enqueues and reads; job execution lives in cmd/worker.
	jobs := queue.New(queue.NewPGStore(runner), nil, queue.Options{}, logger)

	var countryLookup middleware.CountryLookup
	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip database unavailable, locale detection degraded")
	} else if resolver != nil {
		defer resolver.(*geoip.Resolver).Close()
		countryLookup = resolver.CountryCode
	}

	app := handlers.NewApp(jobs, ledger, logger)
	router := httpapi.NewRouter(app, httpapi.Options{
		Logger:             logger,
		DefaultLocale:      cfg.DefaultLanguage,
		CountryLookup:      countryLookup,
		RateLimitPerMinute: cfg.RateLimitPerMin,
	})

	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		// Start returns nil after a graceful Shutdown.
		if err := server.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}

func quotaLimits(cfg *infra.Config) map[domain.Category]int {
	return map[domain.Category]int{
		domain.CategoryWorkout:    cfg.WorkoutQuota,
		domain.CategoryMeal:       cfg.MealQuota,
		domain.CategoryInbodyScan: cfg.InbodyQuota,
		domain.CategoryBodyPhoto:  cfg.BodyPhotoQuota,
	}
}
