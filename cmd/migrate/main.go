package main

import (
	"context"
	"database/sql"

	_ "github.com/lib/pq"

	"fitserver/internal/db"
	"fitserver/internal/infra"
)

func main() {
	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	database, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("migrate: open database failed")
	}
	defer database.Close()

	if err := db.RunMigrations(context.Background(), database); err != nil {
		logger.Fatal().Err(err).Msg("migrate: apply migrations failed")
	}
	logger.Info().Msg("migrate: migrations applied")
}
