package main

import (
	"context"
	"flag"
	"time"

	"github.com/dvloznov/txbridge/internal/logger"
	"github.com/dvloznov/txbridge/internal/storage/postgres"
)

func main() {
	timeout := flag.Duration("timeout", time.Minute, "Migration timeout")
	flag.Parse()

	log := logger.New()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	db, err := postgres.Open(ctx, postgres.ConfigFromEnv())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply schema")
	}

	log.Info().Msg("Schema applied")
}
