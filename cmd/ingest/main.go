package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/alecthomas/kong"

	"github.com/dvloznov/txbridge/internal/feedsource"
	"github.com/dvloznov/txbridge/internal/logger"
	"github.com/dvloznov/txbridge/internal/merchant"
	"github.com/dvloznov/txbridge/internal/pipeline"
	"github.com/dvloznov/txbridge/internal/rules"
	"github.com/dvloznov/txbridge/internal/storage/postgres"
)

// cli commands / args available
var cli struct {
	Feed    feedCmd    `cmd:"" help:"Ingest a feed document into the transaction store."`
	Migrate migrateCmd `cmd:"" help:"Apply the database schema."`
}

type feedCmd struct {
	Source  string        `arg:"" help:"Feed location: local path or gs://bucket/object URI."`
	Timeout time.Duration `default:"5m" help:"Overall ingestion timeout."`
	JSON    bool          `help:"Print the full ingestion result as JSON."`
}

type migrateCmd struct {
	Timeout time.Duration `default:"1m" help:"Migration timeout."`
}

func main() {
	ctx := kong.Parse(&cli)
	ctx.FatalIfErrorf(ctx.Run())
}

func (c *feedCmd) Run() error {
	log := logger.New()

	ctx, cancel := context.WithTimeout(context.Background(), c.Timeout)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	data, err := feedsource.Fetch(ctx, c.Source)
	if err != nil {
		return fmt.Errorf("fetching feed: %w", err)
	}

	db, err := postgres.Open(ctx, postgres.ConfigFromEnv())
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer db.Close()

	ingestor := pipeline.NewIngestor(
		rules.NewEngine(rules.DefaultRules()),
		merchant.NewResolver(postgres.NewMerchantRepository(db), log),
		postgres.NewTransactionRepository(db),
		log,
	)

	log.Info().Str("source", c.Source).Msg("Starting ingestion")
	result := ingestor.Ingest(ctx, string(data))

	if c.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return fmt.Errorf("encoding result: %w", err)
		}
	} else {
		fmt.Printf("Processed %d records, saved %d.\n", result.TotalProcessed, result.TotalSaved)
		for _, e := range result.Errors {
			fmt.Fprintf(os.Stderr, "  %s\n", e)
		}
	}

	if result.Fatal() {
		return fmt.Errorf("ingestion failed")
	}
	return nil
}

func (c *migrateCmd) Run() error {
	log := logger.New()

	ctx, cancel := context.WithTimeout(context.Background(), c.Timeout)
	defer cancel()

	db, err := postgres.Open(ctx, postgres.ConfigFromEnv())
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		return fmt.Errorf("applying schema: %w", err)
	}

	log.Info().Msg("Schema applied")
	return nil
}
