package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dvloznov/txbridge/internal/api/handlers"
	"github.com/dvloznov/txbridge/internal/api/middleware"
	"github.com/dvloznov/txbridge/internal/jobs"
	"github.com/dvloznov/txbridge/internal/jobs/inmemory"
	"github.com/dvloznov/txbridge/internal/logger"
	"github.com/dvloznov/txbridge/internal/merchant"
	"github.com/dvloznov/txbridge/internal/pipeline"
	"github.com/dvloznov/txbridge/internal/rules"
	"github.com/dvloznov/txbridge/internal/storage/postgres"
)

func main() {
	// Parse command-line flags
	var (
		port    = flag.String("port", "8080", "HTTP server port")
		workers = flag.Int("workers", 4, "Number of background ingestion workers")
		migrate = flag.Bool("migrate", false, "Apply database schema on startup")
	)
	flag.Parse()

	// Initialize logger
	log := logger.New()

	ctx := context.Background()

	// Connect to PostgreSQL
	db, err := postgres.Open(ctx, postgres.ConfigFromEnv())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	if *migrate {
		if err := db.Migrate(ctx); err != nil {
			log.Fatal().Err(err).Msg("Failed to apply schema")
		}
		log.Info().Msg("Schema applied")
	}

	// Wire the ingestion pipeline
	merchantRepo := postgres.NewMerchantRepository(db)
	txRepo := postgres.NewTransactionRepository(db)
	engine := rules.NewEngine(rules.DefaultRules())
	resolver := merchant.NewResolver(merchantRepo, log)
	ingestor := pipeline.NewIngestor(engine, resolver, txRepo, log)

	// Initialize job infrastructure
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(100, *workers, jobStore)

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	jobHandler := func(ctx context.Context, job *jobs.IngestFeedJob) error {
		log.Info().
			Str("job_id", job.JobID).
			Str("source", job.Source).
			Msg("Processing ingestion job")

		result := ingestor.Ingest(ctx, job.XML)
		job.TotalProcessed = result.TotalProcessed
		job.TotalSaved = result.TotalSaved

		if result.Fatal() {
			log.Error().
				Str("job_id", job.JobID).
				Strs("errors", result.Errors).
				Msg("Ingestion job failed")
			return jobError(result)
		}

		log.Info().
			Str("job_id", job.JobID).
			Int("processed", result.TotalProcessed).
			Int("saved", result.TotalSaved).
			Msg("Ingestion job completed")

		return nil
	}

	// Start job consumer in background
	go func() {
		log.Info().Int("workers", *workers).Msg("Starting ingestion workers")
		if err := jobQueue.Start(workerCtx, jobHandler); err != nil {
			log.Error().Err(err).Msg("Job worker stopped with error")
		}
	}()

	// Initialize handlers
	ingestionHandler := handlers.NewIngestionHandler(ingestor, jobQueue, log)
	transactionsHandler := handlers.NewTransactionsHandler(txRepo, log)
	categoriesHandler := handlers.NewCategoriesHandler(engine, txRepo, log)
	jobsHandler := handlers.NewJobsHandler(jobStore, log)
	adminHandler := handlers.NewAdminHandler(db, log)

	// Create router
	router := mux.NewRouter()
	router.HandleFunc("/api/ingest", ingestionHandler.Ingest).Methods(http.MethodPost)
	router.HandleFunc("/api/ingest/async", ingestionHandler.IngestAsync).Methods(http.MethodPost)
	router.HandleFunc("/api/transactions", transactionsHandler.ListTransactions).Methods(http.MethodGet)
	router.HandleFunc("/api/categories", categoriesHandler.ListCategories).Methods(http.MethodGet)
	router.HandleFunc("/api/jobs", jobsHandler.ListJobs).Methods(http.MethodGet)
	router.HandleFunc("/api/jobs/{id}", jobsHandler.GetJob).Methods(http.MethodGet)
	router.HandleFunc("/api/setup", adminHandler.Setup).Methods(http.MethodPost)
	router.HandleFunc("/healthz", handlers.Healthz).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	// Apply middleware
	handler := middleware.Recovery(log)(
		middleware.Logger(log)(
			middleware.RequestID(
				middleware.CORS(router),
			),
		),
	)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + *port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("port", *port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	cancelWorker()

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	// Stop job queue and wait for in-flight jobs
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}

	log.Info().Msg("Server exited")
}

// jobError folds the result errors into one error for the job record.
func jobError(result *pipeline.Result) error {
	if len(result.Errors) > 0 {
		return fmt.Errorf("%s", strings.Join(result.Errors, "; "))
	}
	return fmt.Errorf("ingestion failed")
}
