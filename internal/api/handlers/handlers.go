package handlers

import (
	"context"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/dvloznov/txbridge/internal/api/middleware"
	"github.com/dvloznov/txbridge/internal/jobs"
	"github.com/dvloznov/txbridge/internal/pipeline"
	"github.com/dvloznov/txbridge/internal/storage/postgres"
)

// maxFeedBytes bounds the accepted feed document size.
const maxFeedBytes = 10 << 20

// Ingester runs one feed document through the ingestion pipeline.
type Ingester interface {
	Ingest(ctx context.Context, xmlText string) *pipeline.Result
}

// TransactionReader is the read side of the transaction store used by the API.
type TransactionReader interface {
	ListAll(ctx context.Context) ([]*pipeline.Transaction, error)
	ListByCategory(ctx context.Context, category string) ([]*pipeline.Transaction, error)
	SummarizeByCategory(ctx context.Context) ([]postgres.CategorySummary, error)
}

// CategoryLister exposes the category vocabulary of the rules engine.
type CategoryLister interface {
	Categories() []string
}

// SchemaMigrator provisions the database schema.
type SchemaMigrator interface {
	Migrate(ctx context.Context) error
}

// IngestionHandler handles feed ingestion endpoints.
type IngestionHandler struct {
	ingestor  Ingester
	publisher jobs.Publisher
	log       zerolog.Logger
}

// NewIngestionHandler creates a new ingestion handler.
func NewIngestionHandler(ingestor Ingester, publisher jobs.Publisher, log zerolog.Logger) *IngestionHandler {
	return &IngestionHandler{
		ingestor:  ingestor,
		publisher: publisher,
		log:       log,
	}
}

// Ingest handles POST /api/ingest. The request body is the raw XML feed
// document; the response is the full ingestion result. Status codes reflect
// the outcome: 200 all saved, 207 partially saved, 400 nothing parsed,
// 500 persistence failure.
func (h *IngestionHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	xmlText, ok := h.readFeedBody(w, r)
	if !ok {
		return
	}

	result := h.ingestor.Ingest(r.Context(), xmlText)
	middleware.WriteJSON(w, statusFor(result), result)
}

// IngestAsync handles POST /api/ingest/async. The feed is enqueued for
// background processing and the job ID is returned immediately.
func (h *IngestionHandler) IngestAsync(w http.ResponseWriter, r *http.Request) {
	xmlText, ok := h.readFeedBody(w, r)
	if !ok {
		return
	}

	job := &jobs.IngestFeedJob{
		Source: "api",
		XML:    xmlText,
	}

	if err := h.publisher.PublishIngestFeed(r.Context(), job); err != nil {
		h.log.Error().Err(err).Msg("Failed to enqueue ingestion job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue ingestion job")
		return
	}

	h.log.Info().Str("job_id", job.JobID).Msg("Ingestion job enqueued")

	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"job_id": job.JobID,
		"status": string(job.Status),
	})
}

func (h *IngestionHandler) readFeedBody(w http.ResponseWriter, r *http.Request) (string, bool) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxFeedBytes))
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Failed to read request body")
		return "", false
	}
	if len(body) == 0 {
		middleware.WriteError(w, http.StatusBadRequest, "Request body is required")
		return "", false
	}
	return string(body), true
}

// statusFor maps an ingestion result to an HTTP status code. A fatal result
// with nothing processed means the document itself was unusable; a fatal
// result after processing means persistence failed.
func statusFor(result *pipeline.Result) int {
	switch {
	case result.Fatal() && result.TotalProcessed == 0:
		return http.StatusBadRequest
	case result.Fatal():
		return http.StatusInternalServerError
	case !result.Success:
		return http.StatusMultiStatus
	default:
		return http.StatusOK
	}
}

// TransactionsHandler handles transaction read endpoints.
type TransactionsHandler struct {
	reader TransactionReader
	log    zerolog.Logger
}

// NewTransactionsHandler creates a new transactions handler.
func NewTransactionsHandler(reader TransactionReader, log zerolog.Logger) *TransactionsHandler {
	return &TransactionsHandler{
		reader: reader,
		log:    log,
	}
}

// ListTransactions handles GET /api/transactions with an optional
// ?category= filter.
func (h *TransactionsHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var (
		transactions []*pipeline.Transaction
		err          error
	)
	if category := r.URL.Query().Get("category"); category != "" {
		transactions, err = h.reader.ListByCategory(ctx, category)
	} else {
		transactions, err = h.reader.ListAll(ctx)
	}
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list transactions")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list transactions")
		return
	}

	if transactions == nil {
		transactions = []*pipeline.Transaction{}
	}
	middleware.WriteJSON(w, http.StatusOK, transactions)
}

// CategoriesHandler handles category endpoints.
type CategoriesHandler struct {
	lister CategoryLister
	reader TransactionReader
	log    zerolog.Logger
}

// NewCategoriesHandler creates a new categories handler.
func NewCategoriesHandler(lister CategoryLister, reader TransactionReader, log zerolog.Logger) *CategoriesHandler {
	return &CategoriesHandler{
		lister: lister,
		reader: reader,
		log:    log,
	}
}

// ListCategories handles GET /api/categories. It returns the category
// vocabulary of the rules engine alongside per-category aggregates over
// stored transactions.
func (h *CategoriesHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	summary, err := h.reader.SummarizeByCategory(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to summarize categories")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to summarize categories")
		return
	}
	if summary == nil {
		summary = []postgres.CategorySummary{}
	}

	categories := h.lister.Categories()

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"categories": categories,
		"count":      len(categories),
		"summary":    summary,
	})
}

// JobsHandler handles job status endpoints.
type JobsHandler struct {
	store jobs.JobStore
	log   zerolog.Logger
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(store jobs.JobStore, log zerolog.Logger) *JobsHandler {
	return &JobsHandler{
		store: store,
		log:   log,
	}
}

// GetJob handles GET /api/jobs/{id}.
func (h *JobsHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["id"]

	job, err := h.store.GetJob(r.Context(), jobID)
	if err != nil {
		h.log.Warn().Err(err).Str("job_id", jobID).Msg("Job lookup failed")
		middleware.WriteError(w, http.StatusNotFound, "Job not found")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, job)
}

// ListJobs handles GET /api/jobs with optional ?status= and ?limit= filters.
func (h *JobsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := jobs.JobFilter{
		Status: jobs.JobStatus(query.Get("status")),
	}
	if limitStr := query.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			filter.Limit = limit
		}
	}

	jobsList, err := h.store.ListJobs(r.Context(), filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list jobs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list jobs")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  jobsList,
		"count": len(jobsList),
	})
}

// AdminHandler handles operational endpoints.
type AdminHandler struct {
	migrator SchemaMigrator
	log      zerolog.Logger
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(migrator SchemaMigrator, log zerolog.Logger) *AdminHandler {
	return &AdminHandler{
		migrator: migrator,
		log:      log,
	}
}

// Setup handles POST /api/setup. It provisions the database schema; the DDL
// is idempotent so repeated calls are safe.
func (h *AdminHandler) Setup(w http.ResponseWriter, r *http.Request) {
	if err := h.migrator.Migrate(r.Context()); err != nil {
		h.log.Error().Err(err).Msg("Schema setup failed")
		middleware.WriteError(w, http.StatusInternalServerError, "Schema setup failed")
		return
	}

	h.log.Info().Msg("Schema setup completed")
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Healthz handles GET /healthz.
func Healthz(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
