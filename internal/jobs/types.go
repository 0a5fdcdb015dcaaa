package jobs

import (
	"context"
	"time"
)

// JobStatus represents the current status of a job.
type JobStatus string

const (
	// JobStatusPending indicates the job is waiting to be processed.
	JobStatusPending JobStatus = "pending"
	// JobStatusRunning indicates the job is currently being processed.
	JobStatusRunning JobStatus = "running"
	// JobStatusCompleted indicates the job completed successfully.
	JobStatusCompleted JobStatus = "completed"
	// JobStatusFailed indicates the job failed.
	JobStatusFailed JobStatus = "failed"
	// JobStatusRetrying indicates the job failed and is being retried.
	JobStatusRetrying JobStatus = "retrying"
)

// IngestFeedJob represents an asynchronous ingestion of one feed document.
// Retrying a job re-runs the whole pipeline; that is safe because batch
// persistence upserts on the external txn id.
type IngestFeedJob struct {
	// JobID is the unique identifier for this job.
	JobID string `json:"job_id"`

	// Source describes where the feed came from (upload, file path, URI).
	Source string `json:"source,omitempty"`

	// XML is the raw feed document to ingest.
	XML string `json:"-"`

	// Status is the current status of the job.
	Status JobStatus `json:"status"`

	// CreatedAt is when the job was created.
	CreatedAt time.Time `json:"created_at"`

	// StartedAt is when the job started processing.
	StartedAt *time.Time `json:"started_at,omitempty"`

	// CompletedAt is when the job completed (success or failure).
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Error contains error details if the job failed.
	Error string `json:"error,omitempty"`

	// TotalProcessed and TotalSaved are filled in from the ingestion result.
	TotalProcessed int `json:"total_processed"`
	TotalSaved     int `json:"total_saved"`

	// RetryCount is the number of times this job has been retried.
	RetryCount int `json:"retry_count"`

	// MaxRetries is the maximum number of retries allowed.
	MaxRetries int `json:"max_retries"`
}

// Publisher enqueues ingestion jobs for asynchronous processing.
type Publisher interface {
	PublishIngestFeed(ctx context.Context, job *IngestFeedJob) error
}

// JobHandler processes one job. A returned error marks the job failed and
// eligible for retry.
type JobHandler func(ctx context.Context, job *IngestFeedJob) error

// Consumer drains the queue, dispatching jobs to a handler.
type Consumer interface {
	// Start begins consuming jobs with the given handler.
	Start(ctx context.Context, handler JobHandler) error

	// Stop stops consuming jobs and waits for in-flight jobs to complete.
	Stop(ctx context.Context) error
}

// JobStore tracks job state so callers can poll for completion.
type JobStore interface {
	// SaveJob saves or updates a job's state.
	SaveJob(ctx context.Context, job *IngestFeedJob) error

	// GetJob retrieves a job by ID.
	GetJob(ctx context.Context, jobID string) (*IngestFeedJob, error)

	// ListJobs retrieves jobs with optional filtering.
	ListJobs(ctx context.Context, filter JobFilter) ([]*IngestFeedJob, error)
}

// JobFilter defines filtering criteria for listing jobs.
type JobFilter struct {
	// Status filters jobs by status.
	Status JobStatus

	// Limit limits the number of results; zero means no limit.
	Limit int
}
