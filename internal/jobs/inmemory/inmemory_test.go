package inmemory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/dvloznov/txbridge/internal/jobs"
)

func TestStoreSaveAndGet(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	job := &jobs.IngestFeedJob{
		JobID:  "job-1",
		Source: "upload",
		Status: jobs.JobStatusPending,
	}
	if err := store.SaveJob(ctx, job); err != nil {
		t.Fatalf("SaveJob returned error: %v", err)
	}

	// Mutating the original must not affect the stored copy.
	job.Status = jobs.JobStatusFailed

	got, err := store.GetJob(ctx, "job-1")
	if err != nil {
		t.Fatalf("GetJob returned error: %v", err)
	}
	if got.Status != jobs.JobStatusPending {
		t.Errorf("stored job status = %q, want %q", got.Status, jobs.JobStatusPending)
	}
}

func TestStoreGetMissingJob(t *testing.T) {
	store := NewStore()

	if _, err := store.GetJob(context.Background(), "no-such-job"); err == nil {
		t.Fatal("expected error for missing job, got nil")
	}
}

func TestStoreRequiresJobID(t *testing.T) {
	store := NewStore()

	if err := store.SaveJob(context.Background(), &jobs.IngestFeedJob{}); err == nil {
		t.Fatal("expected error for job without ID, got nil")
	}
}

func TestStoreListJobsFilters(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	for i := 0; i < 3; i++ {
		job := &jobs.IngestFeedJob{JobID: fmt.Sprintf("done-%d", i), Status: jobs.JobStatusCompleted}
		if err := store.SaveJob(ctx, job); err != nil {
			t.Fatalf("SaveJob returned error: %v", err)
		}
	}
	if err := store.SaveJob(ctx, &jobs.IngestFeedJob{JobID: "pending-1", Status: jobs.JobStatusPending}); err != nil {
		t.Fatalf("SaveJob returned error: %v", err)
	}

	completed, err := store.ListJobs(ctx, jobs.JobFilter{Status: jobs.JobStatusCompleted})
	if err != nil {
		t.Fatalf("ListJobs returned error: %v", err)
	}
	if len(completed) != 3 {
		t.Errorf("completed jobs = %d, want 3", len(completed))
	}

	limited, err := store.ListJobs(ctx, jobs.JobFilter{Status: jobs.JobStatusCompleted, Limit: 2})
	if err != nil {
		t.Fatalf("ListJobs returned error: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("limited jobs = %d, want 2", len(limited))
	}
}

func TestQueueProcessesJob(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := NewStore()
	queue := NewQueue(10, 2, store)

	var mu sync.Mutex
	processed := make(map[string]bool)
	done := make(chan struct{})

	handler := func(ctx context.Context, job *jobs.IngestFeedJob) error {
		mu.Lock()
		processed[job.JobID] = true
		mu.Unlock()
		close(done)
		return nil
	}

	if err := queue.Start(ctx, handler); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}

	job := &jobs.IngestFeedJob{Source: "test", XML: "<transactions></transactions>"}
	if err := queue.PublishIngestFeed(ctx, job); err != nil {
		t.Fatalf("PublishIngestFeed returned error: %v", err)
	}
	if job.JobID == "" {
		t.Fatal("PublishIngestFeed did not assign a job ID")
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("job was not processed within timeout")
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer stopCancel()
	if err := queue.Stop(stopCtx); err != nil {
		t.Fatalf("Stop returned error: %v", err)
	}

	mu.Lock()
	if !processed[job.JobID] {
		t.Errorf("job %s was not handled", job.JobID)
	}
	mu.Unlock()

	stored, err := store.GetJob(context.Background(), job.JobID)
	if err != nil {
		t.Fatalf("GetJob returned error: %v", err)
	}
	if stored.Status != jobs.JobStatusCompleted {
		t.Errorf("job status = %q, want %q", stored.Status, jobs.JobStatusCompleted)
	}
	if stored.CompletedAt == nil {
		t.Error("CompletedAt was not set")
	}
}

func TestQueueRetriesFailedJob(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := NewStore()
	queue := NewQueue(10, 1, store)

	var mu sync.Mutex
	attempts := 0
	done := make(chan struct{})

	handler := func(ctx context.Context, job *jobs.IngestFeedJob) error {
		mu.Lock()
		defer mu.Unlock()
		attempts++
		if attempts == 1 {
			return fmt.Errorf("transient failure")
		}
		close(done)
		return nil
	}

	if err := queue.Start(ctx, handler); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}

	job := &jobs.IngestFeedJob{Source: "test", XML: "<transactions></transactions>"}
	if err := queue.PublishIngestFeed(ctx, job); err != nil {
		t.Fatalf("PublishIngestFeed returned error: %v", err)
	}

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("job was not retried within timeout")
	}

	mu.Lock()
	if attempts != 2 {
		t.Errorf("handler attempts = %d, want 2", attempts)
	}
	mu.Unlock()
}

func TestQueueRetryAfterStopMarksJobFailed(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := NewStore()
	queue := NewQueue(10, 1, store)

	firstFailure := make(chan struct{})
	var once sync.Once
	handler := func(ctx context.Context, job *jobs.IngestFeedJob) error {
		once.Do(func() { close(firstFailure) })
		return fmt.Errorf("transient failure")
	}

	if err := queue.Start(ctx, handler); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}

	job := &jobs.IngestFeedJob{Source: "test", XML: "<transactions></transactions>"}
	if err := queue.PublishIngestFeed(ctx, job); err != nil {
		t.Fatalf("PublishIngestFeed returned error: %v", err)
	}

	select {
	case <-firstFailure:
	case <-time.After(5 * time.Second):
		t.Fatal("job was not attempted within timeout")
	}

	// Stop before the retry timer fires: the re-publish must fail and the
	// job must still reach a terminal status instead of staying pending.
	stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer stopCancel()
	if err := queue.Stop(stopCtx); err != nil {
		t.Fatalf("Stop returned error: %v", err)
	}

	deadline := time.Now().Add(10 * time.Second)
	for {
		stored, err := store.GetJob(context.Background(), job.JobID)
		if err == nil && stored.Status == jobs.JobStatusFailed {
			if stored.CompletedAt == nil {
				t.Error("CompletedAt was not set on the failed job")
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("job status = %q, never reached %q", stored.Status, jobs.JobStatusFailed)
		}
		time.Sleep(50 * time.Millisecond)
	}
}

func TestQueuePublishAfterStop(t *testing.T) {
	queue := NewQueue(1, 1, nil)

	stopCtx, stopCancel := context.WithTimeout(context.Background(), time.Second)
	defer stopCancel()
	if err := queue.Stop(stopCtx); err != nil {
		t.Fatalf("Stop returned error: %v", err)
	}

	err := queue.PublishIngestFeed(context.Background(), &jobs.IngestFeedJob{Source: "test"})
	if err == nil {
		t.Fatal("expected error publishing to a stopped queue, got nil")
	}
}
