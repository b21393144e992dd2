// Package queue provides the durable, at-least-once task queue that decouples
// slow OCR/LLM work from the web request cycle, plus the worker pool that
// drains it.
package queue

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/FACorreiaa/ledgerlens/internal/ingest/prompt"
)

// Status is the lifecycle state of one ingestion job.
type Status string

const (
	StatusWaiting   Status = "waiting"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// ErrJobNotFound is returned when a job key does not exist for the owner or
// holds no completed result.
var ErrJobNotFound = errors.New("ingest job not found")

// Job is one file's unit of asynchronous ingestion work, keyed by
// (OwnerID, FileKey). Enqueueing the same key again overwrites the earlier
// job.
type Job struct {
	ID           uuid.UUID
	OwnerID      uuid.UUID
	FileKey      string
	OriginalName string
	RawFile      []byte

	// Categories is the owner's taxonomy snapshotted at submit time; later
	// category edits must not affect jobs already enqueued.
	Categories []prompt.CategoryHint

	Status     Status
	Failure    string
	EnqueuedAt time.Time
	StartedAt  *time.Time
	FinishedAt *time.Time
}

// Result is the payload stored for a completed job, kept until the user
// commits or discards the task.
type Result struct {
	CompletionText string
	FileBytes      []byte
	OriginalName   string
}

// JobStore is the capability interface over the durable queue. The worker
// pool and the orchestrator share no other state.
type JobStore interface {
	// Enqueue schedules one file for processing. Upserts on
	// (owner, file key): a collision overwrites the earlier job and resets
	// it to waiting.
	Enqueue(ctx context.Context, job *Job) error

	// ListByOwner returns the owner's jobs with their current status,
	// without raw payloads, ordered by enqueue time.
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]Job, error)

	// GetResult returns the stored result payload for a completed job;
	// ErrJobNotFound otherwise.
	GetResult(ctx context.Context, ownerID uuid.UUID, fileKey string) (*Result, error)

	// Delete removes jobs and stored results. Idempotent: absent keys are
	// not an error.
	Delete(ctx context.Context, ownerID uuid.UUID, fileKeys []string) error

	// DequeueWaiting atomically claims the oldest waiting job, marking it
	// active. Returns (nil, nil) when the queue is empty.
	DequeueWaiting(ctx context.Context) (*Job, error)

	// Complete stores the completion text and marks the job completed. A
	// job deleted while it was running is a no-op: the result is discarded.
	Complete(ctx context.Context, jobID uuid.UUID, completionText string) error

	// Fail marks the job failed, retaining the reason for diagnostics.
	Fail(ctx context.Context, jobID uuid.UUID, reason string) error

	// RequeueStale returns active jobs older than the cutoff to waiting.
	// Re-running a job is safe: processing is idempotent up to commit.
	RequeueStale(ctx context.Context, olderThan time.Duration) (int, error)
}
