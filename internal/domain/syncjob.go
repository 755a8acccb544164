package domain

import (
	"context"
	"time"
)

// SyncJobStatus is the monotonic job state: PENDING -> RUNNING ->
// SUCCEEDED | FAILED.
type SyncJobStatus string

const (
	SyncJobPending   SyncJobStatus = "PENDING"
	SyncJobRunning   SyncJobStatus = "RUNNING"
	SyncJobSucceeded SyncJobStatus = "SUCCEEDED"
	SyncJobFailed    SyncJobStatus = "FAILED"
)

// SyncJob is one asynchronous member-list import. Jobs are created by a
// trigger, mutated only by the processor, and kept for history.
// swagger:model SyncJob
type SyncJob struct {
	ID        string        `json:"id"`
	EventID   string        `json:"event_id"`
	Type      string        `json:"type"`
	Source    string        `json:"source"`
	Status    SyncJobStatus `json:"status"`
	Total     int           `json:"total"`
	Processed int           `json:"processed"`
	Errors    int           `json:"errors"`
	Skipped   int           `json:"skipped"`

	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// SyncJobRepository defines storage operations for sync jobs. Total is
// written before any progress increments so a concurrent status read
// never observes total < processed.
type SyncJobRepository interface {
	Create(ctx context.Context, job *SyncJob) error
	GetByID(ctx context.Context, id string) (*SyncJob, error)
	// MarkRunning claims the job for processing. claimed is false when
	// the job already left PENDING, which happens on queue re-delivery.
	MarkRunning(ctx context.Context, id string, startedAt time.Time) (claimed bool, err error)
	SetTotal(ctx context.Context, id string, total int) error
	UpdateProgress(ctx context.Context, id string, processed, errs, skipped int) error
	MarkFinished(ctx context.Context, id string, status SyncJobStatus, finishedAt time.Time) error
}

// MemberImportRecord is one externally sourced member row.
type MemberImportRecord struct {
	MembershipNumber string `json:"membership_number"`
	Name             string `json:"name"`
	Email            string `json:"email"`
	Mobile           string `json:"mobile"`
	Region           string `json:"region"`
	Forum            string `json:"forum"`
	Employer         string `json:"employer"`
}

// MemberImportSource fetches the record set a job's source locator points at.
type MemberImportSource interface {
	Fetch(ctx context.Context, source string) ([]*MemberImportRecord, error)
}

// SyncJobService triggers and processes member-list imports.
type SyncJobService interface {
	// Start subscribes the processor to the work queue; it returns once
	// the consumer is running.
	Start(ctx context.Context) error
	// Trigger creates the job and enqueues it; the job id is returned
	// immediately while processing happens in the background.
	Trigger(ctx context.Context, eventID, jobType, source string) (*SyncJob, error)
	GetByID(ctx context.Context, jobID string) (*SyncJob, error)
	// Process runs one job to a terminal state. Safe to call again for a
	// finished job: it returns ErrJobAlreadyProcessed without touching data.
	Process(ctx context.Context, jobID string) error
}
