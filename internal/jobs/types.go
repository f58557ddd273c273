// Package jobs defines the asynchronous work the app schedules: ledger
// synchronization runs triggered by webhooks or API calls.
package jobs

import (
	"context"
	"time"
)

// JobType represents the type of job to be executed.
type JobType string

const (
	// JobTypeSyncTransactions represents a ledger synchronization run
	// for one user.
	JobTypeSyncTransactions JobType = "sync_transactions"
)

// JobStatus represents the current status of a job.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusRetrying  JobStatus = "retrying"
)

// SyncJob represents one synchronization run for a user's linked item.
type SyncJob struct {
	// JobID is the unique identifier for this job.
	JobID string `json:"job_id"`

	// UserID is the user whose ledger should be synchronized.
	UserID string `json:"user_id"`

	// ItemID is the aggregator item that triggered the run, when the
	// trigger was a webhook.
	ItemID string `json:"item_id,omitempty"`

	// Trigger records what scheduled the run, e.g. the webhook code or
	// "manual".
	Trigger string `json:"trigger,omitempty"`

	Status      JobStatus  `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Error contains error details if the job failed.
	Error string `json:"error,omitempty"`

	RetryCount int `json:"retry_count"`
	MaxRetries int `json:"max_retries"`
}

// Job is a generic interface for all job types.
type Job interface {
	GetID() string
	GetType() JobType
	GetStatus() JobStatus
}

// GetID implements the Job interface.
func (j *SyncJob) GetID() string { return j.JobID }

// GetType implements the Job interface.
func (j *SyncJob) GetType() JobType { return JobTypeSyncTransactions }

// GetStatus implements the Job interface.
func (j *SyncJob) GetStatus() JobStatus { return j.Status }

// Publisher defines the interface for publishing jobs to a queue.
// The abstraction allows swapping the in-memory queue for a hosted one
// without touching the handlers.
type Publisher interface {
	// PublishSync publishes a ledger synchronization job.
	PublishSync(ctx context.Context, job *SyncJob) error

	// Close closes the publisher and releases resources.
	Close() error
}

// Consumer defines the interface for consuming jobs from a queue.
type Consumer interface {
	// Start begins consuming jobs. The handler is called for each job.
	Start(ctx context.Context, handler JobHandler) error

	// Stop stops consuming and waits for in-flight jobs to complete.
	Stop(ctx context.Context) error
}

// JobHandler processes one job. A returned error marks the job failed
// (and retried while the budget lasts).
type JobHandler func(ctx context.Context, job Job) error

// JobStore tracks job state for the status API.
type JobStore interface {
	SaveJob(ctx context.Context, job *SyncJob) error
	GetJob(ctx context.Context, jobID string) (*SyncJob, error)
	ListJobs(ctx context.Context, filter JobFilter) ([]*SyncJob, error)
}

// JobFilter defines filtering criteria for listing jobs.
type JobFilter struct {
	UserID string
	Status JobStatus
	Limit  int
	Offset int
}
