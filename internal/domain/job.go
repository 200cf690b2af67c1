package domain

import (
	"context"
	"fmt"
	"time"
)

//go:generate mockgen -destination mocks/mock_job_enqueuer.go -package mocks github.com/Mailfleet/mailfleet/internal/domain JobEnqueuer
//go:generate mockgen -destination mocks/mock_joblog_repository.go -package mocks github.com/Mailfleet/mailfleet/internal/domain JobLogRepository

// JobType routes a job to its queue.
type JobType string

const (
	JobTypeHealth   JobType = "health"
	JobTypeTest     JobType = "test"
	JobTypeWarmup   JobType = "warmup"
	JobTypeRotation JobType = "rotation"
)

// JobTypes lists every queue in a stable order.
var JobTypes = []JobType{JobTypeHealth, JobTypeTest, JobTypeWarmup, JobTypeRotation}

func (t JobType) Validate() error {
	switch t {
	case JobTypeHealth, JobTypeTest, JobTypeWarmup, JobTypeRotation:
		return nil
	default:
		return NewValidationError(fmt.Sprintf("invalid job type: %s", string(t)))
	}
}

// JobPriority orders jobs within a queue; 1 runs first.
type JobPriority int

const (
	PriorityHigh   JobPriority = 1
	PriorityNormal JobPriority = 2
	PriorityLow    JobPriority = 3
)

// JobPayload is the small typed payload a job carries beyond its target
// domain. Only the fields relevant to the job type are set.
type JobPayload struct {
	// TestID points result-ingest test jobs at the provider test.
	TestID string `json:"test_id,omitempty"`
	// Pool targets sweep jobs at a pool instead of a single domain.
	Pool PoolType `json:"pool,omitempty"`
	// Reason explains why the job was enqueued.
	Reason string `json:"reason,omitempty"`
}

// Job is a unit of deferred work.
type Job struct {
	ID         string      `json:"id"`
	Type       JobType     `json:"type"`
	DomainID   string      `json:"domain_id,omitempty"`
	Priority   JobPriority `json:"priority"`
	Attempts   int         `json:"attempts"`
	RunAt      time.Time   `json:"run_at"`
	Payload    JobPayload  `json:"payload"`
	EnqueuedAt time.Time   `json:"enqueued_at"`
}

func (j *Job) Validate() error {
	if err := j.Type.Validate(); err != nil {
		return err
	}
	if j.DomainID == "" && j.Payload.Pool == "" {
		return NewValidationError("job: needs a domain id or a pool target")
	}
	if j.Priority < PriorityHigh || j.Priority > PriorityLow {
		return NewValidationError(fmt.Sprintf("job: priority %d out of range", j.Priority))
	}
	return nil
}

// JobEnqueuer is the narrow enqueue-side view of the job queue.
type JobEnqueuer interface {
	Enqueue(ctx context.Context, job *Job) error
}

// JobLogStatus is the outcome of one job attempt.
type JobLogStatus string

const (
	JobLogSuccess JobLogStatus = "success"
	JobLogFailed  JobLogStatus = "failed"
	JobLogRetry   JobLogStatus = "retry"
)

// JobLogEntry is the audit record of one attempt. Entries expire after
// thirty days.
type JobLogEntry struct {
	ID         string       `json:"id"`
	JobID      string       `json:"job_id"`
	Type       JobType      `json:"type"`
	DomainID   string       `json:"domain_id,omitempty"`
	Status     JobLogStatus `json:"status"`
	DurationMS int64        `json:"duration_ms"`
	Error      string       `json:"error,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
}

// JobLogTTL is how long job log entries are kept.
const JobLogTTL = 30 * 24 * time.Hour

type JobLogRepository interface {
	Append(ctx context.Context, entry *JobLogEntry) error
	ListByJob(ctx context.Context, jobID string) ([]*JobLogEntry, error)
	// PurgeOlderThan deletes entries created before the cutoff and
	// returns how many were removed.
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// QueueCounters is a point-in-time snapshot of one queue.
type QueueCounters struct {
	Waiting   int `json:"waiting"`
	Active    int `json:"active"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
	Deferred  int `json:"deferred"`
}

// QueueStats maps each queue to its counters.
type QueueStats map[JobType]QueueCounters
