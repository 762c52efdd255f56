package jobs

import (
	"context"

	"github.com/google/uuid"
)

// Job is a unit of background work.
type Job interface {
	// ID returns the job's unique identifier.
	ID() uuid.UUID

	// Type names the kind of work, for logging.
	Type() string

	// Execute runs the job.
	Execute(ctx context.Context) error
}

// Submitter accepts jobs for asynchronous execution.
type Submitter interface {
	// Submit enqueues job without blocking. It returns ErrQueueFull or
	// ErrQueueClosed when the job cannot be accepted.
	Submit(job Job) error
}

type funcJob struct {
	id      uuid.UUID
	jobType string
	fn      func(ctx context.Context) error
}

// NewFuncJob wraps fn as a Job with a fresh ID.
func NewFuncJob(jobType string, fn func(ctx context.Context) error) Job {
	return &funcJob{id: uuid.New(), jobType: jobType, fn: fn}
}

func (j *funcJob) ID() uuid.UUID                     { return j.id }
func (j *funcJob) Type() string                      { return j.jobType }
func (j *funcJob) Execute(ctx context.Context) error { return j.fn(ctx) }
