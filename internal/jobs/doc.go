// Package jobs runs short-lived background work on a bounded in-memory queue
// served by a fixed pool of workers. Jobs are not persisted: a job that is
// dropped because the queue is full, or that fails, is logged and forgotten.
package jobs
