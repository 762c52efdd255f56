package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"
)

// RunnerConfig holds configuration for the Runner.
type RunnerConfig struct {
	// WorkerCount is the number of concurrent workers. Values below 1 mean 1.
	WorkerCount int

	// QueueSize is the buffer size of the job queue.
	QueueSize int

	// JobTimeout bounds a single job's execution. Zero means no limit.
	JobTimeout time.Duration
}

// DefaultRunnerConfig returns a RunnerConfig with reasonable defaults.
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		WorkerCount: 2,
		QueueSize:   256,
		JobTimeout:  30 * time.Second,
	}
}

// Runner executes submitted jobs on a pool of workers. Failures and panics
// are reported to the error handler and never stop a worker.
type Runner struct {
	queue      *Queue
	config     RunnerConfig
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	startOnce  sync.Once
	stopOnce   sync.Once
	logger     *slog.Logger
	errHandler func(job Job, err error)
}

var _ Submitter = (*Runner)(nil)

// NewRunner creates a Runner. Call Start before submitting jobs.
func NewRunner(config RunnerConfig, logger *slog.Logger) *Runner {
	if config.WorkerCount <= 0 {
		logger.Warn("invalid worker count specified, using default",
			"specified_count", config.WorkerCount,
			"default_count", 1)
		config.WorkerCount = 1
	}
	logger = logger.With("component", "job_runner")

	ctx, cancel := context.WithCancel(context.Background())
	r := &Runner{
		queue:  NewQueue(config.QueueSize, logger),
		config: config,
		ctx:    ctx,
		cancel: cancel,
		logger: logger,
	}
	r.errHandler = func(job Job, err error) {
		logger.Error("job execution failed",
			"job_id", job.ID(),
			"job_type", job.Type(),
			"error", err)
	}
	return r
}

// SetErrorHandler replaces the default log-only error handler.
// It must be called before Start.
func (r *Runner) SetErrorHandler(handler func(job Job, err error)) {
	r.errHandler = handler
}

// Submit implements Submitter.
func (r *Runner) Submit(job Job) error {
	return r.queue.Enqueue(job)
}

// Start launches the workers. Calling it more than once has no effect.
func (r *Runner) Start() {
	r.startOnce.Do(func() {
		for i := 0; i < r.config.WorkerCount; i++ {
			r.wg.Add(1)
			go r.worker(i)
		}
		r.logger.Info("job runner started", "worker_count", r.config.WorkerCount)
	})
}

// Stop closes the queue and waits for workers to drain the jobs already
// queued. If ctx expires first, running jobs are cancelled and Stop returns
// ctx's error once workers exit.
func (r *Runner) Stop(ctx context.Context) error {
	var err error
	r.stopOnce.Do(func() {
		r.queue.Close()

		done := make(chan struct{})
		go func() {
			r.wg.Wait()
			close(done)
		}()

		select {
		case <-done:
		case <-ctx.Done():
			r.cancel()
			<-done
			err = ctx.Err()
		}
		r.cancel()
		r.logger.Info("job runner stopped")
	})
	return err
}

func (r *Runner) worker(id int) {
	defer r.wg.Done()
	r.logger.Debug("starting worker", "worker_id", id)

	for job := range r.queue.Channel() {
		if r.ctx.Err() != nil {
			r.logger.Debug("dropping job after cancellation", "job_id", job.ID(), "job_type", job.Type())
			continue
		}
		r.process(job, id)
	}
	r.logger.Debug("job channel closed, stopping worker", "worker_id", id)
}

func (r *Runner) process(job Job, workerID int) {
	ctx := r.ctx
	if r.config.JobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.config.JobTimeout)
		defer cancel()
	}

	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("job panicked",
				"job_id", job.ID(),
				"job_type", job.Type(),
				"worker_id", workerID,
				"panic", p,
				"stack", string(debug.Stack()))
			r.errHandler(job, fmt.Errorf("job panicked: %v", p))
		}
	}()

	if err := job.Execute(ctx); err != nil {
		r.errHandler(job, err)
	}
}
