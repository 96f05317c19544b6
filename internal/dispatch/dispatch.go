// Package dispatch runs sync operations as fire-and-forget background jobs.
// Callers enqueue a job and get its id back immediately; completion or
// failure is only logged, never awaited.
package dispatch

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrNotRunning is returned when submitting to a stopped dispatcher.
	ErrNotRunning = errors.New("dispatcher is not running")

	// ErrQueueFull is returned when the job queue is saturated.
	ErrQueueFull = errors.New("job queue is full")
)

// Job is a unit of background work.
type Job struct {
	ID   uuid.UUID
	Name string
	Run  func(ctx context.Context) error
}

// Config holds dispatcher configuration.
type Config struct {
	Workers    int
	QueueSize  int
	JobTimeout time.Duration
}

// DefaultConfig returns a configuration suitable for the sync daemon.
func DefaultConfig() Config {
	return Config{
		Workers:    4,
		QueueSize:  64,
		JobTimeout: 90 * time.Second,
	}
}

// Dispatcher is a bounded-queue worker pool.
type Dispatcher struct {
	config Config
	logger *zap.Logger

	jobs      chan Job
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// New creates a dispatcher. Start must be called before jobs can be
// submitted.
func New(config Config, logger *zap.Logger) *Dispatcher {
	if config.Workers < 1 {
		config.Workers = 1
	}
	if config.QueueSize < 1 {
		config.QueueSize = 1
	}
	return &Dispatcher{
		config: config,
		logger: logger,
		jobs:   make(chan Job, config.QueueSize),
	}
}

// Start launches the worker goroutines.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.isRunning {
		return
	}
	d.isRunning = true

	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	for i := 0; i < d.config.Workers; i++ {
		d.wg.Add(1)
		go d.worker(ctx)
	}
	d.logger.Info("dispatcher started",
		zap.Int("workers", d.config.Workers),
		zap.Int("queue_size", d.config.QueueSize))
}

// Stop cancels running jobs and waits for the workers to exit. Queued jobs
// that have not started are dropped; fire-and-forget semantics make that
// acceptable.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if !d.isRunning {
		d.mu.Unlock()
		return
	}
	d.isRunning = false
	d.mu.Unlock()

	d.cancel()
	d.wg.Wait()
	d.logger.Info("dispatcher stopped")
}

// Submit enqueues a job and returns its id without waiting for execution.
func (d *Dispatcher) Submit(name string, run func(ctx context.Context) error) (uuid.UUID, error) {
	d.mu.Lock()
	running := d.isRunning
	d.mu.Unlock()
	if !running {
		return uuid.Nil, ErrNotRunning
	}

	job := Job{ID: uuid.New(), Name: name, Run: run}
	select {
	case d.jobs <- job:
		return job.ID, nil
	default:
		return uuid.Nil, ErrQueueFull
	}
}

func (d *Dispatcher) worker(ctx context.Context) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-d.jobs:
			d.execute(ctx, job)
		}
	}
}

func (d *Dispatcher) execute(ctx context.Context, job Job) {
	jobCtx := ctx
	if d.config.JobTimeout > 0 {
		var cancel context.CancelFunc
		jobCtx, cancel = context.WithTimeout(ctx, d.config.JobTimeout)
		defer cancel()
	}

	started := time.Now()
	if err := job.Run(jobCtx); err != nil {
		d.logger.Error("job failed",
			zap.String("job_id", job.ID.String()),
			zap.String("job", job.Name),
			zap.Duration("elapsed", time.Since(started)),
			zap.Error(err))
		return
	}
	d.logger.Debug("job finished",
		zap.String("job_id", job.ID.String()),
		zap.String("job", job.Name),
		zap.Duration("elapsed", time.Since(started)))
}
