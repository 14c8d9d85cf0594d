package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// DefaultQueueSize bounds how many uploads may wait for reindexing.
const DefaultQueueSize = 16

// Job is one pending reindex request.
type Job struct {
	Path     string // Stored file on disk
	Filename string // Original upload name
}

// Reindexer runs reindex jobs on a single background goroutine, so at
// most one reindex mutates the index at a time and concurrent uploads
// are queued rather than interleaved. Enqueue never blocks the caller.
type Reindexer struct {
	pipeline *Pipeline
	publish  func()
	logger   *slog.Logger
	jobs     chan Job

	mu      sync.Mutex
	started bool
	done    chan struct{}
}

// NewReindexer creates a Reindexer. publish is called after each
// successful reindex, once the index is persisted; it may be nil.
func NewReindexer(pipeline *Pipeline, publish func(), logger *slog.Logger, queueSize int) *Reindexer {
	if logger == nil {
		logger = slog.Default()
	}
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Reindexer{
		pipeline: pipeline,
		publish:  publish,
		logger:   logger,
		jobs:     make(chan Job, queueSize),
	}
}

// Start launches the worker goroutine. It returns immediately; the
// worker runs until ctx is cancelled. Starting twice is a no-op.
func (r *Reindexer) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return
	}
	r.started = true
	r.done = make(chan struct{})

	go func() {
		defer close(r.done)
		for {
			select {
			case <-ctx.Done():
				return
			case job := <-r.jobs:
				r.process(ctx, job)
			}
		}
	}()
}

// Enqueue schedules a reindex job. It returns an error instead of
// blocking when the queue is full.
func (r *Reindexer) Enqueue(job Job) error {
	select {
	case r.jobs <- job:
		return nil
	default:
		return fmt.Errorf("reindex queue full, try again later")
	}
}

// Wait blocks until the worker goroutine has exited after its context
// was cancelled. Used during shutdown and in tests.
func (r *Reindexer) Wait() {
	r.mu.Lock()
	done := r.done
	r.mu.Unlock()
	if done != nil {
		<-done
	}
}

// process runs one job to completion. Errors are logged, never
// surfaced to the uploader; a failed job leaves the previously
// published state serving queries.
func (r *Reindexer) process(ctx context.Context, job Job) {
	r.logger.Info("reindex started", "file", job.Filename)
	if err := r.pipeline.ReindexOne(ctx, job.Path, job.Filename); err != nil {
		r.logger.Error("reindex failed", "file", job.Filename, "error", err)
		return
	}
	if r.publish != nil {
		r.publish()
	}
	r.logger.Info("reindex published", "file", job.Filename)
}
