// Package queue provides the worker pool used for batch rule evaluation
// and filesystem scanning.
package queue

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/prismon/mcp-file-rules/pkg/logger"
	"github.com/sirupsen/logrus"
)

var log *logrus.Entry

func init() {
	log = logger.WithName("queue")
}

// Job is a unit of work processed by the pool.
type Job interface {
	Execute(ctx context.Context) error
	ID() string
}

// WorkerPool runs jobs on a fixed set of workers. Jobs must be
// independent of each other; the pool gives no ordering guarantees.
type WorkerPool struct {
	workerCount int
	jobs        chan Job
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	jobsWg      sync.WaitGroup

	jobsQueued    atomic.Int64
	jobsProcessed atomic.Int64
	jobsFailed    atomic.Int64

	started   atomic.Bool
	closed    atomic.Bool
	cancelled atomic.Bool
}

// NewWorkerPool creates a pool with the given worker count and queue
// capacity.
func NewWorkerPool(ctx context.Context, workerCount, queueSize int) *WorkerPool {
	if workerCount < 1 {
		workerCount = 1
	}
	poolCtx, cancel := context.WithCancel(ctx)

	return &WorkerPool{
		workerCount: workerCount,
		jobs:        make(chan Job, queueSize),
		ctx:         poolCtx,
		cancel:      cancel,
	}
}

// Start launches the workers. Calling Start twice is a no-op.
func (wp *WorkerPool) Start() {
	if wp.started.Swap(true) {
		return
	}

	log.WithField("workerCount", wp.workerCount).Debug("Starting worker pool")

	for i := 0; i < wp.workerCount; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	workerLog := log.WithField("workerID", id)

	for {
		select {
		case job, ok := <-wp.jobs:
			if !ok {
				return
			}

			err := job.Execute(wp.ctx)
			wp.jobsProcessed.Add(1)
			if err != nil {
				wp.jobsFailed.Add(1)
				workerLog.WithFields(logrus.Fields{
					"jobID": job.ID(),
					"error": err,
				}).Error("Job failed")
			}
			wp.jobsWg.Done()

		case <-wp.ctx.Done():
			// Drain queued jobs without running them so Wait does not
			// hang on work that will never execute.
			for {
				select {
				case _, ok := <-wp.jobs:
					if !ok {
						return
					}
					wp.jobsWg.Done()
				default:
					return
				}
			}
		}
	}
}

// Submit queues a job. It never blocks: a full queue is an error so the
// caller can size the queue to its batch.
func (wp *WorkerPool) Submit(job Job) error {
	if wp.closed.Load() {
		return fmt.Errorf("worker pool is closed")
	}
	if wp.ctx.Err() != nil {
		return fmt.Errorf("worker pool is shutting down")
	}

	wp.jobsWg.Add(1)

	select {
	case wp.jobs <- job:
		wp.jobsQueued.Add(1)
		return nil
	case <-wp.ctx.Done():
		wp.jobsWg.Done()
		return fmt.Errorf("worker pool is shutting down")
	default:
		wp.jobsWg.Done()
		return fmt.Errorf("job queue is full")
	}
}

// Wait blocks until all submitted jobs finish, then shuts the pool down.
func (wp *WorkerPool) Wait() {
	wp.jobsWg.Wait()
	wp.closed.Store(true)
	close(wp.jobs)
	wp.wg.Wait()
}

// Cancel stops the pool without draining queued jobs. In-flight jobs
// observe the cancelled context and finish on their own terms.
func (wp *WorkerPool) Cancel() {
	if wp.cancelled.Swap(true) {
		return
	}
	wp.closed.Store(true)
	wp.cancel()
	wp.wg.Wait()
}

// Stats returns a snapshot of pool counters.
func (wp *WorkerPool) Stats() Stats {
	return Stats{
		WorkerCount:   wp.workerCount,
		JobsQueued:    wp.jobsQueued.Load(),
		JobsProcessed: wp.jobsProcessed.Load(),
		JobsFailed:    wp.jobsFailed.Load(),
	}
}

// Stats describes pool activity.
type Stats struct {
	WorkerCount   int
	JobsQueued    int64
	JobsProcessed int64
	JobsFailed    int64
}
