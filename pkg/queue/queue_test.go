package queue

import (
	"context"
	"errors"
	"os"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	os.Setenv("GO_ENV", "test")
}

type countingJob struct {
	id      string
	counter *atomic.Int64
	fail    bool
}

func (j *countingJob) ID() string { return j.id }

func (j *countingJob) Execute(ctx context.Context) error {
	j.counter.Add(1)
	if j.fail {
		return errors.New("job failed")
	}
	return nil
}

func TestWorkerPool_ProcessesAllJobs(t *testing.T) {
	pool := NewWorkerPool(context.Background(), 4, 100)
	pool.Start()

	var counter atomic.Int64
	for i := 0; i < 50; i++ {
		require.NoError(t, pool.Submit(&countingJob{id: "job", counter: &counter}))
	}

	pool.Wait()

	assert.Equal(t, int64(50), counter.Load())
	stats := pool.Stats()
	assert.Equal(t, int64(50), stats.JobsQueued)
	assert.Equal(t, int64(50), stats.JobsProcessed)
	assert.Equal(t, int64(0), stats.JobsFailed)
}

func TestWorkerPool_CountsFailures(t *testing.T) {
	pool := NewWorkerPool(context.Background(), 2, 10)
	pool.Start()

	var counter atomic.Int64
	require.NoError(t, pool.Submit(&countingJob{id: "ok", counter: &counter}))
	require.NoError(t, pool.Submit(&countingJob{id: "bad", counter: &counter, fail: true}))

	pool.Wait()

	stats := pool.Stats()
	assert.Equal(t, int64(2), stats.JobsProcessed)
	assert.Equal(t, int64(1), stats.JobsFailed)
}

func TestWorkerPool_SubmitAfterWait(t *testing.T) {
	pool := NewWorkerPool(context.Background(), 1, 10)
	pool.Start()
	pool.Wait()

	var counter atomic.Int64
	err := pool.Submit(&countingJob{id: "late", counter: &counter})
	assert.Error(t, err)
}

func TestWorkerPool_SubmitFullQueue(t *testing.T) {
	// Pool never started: jobs stay queued, the buffer fills.
	pool := NewWorkerPool(context.Background(), 1, 1)

	var counter atomic.Int64
	require.NoError(t, pool.Submit(&countingJob{id: "first", counter: &counter}))

	err := pool.Submit(&countingJob{id: "second", counter: &counter})
	assert.Error(t, err)
}

func TestWorkerPool_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pool := NewWorkerPool(ctx, 2, 10)
	pool.Start()

	var counter atomic.Int64
	err := pool.Submit(&countingJob{id: "job", counter: &counter})
	assert.Error(t, err, "submit refuses work once the context is gone")

	// Wait returns even though nothing ran.
	pool.Wait()
	assert.Equal(t, int64(0), counter.Load())
}

func TestWorkerPool_Cancel(t *testing.T) {
	pool := NewWorkerPool(context.Background(), 2, 10)
	pool.Start()
	pool.Cancel()

	var counter atomic.Int64
	err := pool.Submit(&countingJob{id: "late", counter: &counter})
	assert.Error(t, err)
}
