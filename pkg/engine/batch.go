package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prismon/mcp-file-rules/internal/models"
	"github.com/prismon/mcp-file-rules/pkg/queue"
	"github.com/sirupsen/logrus"
)

// BatchOptions configures a batch evaluation run.
type BatchOptions struct {
	WorkerCount int             // parallel workers (default 4)
	Apply       ApplyActionFunc // nil = pure matching, no chaining steps
}

// DefaultBatchOptions returns the defaults used by the CLI and server.
func DefaultBatchOptions() *BatchOptions {
	return &BatchOptions{WorkerCount: 4}
}

// BatchResult is the outcome of evaluating many files against one frozen
// rule snapshot.
type BatchResult struct {
	BatchID  string
	Outcomes []*models.MatchOutcome // index-aligned with the input files
	Duration time.Duration
}

// EvaluateBatch evaluates every file against one frozen snapshot of the
// rule list on a worker pool. Every file sees the same rule set and the
// same reference time; concurrent rule mutation by the caller is not
// observable mid-batch. Chains for different files run fully in
// parallel; each file's chain stays sequential.
//
// Cancellation stops scheduling new files; files already in flight
// finish their current chain step (the chain orchestrator observes the
// context between steps).
func (e *Evaluator) EvaluateBatch(ctx context.Context, files []*models.FileDescriptor, rules []*models.Rule, opts *BatchOptions) (*BatchResult, error) {
	start := time.Now()
	if opts == nil {
		opts = DefaultBatchOptions()
	}

	// Freeze the snapshot: sorted copy of the rule slice, one reference
	// time for the whole batch.
	sorted := SortRules(rules)
	at := e.now()
	frozen := NewEvaluatorAt(func() time.Time { return at })

	result := &BatchResult{
		BatchID:  uuid.NewString(),
		Outcomes: make([]*models.MatchOutcome, len(files)),
	}

	log.WithFields(logrus.Fields{
		"batchID":   result.BatchID,
		"fileCount": len(files),
		"ruleCount": len(sorted),
	}).Info("Starting batch evaluation")

	pool := queue.NewWorkerPool(ctx, opts.WorkerCount, len(files))
	pool.Start()

	for i, file := range files {
		if ctx.Err() != nil {
			break
		}
		job := &batchJob{
			eval:    frozen,
			file:    file,
			rules:   sorted,
			apply:   opts.Apply,
			outcome: &result.Outcomes[i],
		}
		if err := pool.Submit(job); err != nil {
			pool.Cancel()
			return nil, fmt.Errorf("failed to submit evaluation job: %w", err)
		}
	}

	pool.Wait()

	// Files that were never scheduled (cancellation) report no match.
	for i, out := range result.Outcomes {
		if out == nil {
			result.Outcomes[i] = &models.MatchOutcome{
				FinalFile:         files[i],
				AppliedRuleIDs:    []int64{},
				TerminationReason: models.TerminationNoMatch,
			}
		}
	}

	result.Duration = time.Since(start)
	log.WithFields(logrus.Fields{
		"batchID":  result.BatchID,
		"duration": result.Duration,
	}).Info("Batch evaluation complete")

	return result, ctx.Err()
}

// batchJob evaluates one file; distinct jobs write to distinct outcome
// slots, so no locking is needed.
type batchJob struct {
	eval    *Evaluator
	file    *models.FileDescriptor
	rules   []*models.Rule
	apply   ApplyActionFunc
	outcome **models.MatchOutcome
}

func (j *batchJob) ID() string {
	return j.file.Path
}

func (j *batchJob) Execute(ctx context.Context) error {
	*j.outcome = j.eval.ChainEvaluate(ctx, j.file, j.rules, j.apply)
	if (*j.outcome).Err != nil {
		return (*j.outcome).Err
	}
	return nil
}
