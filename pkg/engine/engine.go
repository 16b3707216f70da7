// Package engine is the decision core of mcp-file-rules: it matches file
// snapshots against an ordered rule set and drives bounded chained
// re-evaluation after actions are applied.
//
// Evaluation is pure and side-effect-free. The engine never performs
// I/O; action application is injected by the caller.
package engine

import (
	"time"

	"github.com/prismon/mcp-file-rules/pkg/logger"
	"github.com/sirupsen/logrus"
)

var log *logrus.Entry

func init() {
	log = logger.WithName("engine")
}

// Evaluator matches files against rules. It is safe for concurrent use:
// it holds no mutable state and never mutates its inputs.
type Evaluator struct {
	now func() time.Time
}

// NewEvaluator creates an evaluator that uses wall-clock time for date
// conditions.
func NewEvaluator() *Evaluator {
	return &Evaluator{now: time.Now}
}

// NewEvaluatorAt creates an evaluator with a fixed clock. Batch runs use
// this to give every file in a batch the same reference time; tests use
// it for determinism.
func NewEvaluatorAt(now func() time.Time) *Evaluator {
	if now == nil {
		now = time.Now
	}
	return &Evaluator{now: now}
}
