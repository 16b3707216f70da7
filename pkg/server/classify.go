package server

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prismon/mcp-file-rules/internal/models"
	"github.com/prismon/mcp-file-rules/pkg/actions"
	"github.com/prismon/mcp-file-rules/pkg/database"
	"github.com/prismon/mcp-file-rules/pkg/engine"
	"github.com/prismon/mcp-file-rules/pkg/scanner"
)

// OutcomeView is the wire shape of a chain outcome. The engine's error
// field does not marshal, so it is flattened to a string here.
type OutcomeView struct {
	MatchedRule       *models.Rule             `json:"matchedRule,omitempty"`
	FinalFile         *models.FileDescriptor   `json:"finalFile"`
	AppliedRuleIDs    []int64                  `json:"appliedRuleIds"`
	TerminationReason models.TerminationReason `json:"terminationReason"`
	Error             string                   `json:"error,omitempty"`
}

// ClassificationResult is the response body for classify operations.
type ClassificationResult struct {
	BatchID           string                     `json:"batchId"`
	Outcomes          []*OutcomeView             `json:"outcomes"`
	PlannedOperations []actions.PlannedOperation `json:"plannedOperations,omitempty"`
	DurationMs        int64                      `json:"durationMs"`
}

func newOutcomeView(out *models.MatchOutcome) *OutcomeView {
	view := &OutcomeView{
		MatchedRule:       out.MatchedRule,
		FinalFile:         out.FinalFile,
		AppliedRuleIDs:    out.AppliedRuleIDs,
		TerminationReason: out.TerminationReason,
	}
	if out.Err != nil {
		view.Error = out.Err.Error()
	}
	return view
}

// classifyPath runs one on-disk file through the enabled rules. With
// applyActions false it is decision-only: the chain stops after the
// first match and nothing is recorded as applied.
func classifyPath(ctx context.Context, db *database.RulesDB, path, sourceLocation string, applyActions bool) (*ClassificationResult, error) {
	file, err := scanner.Describe(path, sourceLocation)
	if err != nil {
		return nil, err
	}
	return classifyFile(ctx, db, file, applyActions)
}

func classifyFile(ctx context.Context, db *database.RulesDB, file *models.FileDescriptor, applyActions bool) (*ClassificationResult, error) {
	start := time.Now()

	rules, err := db.ListRules(true)
	if err != nil {
		return nil, fmt.Errorf("failed to load rules: %w", err)
	}

	eval := engine.NewEvaluator()

	var planner *actions.Planner
	var apply engine.ApplyActionFunc
	if applyActions {
		planner = actions.NewPlanner()
		apply = planner.Apply
	}

	outcome := eval.ChainEvaluate(ctx, file, rules, apply)
	durationMs := time.Since(start).Milliseconds()

	batchID := uuid.NewString()
	if err := db.RecordDecision(batchID, outcome, durationMs); err != nil {
		return nil, fmt.Errorf("failed to record decision: %w", err)
	}

	result := &ClassificationResult{
		BatchID:    batchID,
		Outcomes:   []*OutcomeView{newOutcomeView(outcome)},
		DurationMs: durationMs,
	}
	if planner != nil {
		result.PlannedOperations = planner.Planned()
	}
	return result, nil
}

// classifyLocation runs every stored snapshot under a source location
// through the enabled rules as one batch.
func classifyLocation(ctx context.Context, db *database.RulesDB, sourceLocation string, applyActions bool) (*ClassificationResult, error) {
	files, err := db.ListFiles(sourceLocation)
	if err != nil {
		return nil, fmt.Errorf("failed to load file snapshots: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no file snapshots found for location %q; run a scan first", sourceLocation)
	}

	rules, err := db.ListRules(true)
	if err != nil {
		return nil, fmt.Errorf("failed to load rules: %w", err)
	}

	opts := engine.DefaultBatchOptions()
	var planner *actions.Planner
	if applyActions {
		planner = actions.NewPlanner()
		opts.Apply = planner.Apply
	}

	eval := engine.NewEvaluator()
	batch, err := eval.EvaluateBatch(ctx, files, rules, opts)
	if err != nil {
		return nil, err
	}

	result := &ClassificationResult{
		BatchID:    batch.BatchID,
		Outcomes:   make([]*OutcomeView, 0, len(batch.Outcomes)),
		DurationMs: batch.Duration.Milliseconds(),
	}

	for _, outcome := range batch.Outcomes {
		if err := db.RecordDecision(batch.BatchID, outcome, batch.Duration.Milliseconds()); err != nil {
			return nil, fmt.Errorf("failed to record decision: %w", err)
		}
		result.Outcomes = append(result.Outcomes, newOutcomeView(outcome))
	}
	if planner != nil {
		result.PlannedOperations = planner.Planned()
	}
	return result, nil
}
