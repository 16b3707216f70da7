package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/prismon/mcp-file-rules/internal/models"
	"github.com/sirupsen/logrus"
)

// ErrActionFailed wraps any error returned by the injected action
// application. Callers branch with errors.Is.
var ErrActionFailed = errors.New("action application failed")

// ApplyActionFunc applies a matched rule's action to a file and returns
// the updated snapshot. It is supplied by the file-operation executor;
// the orchestrator itself performs no I/O. The function must not mutate
// its input descriptor.
type ApplyActionFunc func(ctx context.Context, file *models.FileDescriptor, rule *models.Rule) (*models.FileDescriptor, error)

// ChainEvaluate runs the bounded chaining state machine: evaluate, apply
// the winning rule's action, and re-evaluate against the updated file
// state while the applied rule asks for chaining.
//
// Two independent safety nets guarantee termination: a visited-rule-id
// set (catches rules re-triggering each other) and the applied rule's
// numeric MaxChainDepth (catches long never-repeating chains).
//
// Cancellation is observed between steps only: an in-flight step
// finishes (so no action is left half-applied) and no new step starts.
func (e *Evaluator) ChainEvaluate(ctx context.Context, file *models.FileDescriptor, rules []*models.Rule, apply ApplyActionFunc) *models.MatchOutcome {
	at := e.now()
	sorted := SortRules(rules)

	outcome := &models.MatchOutcome{
		FinalFile:      file,
		AppliedRuleIDs: []int64{},
	}

	visited := make(map[int64]bool)
	cur := file

	for {
		match := e.firstMatch(cur, sorted, at)

		if match == nil {
			// Nothing (further) applies. The chain matched iff at least
			// one action was applied; otherwise the file is unclassified.
			if len(outcome.AppliedRuleIDs) == 0 {
				outcome.TerminationReason = models.TerminationNoMatch
			} else {
				outcome.TerminationReason = models.TerminationMatched
			}
			return outcome
		}

		if outcome.MatchedRule == nil {
			outcome.MatchedRule = match
		}

		if visited[match.ID] {
			log.WithFields(logrus.Fields{
				"rule": match.Name,
				"path": cur.Path,
			}).Debug("Chain revisited a rule, terminating")
			outcome.TerminationReason = models.TerminationCycleTerminated
			return outcome
		}

		if apply == nil {
			// Single-pass use: report the decision without acting on it.
			outcome.TerminationReason = models.TerminationMatched
			return outcome
		}

		updated, err := apply(ctx, cur, match)
		if err != nil {
			// Chain stops immediately with the last good file state.
			// Retry policy belongs to the action executor, not here.
			outcome.TerminationReason = models.TerminationActionFailed
			outcome.Err = fmt.Errorf("%w: rule %q: %v", ErrActionFailed, match.Name, err)
			return outcome
		}

		visited[match.ID] = true
		outcome.AppliedRuleIDs = append(outcome.AppliedRuleIDs, match.ID)
		if updated != nil {
			cur = updated
		}
		outcome.FinalFile = cur

		if !match.ChainingEnabled {
			outcome.TerminationReason = models.TerminationMatched
			return outcome
		}

		// The depth budget counts applied actions against the chaining
		// rule's limit. Exhausting it while the rule asked to keep
		// chaining is a distinct, observable outcome.
		if len(outcome.AppliedRuleIDs) >= match.MaxChainDepth {
			outcome.TerminationReason = models.TerminationDepthLimited
			return outcome
		}

		if ctx.Err() != nil {
			log.WithField("path", cur.Path).Debug("Chain cancelled between steps")
			outcome.TerminationReason = models.TerminationMatched
			return outcome
		}
	}
}
