package engine

import (
	"time"

	"github.com/prismon/mcp-file-rules/internal/models"
)

// Evaluate scans the rule set in priority order and returns the first
// rule that matches the file, or nil when the file stays unclassified.
// First-match-wins: evaluation stops at the first success. The engine
// never substitutes a default action for an unmatched file.
//
// The rule list is re-sorted defensively; passing an already sorted list
// only saves the evaluator the (idempotent) sort.
func (e *Evaluator) Evaluate(file *models.FileDescriptor, rules []*models.Rule) *models.Rule {
	return e.evaluateAt(file, rules, e.now())
}

func (e *Evaluator) evaluateAt(file *models.FileDescriptor, rules []*models.Rule, at time.Time) *models.Rule {
	return e.firstMatch(file, SortRules(rules), at)
}

// firstMatch expects rules already in evaluation order.
func (e *Evaluator) firstMatch(file *models.FileDescriptor, sorted []*models.Rule, at time.Time) *models.Rule {
	for _, rule := range sorted {
		if e.matchesAt(rule, file, at) {
			return rule
		}
	}
	return nil
}
