package engine

import (
	"sort"
	"time"

	"github.com/prismon/mcp-file-rules/internal/models"
)

// EvaluateAll combines a condition list under a logical operator.
// And short-circuits on the first false, Or on the first true. Single is
// And over one element and is never special-cased. An empty list
// evaluates to false; RuleMatcher guards against it upstream.
func (e *Evaluator) EvaluateAll(conds []*models.Condition, op models.LogicalOperator, file *models.FileDescriptor) bool {
	return e.evaluateAll(conds, op, file, e.now())
}

func (e *Evaluator) evaluateAll(conds []*models.Condition, op models.LogicalOperator, file *models.FileDescriptor, at time.Time) bool {
	if len(conds) == 0 {
		return false
	}

	// Evaluate cheap conditions first. Ordering only changes the amount
	// of work, never the result; ties keep declaration order.
	ordered := byEstimatedCost(conds)

	switch op {
	case models.OperatorOr:
		for _, c := range ordered {
			if e.evaluateCondition(c, file, at) {
				return true
			}
		}
		return false

	case models.OperatorSingle, models.OperatorAnd, "":
		for _, c := range ordered {
			if !e.evaluateCondition(c, file, at) {
				return false
			}
		}
		return true

	default:
		log.WithField("operator", op).Trace("Unknown logical operator, evaluating to false")
		return false
	}
}

// byEstimatedCost returns the conditions stably sorted by ascending
// estimated evaluation cost. The input slice is left untouched.
func byEstimatedCost(conds []*models.Condition) []*models.Condition {
	ordered := make([]*models.Condition, len(conds))
	copy(ordered, conds)
	sort.SliceStable(ordered, func(i, j int) bool {
		return conditionCost(ordered[i]) < conditionCost(ordered[j])
	})
	return ordered
}

// conditionCost ranks conditions by how much work they take. Exact
// numbers don't matter, only the relative order: scalar comparisons
// before substring scans before composite trees.
func conditionCost(c *models.Condition) int {
	if c == nil {
		return 0
	}
	switch c.Type {
	case models.ConditionExtension, models.ConditionKind,
		models.ConditionSourceLocation, models.ConditionSizeLargerThan:
		return 1
	case models.ConditionDateOlderThan:
		return 2
	case models.ConditionNameContains, models.ConditionNameStartsWith,
		models.ConditionNameEndsWith:
		return 3
	case models.ConditionNot:
		return conditionCost(c.Inner)
	case models.ConditionGroup:
		cost := 4
		for _, sub := range c.Conditions {
			cost += conditionCost(sub)
		}
		return cost
	default:
		// Unknown types evaluate to a constant false, nothing cheaper.
		return 0
	}
}
