package engine

import (
	"time"

	"github.com/prismon/mcp-file-rules/internal/models"
)

// Matches reports whether a rule applies to a file: the rule is enabled,
// its inclusion conditions hold under its logical operator, and no
// exclusion condition vetoes it.
func (e *Evaluator) Matches(rule *models.Rule, file *models.FileDescriptor) bool {
	return e.matchesAt(rule, file, e.now())
}

func (e *Evaluator) matchesAt(rule *models.Rule, file *models.FileDescriptor, at time.Time) bool {
	if rule == nil || file == nil || !rule.Enabled {
		return false
	}

	// A rule with no primary conditions is structurally inert.
	if len(rule.Conditions) == 0 {
		return false
	}

	// Inclusion runs first so the common non-matching case skips the
	// exclusion work entirely. The veto still always wins: exclusions
	// are checked on every positive inclusion result.
	if !e.evaluateAll(rule.Conditions, rule.LogicalOperator, file, at) {
		return false
	}

	// Exclusions are an implicit OR: any single match vetoes the rule.
	for _, ex := range rule.ExclusionConditions {
		if e.evaluateCondition(ex, file, at) {
			return false
		}
	}

	return true
}
