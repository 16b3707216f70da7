package engine

import (
	"sort"

	"github.com/prismon/mcp-file-rules/internal/models"
)

// SortRules returns the rules in evaluation order: priority ascending
// (lower runs earlier), then creation time ascending, then original
// position. The comparator plus stable sort yields a strict total order
// even with duplicate priorities or timestamps, and makes the sort
// idempotent.
//
// This is the only place rule ordering lives; callers that need a
// consistently ordered list (persistence queries, UIs) go through here.
// The input slice is never mutated; evaluation works on a frozen copy.
func SortRules(rules []*models.Rule) []*models.Rule {
	ordered := make([]*models.Rule, len(rules))
	copy(ordered, rules)

	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if a.Priority != b.Priority {
			return a.Priority < b.Priority
		}
		return a.CreatedAt < b.CreatedAt
	})

	return ordered
}
