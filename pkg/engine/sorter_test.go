package engine

import (
	"testing"

	"github.com/prismon/mcp-file-rules/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSortRules_Ordering(t *testing.T) {
	rules := []*models.Rule{
		{ID: 1, Name: "late", Priority: 20, CreatedAt: 100},
		{ID: 2, Name: "early", Priority: 10, CreatedAt: 300},
		{ID: 3, Name: "tie-newer", Priority: 10, CreatedAt: 400},
		{ID: 4, Name: "tie-older", Priority: 10, CreatedAt: 200},
	}

	sorted := SortRules(rules)

	require.Len(t, sorted, 4)
	assert.Equal(t, int64(4), sorted[0].ID, "priority first, then creation time")
	assert.Equal(t, int64(2), sorted[1].ID)
	assert.Equal(t, int64(3), sorted[2].ID)
	assert.Equal(t, int64(1), sorted[3].ID)
}

func TestSortRules_DuplicateKeysBreakTiesByPosition(t *testing.T) {
	rules := []*models.Rule{
		{ID: 10, Priority: 5, CreatedAt: 100},
		{ID: 11, Priority: 5, CreatedAt: 100},
		{ID: 12, Priority: 5, CreatedAt: 100},
	}

	sorted := SortRules(rules)

	// Identical priority and timestamp: original array position decides.
	assert.Equal(t, []int64{10, 11, 12}, []int64{sorted[0].ID, sorted[1].ID, sorted[2].ID})
}

func TestSortRules_Idempotent(t *testing.T) {
	rules := []*models.Rule{
		{ID: 1, Priority: 9, CreatedAt: 50},
		{ID: 2, Priority: 3, CreatedAt: 80},
		{ID: 3, Priority: 3, CreatedAt: 80},
		{ID: 4, Priority: 1, CreatedAt: 10},
	}

	once := SortRules(rules)
	twice := SortRules(once)

	assert.Equal(t, once, twice)
}

func TestSortRules_DoesNotMutateInput(t *testing.T) {
	rules := []*models.Rule{
		{ID: 1, Priority: 2},
		{ID: 2, Priority: 1},
	}

	SortRules(rules)

	assert.Equal(t, int64(1), rules[0].ID, "caller's slice keeps its order")
	assert.Equal(t, int64(2), rules[1].ID)
}
