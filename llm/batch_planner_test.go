package llm_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waivern/wct/llm"
)

func TestPlanCountBasedChunksBySize(t *testing.T) {
	planner := llm.NewBatchPlanner(100_000, 2)
	groups := []llm.PromptGroup{
		{ID: "1", Prompt: "p1"},
		{ID: "2", Prompt: "p2"},
		{ID: "3", Prompt: "p3"},
	}

	plan := planner.Plan(groups, llm.CountBased)

	require.Len(t, plan.Batches, 2)
	assert.Len(t, plan.Batches[0].Groups, 2)
	assert.Len(t, plan.Batches[1].Groups, 1)
	assert.Empty(t, plan.Skipped)
}

func TestPlanCountBasedEmptyGroups(t *testing.T) {
	planner := llm.NewBatchPlanner(100_000, 10)
	plan := planner.Plan(nil, llm.CountBased)
	assert.Empty(t, plan.Batches)
	assert.Empty(t, plan.Skipped)
}

func TestPlanExtendedContextSkipsMissingContent(t *testing.T) {
	planner := llm.NewBatchPlanner(100_000, 10)
	groups := []llm.PromptGroup{
		{ID: "1", Prompt: "p1", Content: ""},
		{ID: "2", Prompt: "p2", Content: "shared context"},
	}

	plan := planner.Plan(groups, llm.ExtendedContext)

	require.Len(t, plan.Skipped, 1)
	assert.Equal(t, llm.SkipMissingContent, plan.Skipped[0].Reason)
	require.Len(t, plan.Batches, 1)
}

func TestPlanExtendedContextSkipsOversizedGroup(t *testing.T) {
	planner := llm.NewBatchPlanner(10, 10)
	groups := []llm.PromptGroup{
		{ID: "1", Prompt: "p1", Content: strings.Repeat("x", 1000)},
	}

	plan := planner.Plan(groups, llm.ExtendedContext)

	require.Len(t, plan.Skipped, 1)
	assert.Equal(t, llm.SkipOversized, plan.Skipped[0].Reason)
	assert.Empty(t, plan.Batches)
}

func TestPlanExtendedContextBinPacksByToken(t *testing.T) {
	planner := llm.NewBatchPlanner(500, 10)
	groups := []llm.PromptGroup{
		{ID: "big", Prompt: "p1", Content: strings.Repeat("x", 1200)},
		{ID: "small", Prompt: "p2", Content: strings.Repeat("y", 880)},
	}

	plan := planner.Plan(groups, llm.ExtendedContext)

	require.Len(t, plan.Batches, 2)
	assert.Empty(t, plan.Skipped)
}

func TestEstimateTokensMonotonic(t *testing.T) {
	short := llm.EstimateTokens("abcd")
	long := llm.EstimateTokens(strings.Repeat("abcd", 100))
	assert.Greater(t, long, short)
	assert.Equal(t, 0, llm.EstimateTokens(""))
}
