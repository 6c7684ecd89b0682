package orchestration_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waivern/wct/orchestration"
	"github.com/waivern/wct/store"
)

func TestListRunsSortsMostRecentFirstAndFilters(t *testing.T) {
	backend := store.NewMemoryStore()
	ctx := context.Background()

	completed := orchestration.Fresh("run-a", []string{"x"})
	completed.MarkCompleted("x")
	require.NoError(t, completed.Save(ctx, backend))

	failed := orchestration.Fresh("run-b", []string{"x"})
	failed.MarkFailed("x")
	require.NoError(t, failed.Save(ctx, backend))

	all, err := orchestration.ListRuns(ctx, backend, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	failedOnly, err := orchestration.ListRuns(ctx, backend, "failed")
	require.NoError(t, err)
	require.Len(t, failedOnly, 1)
	assert.Equal(t, "run-b", failedOnly[0].RunID)
}

func TestListRunsPendingWhenArtifactsRemain(t *testing.T) {
	backend := store.NewMemoryStore()
	ctx := context.Background()

	state := orchestration.Fresh("run-a", []string{"x", "y"})
	state.MarkCompleted("x")
	require.NoError(t, state.Save(ctx, backend))

	runs, err := orchestration.ListRuns(ctx, backend, "")
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, orchestration.StatusPending, runs[0].Status)
}
