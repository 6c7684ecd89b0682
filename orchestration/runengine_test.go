package orchestration_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waivern/wct/orchestration"
	"github.com/waivern/wct/orchestration/engine/inmem"
	"github.com/waivern/wct/store"
)

func TestRunbookWorkflowDrivesExecutorToCompletion(t *testing.T) {
	ctx := context.Background()
	backend := store.NewMemoryStore()
	services := registryWith(t, map[string]any{
		"source:filesystem": &fakeConnector{name: "fs"},
	})
	executor := orchestration.NewDAGExecutor(services, backend, nil, nil, "", nil)

	eng := inmem.New()
	require.NoError(t, orchestration.RegisterRunbookWorkflow(ctx, eng, executor, "wct-runs"))

	rb := orchestration.Runbook{
		Name: "r", Description: "d", Config: orchestration.DefaultRunbookConfig(),
		Artifacts: map[string]orchestration.ArtifactDefinition{
			"scan": {Source: &orchestration.SourceConfig{Type: "filesystem"}},
		},
	}

	outcome, err := orchestration.StartRunbookRun(ctx, eng, "run-1", rb)
	require.NoError(t, err)
	require.Contains(t, outcome.Outcomes, "scan")
	assert.Equal(t, orchestration.OutcomeCompleted, outcome.Outcomes["scan"].Kind)
}
