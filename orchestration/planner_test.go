package orchestration_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waivern/wct/orchestration"
	"github.com/waivern/wct/schema"
)

var (
	plannerSchemaA = schema.New("planner_test_a", "1.0.0", schema.NewStaticLoader(map[string]any{}))
	plannerSchemaB = schema.New("planner_test_b", "1.0.0", schema.NewStaticLoader(map[string]any{}))
)

// plannerRegistry registers a "source:filesystem" producing plannerSchemaA,
// a "process:findings" accepting plannerSchemaA and producing plannerSchemaB,
// and a "process:mismatched" accepting only plannerSchemaB (so feeding it
// plannerSchemaA is a schema mismatch).
func plannerRegistry() *orchestration.ComponentRegistry {
	reg := orchestration.NewComponentRegistry()
	reg.Register("source:filesystem", orchestration.Transient, &orchestration.Factory{
		OutputSchemas: []*schema.Schema{plannerSchemaA},
		Construct:     func(ctx context.Context) (any, error) { return nil, nil },
	})
	reg.Register("process:findings", orchestration.Transient, &orchestration.Factory{
		InputSchemas:  []*schema.Schema{plannerSchemaA},
		OutputSchemas: []*schema.Schema{plannerSchemaB},
		Construct:     func(ctx context.Context) (any, error) { return nil, nil },
	})
	reg.Register("process:mismatched", orchestration.Transient, &orchestration.Factory{
		InputSchemas: []*schema.Schema{plannerSchemaB},
		Construct:    func(ctx context.Context) (any, error) { return nil, nil },
	})
	return reg
}

func writeRunbook(t *testing.T, yaml string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "runbook.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))
	return path
}

func TestPlannerResolvesSchemasForValidRunbook(t *testing.T) {
	path := writeRunbook(t, `
name: r
description: d
artifacts:
  scan:
    source: {type: filesystem}
  find:
    inputs: scan
    process: {type: findings}
`)

	planner := orchestration.NewPlanner(orchestration.NewLoader(), plannerRegistry())
	plan, err := planner.Plan(path)
	require.NoError(t, err)

	assert.Equal(t, plannerSchemaA.Key(), plan.Schemas["scan"].Output.Key())
	require.Len(t, plan.Schemas["find"].Input, 1)
	assert.Equal(t, plannerSchemaA.Key(), plan.Schemas["find"].Input[0].Key())
	assert.Equal(t, plannerSchemaB.Key(), plan.Schemas["find"].Output.Key())
}

func TestPlannerRejectsMissingFile(t *testing.T) {
	planner := orchestration.NewPlanner(orchestration.NewLoader(), plannerRegistry())
	_, err := planner.Plan(filepath.Join(t.TempDir(), "nope.yaml"))

	var planningErr *orchestration.PlanningError
	require.True(t, errors.As(err, &planningErr))
}

func TestPlannerRejectsUnknownComponentType(t *testing.T) {
	path := writeRunbook(t, `
name: r
description: d
artifacts:
  scan:
    source: {type: nonexistent}
`)

	planner := orchestration.NewPlanner(orchestration.NewLoader(), plannerRegistry())
	_, err := planner.Plan(path)

	var planningErr *orchestration.PlanningError
	require.True(t, errors.As(err, &planningErr))
	assert.Equal(t, "scan", planningErr.ArtifactID)
}

func TestPlannerRejectsDanglingInput(t *testing.T) {
	path := writeRunbook(t, `
name: r
description: d
artifacts:
  find:
    inputs: missing
    process: {type: findings}
`)

	planner := orchestration.NewPlanner(orchestration.NewLoader(), plannerRegistry())
	_, err := planner.Plan(path)

	var planningErr *orchestration.PlanningError
	require.True(t, errors.As(err, &planningErr))
	assert.Equal(t, path, planningErr.RunbookPath)
}

func TestPlannerRejectsSchemaMismatch(t *testing.T) {
	path := writeRunbook(t, `
name: r
description: d
artifacts:
  scan:
    source: {type: filesystem}
  find:
    inputs: scan
    process: {type: mismatched}
`)

	planner := orchestration.NewPlanner(orchestration.NewLoader(), plannerRegistry())
	_, err := planner.Plan(path)

	var planningErr *orchestration.PlanningError
	require.True(t, errors.As(err, &planningErr))
	assert.Equal(t, "find", planningErr.ArtifactID)
}

func TestPlannerRejectsCycle(t *testing.T) {
	path := writeRunbook(t, `
name: r
description: d
artifacts:
  a:
    inputs: b
    process: {type: findings}
  b:
    inputs: a
    process: {type: findings}
`)

	planner := orchestration.NewPlanner(orchestration.NewLoader(), plannerRegistry())
	_, err := planner.Plan(path)

	var cycleErr *orchestration.CycleDetectedError
	require.True(t, errors.As(err, &cycleErr))
}
