package orchestration

import (
	"context"
	"fmt"

	"github.com/waivern/wct/orchestration/engine"
)

// RunbookWorkflowName and RunbookActivityName are the logical names the
// runbook workflow/activity pair registers under with an engine.Engine.
const (
	RunbookWorkflowName = "RunRunbook"
	RunbookActivityName = "ExecuteRunbook"
)

// RunbookWorkflowInput is the payload a RunRunbook workflow execution
// receives, and the input its backing activity is invoked with.
type RunbookWorkflowInput struct {
	RunID   string
	Runbook Runbook
}

// RegisterRunbookWorkflow registers the RunRunbook workflow and its
// ExecuteRunbook activity with eng, so StartWorkflow(RunbookWorkflowName,
// RunbookWorkflowInput{...}) drives executor.Run under whichever backend
// eng implements (in-process via engine/inmem, or durable via
// engine/temporal). The workflow itself does no work beyond delegating to
// the activity: DAGExecutor.Run already owns checkpointing and resumption
// against the artifact store, so the engine layer only needs to host it,
// not replicate its state machine.
func RegisterRunbookWorkflow(ctx context.Context, eng engine.Engine, executor *DAGExecutor, taskQueue string) error {
	if err := eng.RegisterActivity(ctx, engine.ActivityDefinition{
		Name: RunbookActivityName,
		Handler: func(actx context.Context, input any) (any, error) {
			in, err := asRunbookInput(input)
			if err != nil {
				return nil, err
			}
			return executor.Run(actx, in.RunID, in.Runbook)
		},
	}); err != nil {
		return fmt.Errorf("register %s activity: %w", RunbookActivityName, err)
	}

	if err := eng.RegisterWorkflow(ctx, engine.WorkflowDefinition{
		Name:      RunbookWorkflowName,
		TaskQueue: taskQueue,
		Handler: func(wctx engine.WorkflowContext, input any) (any, error) {
			in, err := asRunbookInput(input)
			if err != nil {
				return nil, err
			}
			var outcome *RunOutcome
			if err := wctx.ExecuteActivity(wctx.Context(), engine.ActivityRequest{
				Name:  RunbookActivityName,
				Input: in,
			}, &outcome); err != nil {
				return nil, err
			}
			return outcome, nil
		},
	}); err != nil {
		return fmt.Errorf("register %s workflow: %w", RunbookWorkflowName, err)
	}
	return nil
}

// StartRunbookRun starts a RunRunbook workflow execution for runID/runbook
// against eng and blocks for its result, giving callers an engine.Engine-backed
// alternative to calling DAGExecutor.Run directly.
func StartRunbookRun(ctx context.Context, eng engine.Engine, runID string, runbook Runbook) (*RunOutcome, error) {
	handle, err := eng.StartWorkflow(ctx, engine.WorkflowStartRequest{
		ID:       runID,
		Workflow: RunbookWorkflowName,
		Input:    RunbookWorkflowInput{RunID: runID, Runbook: runbook},
	})
	if err != nil {
		return nil, fmt.Errorf("start %s workflow: %w", RunbookWorkflowName, err)
	}
	var outcome *RunOutcome
	if err := handle.Wait(ctx, &outcome); err != nil {
		return nil, err
	}
	return outcome, nil
}

func asRunbookInput(input any) (RunbookWorkflowInput, error) {
	switch v := input.(type) {
	case RunbookWorkflowInput:
		return v, nil
	case *RunbookWorkflowInput:
		return *v, nil
	default:
		return RunbookWorkflowInput{}, fmt.Errorf("runbook workflow: unexpected input type %T", input)
	}
}
