// Package engine defines a minimal workflow-engine abstraction so a runbook
// run can be driven either in-process (engine/inmem) or as a durable
// Temporal workflow (engine/temporal) without the caller changing. It is
// deliberately narrower than a general-purpose workflow SDK: wct has exactly
// one workflow shape (run a runbook to completion via one activity), so the
// interface only needs to express that.
package engine

import "context"

type (
	// Engine registers workflow/activity handlers and starts workflow
	// executions against a durable (or in-memory) backend.
	Engine interface {
		// RegisterWorkflow registers a workflow definition. Must be called
		// before StartWorkflow references it.
		RegisterWorkflow(ctx context.Context, def WorkflowDefinition) error

		// RegisterActivity registers an activity definition. Must be called
		// before any workflow's ExecuteActivity references it.
		RegisterActivity(ctx context.Context, def ActivityDefinition) error

		// StartWorkflow launches a workflow execution and returns a handle
		// for waiting on its result.
		StartWorkflow(ctx context.Context, req WorkflowStartRequest) (WorkflowHandle, error)
	}

	// WorkflowDefinition binds a workflow handler to a logical name and
	// default task queue (Temporal-only; ignored by the in-memory engine).
	WorkflowDefinition struct {
		Name      string
		TaskQueue string
		Handler   WorkflowFunc
	}

	// WorkflowFunc is a workflow entry point. ctx exposes ExecuteActivity so
	// the handler can delegate side-effecting work to a registered activity,
	// the one operation Temporal requires to go through its own scheduling
	// instead of running inline in the workflow goroutine.
	WorkflowFunc func(ctx WorkflowContext, input any) (any, error)

	// WorkflowContext is the engine-agnostic handle a WorkflowFunc receives.
	WorkflowContext interface {
		// Context returns a Go context usable for cancellation. Under
		// Temporal this is the replay-aware workflow context wrapped as a
		// plain context.Context; it must not be used for direct I/O from
		// within the workflow function itself, only passed to
		// ExecuteActivity or onward to the started goroutine in the
		// in-memory engine.
		Context() context.Context

		// WorkflowID returns the identifier the workflow was started with.
		WorkflowID() string

		// ExecuteActivity schedules the named activity and blocks until it
		// completes, decoding its result into result (a pointer).
		ExecuteActivity(ctx context.Context, req ActivityRequest, result any) error
	}

	// ActivityDefinition registers an activity handler under a logical name.
	ActivityDefinition struct {
		Name    string
		Handler ActivityFunc
	}

	// ActivityFunc performs the side-effecting work a workflow delegates to
	// it (here: driving a DAGExecutor run to completion).
	ActivityFunc func(ctx context.Context, input any) (any, error)

	// ActivityRequest names the activity to invoke and its input payload.
	ActivityRequest struct {
		Name  string
		Input any
	}

	// WorkflowStartRequest describes how to launch a workflow execution.
	WorkflowStartRequest struct {
		// ID must be unique within the engine/namespace; reusing a run's ID
		// is how resuming a checkpointed run is expressed at this layer.
		ID        string
		Workflow  string
		TaskQueue string
		Input     any
	}

	// WorkflowHandle lets the starter wait for a workflow's result.
	WorkflowHandle interface {
		// Wait blocks until the workflow completes, decoding its result
		// into result (a pointer).
		Wait(ctx context.Context, result any) error
	}
)
