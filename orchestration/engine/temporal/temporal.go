// Package temporal implements engine.Engine on top of the Temporal Go SDK,
// giving runbook runs durable, replay-safe execution: a run started against
// this engine survives worker restarts and resumes from Temporal's own
// event history rather than wct's checkpointed ExecutionState alone.
package temporal

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"github.com/waivern/wct/orchestration/engine"
)

// Options configures the Temporal engine adapter. Either Client or
// ClientOptions must be set.
type Options struct {
	// Client is a pre-configured Temporal client. Takes precedence over
	// ClientOptions.
	Client client.Client
	// ClientOptions constructs a client lazily when Client is nil.
	ClientOptions client.Options
	// TaskQueue is the default queue workflows and activities register on.
	TaskQueue string
}

// Engine implements engine.Engine using Temporal as the durable backend. One
// worker is run per Engine instance, polling TaskQueue.
type Engine struct {
	client      client.Client
	closeClient bool
	taskQueue   string
	worker      worker.Worker

	mu      sync.Mutex
	started bool
}

// New constructs a Temporal engine adapter and its worker, but does not
// start polling until the first StartWorkflow call.
func New(opts Options) (*Engine, error) {
	if opts.TaskQueue == "" {
		return nil, errors.New("temporal engine: task queue is required")
	}
	cli := opts.Client
	closeClient := false
	if cli == nil {
		var err error
		cli, err = client.Dial(opts.ClientOptions)
		if err != nil {
			return nil, fmt.Errorf("temporal engine: dial client: %w", err)
		}
		closeClient = true
	}
	w := worker.New(cli, opts.TaskQueue, worker.Options{})
	return &Engine{client: cli, closeClient: closeClient, taskQueue: opts.TaskQueue, worker: w}, nil
}

func (e *Engine) RegisterWorkflow(_ context.Context, def engine.WorkflowDefinition) error {
	if def.Name == "" || def.Handler == nil {
		return errors.New("temporal engine: invalid workflow definition")
	}
	e.worker.RegisterWorkflowWithOptions(func(tctx workflow.Context, input any) (any, error) {
		return def.Handler(&workflowContext{tctx: tctx, engine: e}, input)
	}, workflow.RegisterOptions{Name: def.Name})
	return nil
}

func (e *Engine) RegisterActivity(_ context.Context, def engine.ActivityDefinition) error {
	if def.Name == "" || def.Handler == nil {
		return errors.New("temporal engine: invalid activity definition")
	}
	e.worker.RegisterActivityWithOptions(func(actx context.Context, input any) (any, error) {
		return def.Handler(actx, input)
	}, activity.RegisterOptions{Name: def.Name})
	return nil
}

func (e *Engine) StartWorkflow(ctx context.Context, req engine.WorkflowStartRequest) (engine.WorkflowHandle, error) {
	if req.Workflow == "" {
		return nil, errors.New("temporal engine: workflow name is required")
	}
	e.ensureStarted()

	queue := req.TaskQueue
	if queue == "" {
		queue = e.taskQueue
	}
	run, err := e.client.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        req.ID,
		TaskQueue: queue,
	}, req.Workflow, req.Input)
	if err != nil {
		return nil, fmt.Errorf("temporal engine: start workflow %q: %w", req.Workflow, err)
	}
	return &workflowHandle{run: run}, nil
}

// Close stops the worker and, if this Engine created the client itself,
// closes it.
func (e *Engine) Close() {
	e.mu.Lock()
	started := e.started
	e.mu.Unlock()
	if started {
		e.worker.Stop()
	}
	if e.closeClient {
		e.client.Close()
	}
}

func (e *Engine) ensureStarted() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started {
		return
	}
	e.started = true
	go func() {
		_ = e.worker.Run(worker.InterruptCh())
	}()
}

type workflowContext struct {
	tctx   workflow.Context
	engine *Engine
}

func (w *workflowContext) Context() context.Context { return context.Background() }
func (w *workflowContext) WorkflowID() string {
	return workflow.GetInfo(w.tctx).WorkflowExecution.ID
}

func (w *workflowContext) ExecuteActivity(_ context.Context, req engine.ActivityRequest, result any) error {
	future := workflow.ExecuteActivity(w.tctx, req.Name, req.Input)
	return future.Get(w.tctx, result)
}

type workflowHandle struct {
	run client.WorkflowRun
}

func (h *workflowHandle) Wait(ctx context.Context, result any) error {
	return h.run.Get(ctx, result)
}
