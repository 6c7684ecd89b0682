// Package inmem provides an in-memory engine.Engine for local runs and
// tests: workflows and activities execute as plain goroutines within the
// calling process, with no durability across restarts.
package inmem

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/waivern/wct/orchestration/engine"
)

type Engine struct {
	mu         sync.RWMutex
	workflows  map[string]engine.WorkflowDefinition
	activities map[string]engine.ActivityFunc
}

// New returns an in-memory engine.Engine.
func New() *Engine {
	return &Engine{
		workflows:  make(map[string]engine.WorkflowDefinition),
		activities: make(map[string]engine.ActivityFunc),
	}
}

func (e *Engine) RegisterWorkflow(_ context.Context, def engine.WorkflowDefinition) error {
	if def.Name == "" || def.Handler == nil {
		return errors.New("inmem engine: invalid workflow definition")
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, dup := e.workflows[def.Name]; dup {
		return fmt.Errorf("inmem engine: workflow %q already registered", def.Name)
	}
	e.workflows[def.Name] = def
	return nil
}

func (e *Engine) RegisterActivity(_ context.Context, def engine.ActivityDefinition) error {
	if def.Name == "" || def.Handler == nil {
		return errors.New("inmem engine: invalid activity definition")
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, dup := e.activities[def.Name]; dup {
		return fmt.Errorf("inmem engine: activity %q already registered", def.Name)
	}
	e.activities[def.Name] = def.Handler
	return nil
}

func (e *Engine) StartWorkflow(ctx context.Context, req engine.WorkflowStartRequest) (engine.WorkflowHandle, error) {
	e.mu.RLock()
	def, ok := e.workflows[req.Workflow]
	e.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("inmem engine: workflow %q is not registered", req.Workflow)
	}
	if req.ID == "" {
		return nil, errors.New("inmem engine: workflow id is required")
	}

	h := &handle{done: make(chan struct{})}
	wctx := &workflowContext{ctx: ctx, id: req.ID, engine: e}

	go func() {
		defer close(h.done)
		result, err := def.Handler(wctx, req.Input)
		h.result, h.err = result, err
	}()

	return h, nil
}

type handle struct {
	done   chan struct{}
	result any
	err    error
}

func (h *handle) Wait(ctx context.Context, result any) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-h.done:
		assignResult(result, h.result)
		return h.err
	}
}

type workflowContext struct {
	ctx    context.Context
	id     string
	engine *Engine
}

func (w *workflowContext) Context() context.Context { return w.ctx }
func (w *workflowContext) WorkflowID() string        { return w.id }

func (w *workflowContext) ExecuteActivity(ctx context.Context, req engine.ActivityRequest, result any) error {
	w.engine.mu.RLock()
	handler, ok := w.engine.activities[req.Name]
	w.engine.mu.RUnlock()
	if !ok {
		return fmt.Errorf("inmem engine: activity %q is not registered", req.Name)
	}
	out, err := handler(ctx, req.Input)
	if err != nil {
		return err
	}
	assignResult(result, out)
	return nil
}

// assignResult copies src into the value result points to, mirroring a
// single-process analogue of Temporal's payload-decode step. result is nil
// when the caller doesn't need the output, in which case this is a no-op.
func assignResult(result any, src any) {
	if result == nil || src == nil {
		return
	}
	dv := reflect.ValueOf(result)
	if dv.Kind() != reflect.Ptr || dv.IsNil() {
		return
	}
	sv := reflect.ValueOf(src)
	if sv.Type().AssignableTo(dv.Elem().Type()) {
		dv.Elem().Set(sv)
	}
}
