package orchestration

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/waivern/wct/llm"
	"github.com/waivern/wct/logging"
	"github.com/waivern/wct/message"
	"github.com/waivern/wct/schema"
	"github.com/waivern/wct/store"
)

// artifactKey is the run-scoped key a completed artifact's Message is
// persisted under, per the filesystem backend's documented run layout
// (artifacts/{artifact_id}.json).
func artifactKey(id string) string {
	return "artifacts/" + id + ".json"
}

// DAGExecutor drives one Runbook run: it topologically schedules artifacts
// over a bounded worker pool, resolves each artifact's component from a
// ServiceContainer, and tracks outcomes in an ExecutionState that is
// checkpointed to the backing Store after every transition. It also
// recursively drives any child_runbook artifacts via Loader, within the
// parent runbook's config.max_child_depth.
type DAGExecutor struct {
	services  *ServiceContainer
	backend   store.Store
	schemas   *schema.Registry
	loader    *Loader
	baseDir   string
	logger    logging.Logger
	telemetry *Telemetry
}

// NewDAGExecutor constructs a DAGExecutor. services resolves artifact
// component types ("process.type" / "source.type") to Connector/Analyser/
// Classifier/Exporter instances; backend persists ExecutionState and
// artifact Messages for the run; schemas reconstructs a Message's Schema
// reference when reloading a previously completed artifact on resume;
// loader resolves child_runbook path references, rooted at baseDir (the
// directory of the top-level runbook file, used to resolve a child's
// relative path).
func NewDAGExecutor(services *ServiceContainer, backend store.Store, schemas *schema.Registry, loader *Loader, baseDir string, logger logging.Logger) *DAGExecutor {
	if logger == nil {
		logger = logging.NewNoop()
	}
	if schemas == nil {
		schemas = schema.Default
	}
	if loader == nil {
		loader = NewLoader()
	}
	return &DAGExecutor{services: services, backend: backend, schemas: schemas, loader: loader, baseDir: baseDir, logger: logger, telemetry: NewTelemetry(nil, nil)}
}

// WithTelemetry overrides e's tracer/meter with t, returning e for chaining.
// Useful when the caller has already configured TracerProvider/MeterProvider
// instances instead of relying on the process-wide otel globals.
func (e *DAGExecutor) WithTelemetry(t *Telemetry) *DAGExecutor {
	e.telemetry = t
	return e
}

// RunOutcome is everything Run learned about one execution: the final
// ExecutionState, the per-artifact outcomes and wall-clock durations for
// artifacts attempted this call, and the time the run began (for
// BuildExecutionResult).
type RunOutcome struct {
	State     *ExecutionState
	Outcomes  map[string]ArtifactOutcome
	Durations map[string]float64
	StartedAt time.Time
}

// Run executes runbook under runID, resuming from a previously persisted
// ExecutionState when one exists. It returns a *RunOutcome and an error
// only for conditions that abort the whole run (an invalid DAG or a storage
// failure); individual artifact failures are recorded in the returned
// outcome instead of being returned as err.
func (e *DAGExecutor) Run(ctx context.Context, runID string, runbook Runbook) (*RunOutcome, error) {
	return e.runInternal(ctx, runID, runbook, nil, 1)
}

// runInternal is Run's implementation, generalised to accept seeded: Messages
// bound to the runbook's declared Inputs names (set when this runbook is
// being driven as a child_runbook rather than the top-level run), and depth,
// this runbook's nesting depth within the root run (1 for the root itself).
func (e *DAGExecutor) runInternal(ctx context.Context, runID string, runbook Runbook, seeded map[string]*message.Message, depth int) (*RunOutcome, error) {
	startedAt := time.Now()

	if err := runbook.Validate(); err != nil {
		return nil, fmt.Errorf("invalid runbook: %w", err)
	}

	dag := NewExecutionDAG(runbook.Artifacts, runbook.Inputs)
	if err := dag.Validate(); err != nil {
		return nil, fmt.Errorf("invalid runbook DAG: %w", err)
	}

	runbookHash, err := HashRunbook(runbook)
	if err != nil {
		return nil, err
	}

	state, err := LoadExecutionState(ctx, e.backend, runID)
	if errors.Is(err, store.ErrNotFound) {
		state = Fresh(runID, dag.ArtifactIDs()).WithRunbookHash(runbookHash)
	} else if err != nil {
		return nil, fmt.Errorf("load execution state for run %s: %w", runID, err)
	} else if state.RunbookHash != "" && state.RunbookHash != runbookHash {
		return nil, NewPlanningError("", "", "runbook hash mismatch: the persisted execution state for this run was checkpointed against a different runbook", nil)
	}

	maxConcurrency := runbook.Config.MaxConcurrency
	if maxConcurrency <= 0 {
		maxConcurrency = DefaultRunbookConfig().MaxConcurrency
	}

	run := &executorRun{
		executor: e,
		runID:    runID,
		runbook:  runbook,
		dag:      dag,
		sorter:   dag.GetSorter(),
		state:    state,
		depth:    depth,
		outcomes: make(map[string]ArtifactOutcome),
		results:   make(map[string]*message.Message),
		skip:      make(map[string]bool),
		durations: make(map[string]float64),
		sem:       make(chan struct{}, maxConcurrency),
	}

	// Declared runbook Inputs are injected by the parent (child_runbook
	// dispatch), not produced by any artifact in this DAG; mark them
	// immediately resolved so artifacts depending on them become ready.
	for name := range runbook.Inputs {
		run.sorter.Done(name)
		if msg, ok := seeded[name]; ok {
			run.results[name] = msg
		}
	}

	// Artifacts already completed or skipped in a resumed run are done as
	// far as the Sorter is concerned; failed ones propagate their skip
	// closure immediately so their descendants never become "ready". A
	// completed artifact's Message is reloaded from the backend so
	// resumed dependents still see their upstream input.
	for id := range state.Completed {
		run.sorter.Done(id)
		if msg, loadErr := loadArtifactMessage(ctx, e.backend, e.schemas, runID, id); loadErr == nil {
			run.results[id] = msg
		} else {
			e.logger.Warn(ctx, "could not reload completed artifact for resume", "run_id", runID, "artifact_id", id, "error", loadErr)
		}
	}
	for id := range state.Skipped {
		run.sorter.Done(id)
	}
	for id := range state.Failed {
		run.sorter.Done(id)
		run.markDownstreamSkip(id)
	}

	outcome := &RunOutcome{State: state, Outcomes: run.outcomes, Durations: run.durations, StartedAt: startedAt}
	if err := run.drive(ctx); err != nil {
		return outcome, err
	}

	return outcome, nil
}

// BuildExecutionResult assembles the reportable ExecutionResult from a
// RunOutcome.
func BuildExecutionResult(runID string, run *RunOutcome) ExecutionResult {
	result := ExecutionResult{
		RunID:                runID,
		StartTimestamp:       run.StartedAt.UTC().Format(time.RFC3339),
		Artifacts:            make(map[string]ArtifactResult, len(run.Outcomes)),
		Skipped:              make(map[string]struct{}),
		TotalDurationSeconds: time.Since(run.StartedAt).Seconds(),
	}

	for id, outcome := range run.Outcomes {
		ar := ArtifactResult{ArtifactID: id, Origin: "parent", DurationSeconds: run.Durations[id]}
		switch outcome.Kind {
		case OutcomeCompleted:
			ar.Success = true
			if outcome.Message != nil && outcome.Message.Schema != nil {
				ar.MessageSchema = outcome.Message.Schema.Key()
			}
		case OutcomeFailed:
			ar.Success = false
			if outcome.Err != nil {
				ar.Error = outcome.Err.Error()
			}
		case OutcomeSkipped:
			result.Skipped[id] = struct{}{}
			continue
		case OutcomePending:
			continue
		}
		result.Artifacts[id] = ar
	}

	return result
}

// executorRun holds the mutable state of one in-flight Run call.
type executorRun struct {
	executor *DAGExecutor
	runID    string
	runbook  Runbook
	dag      *ExecutionDAG
	sorter   *Sorter
	state    *ExecutionState
	depth    int

	mu        sync.Mutex
	outcomes  map[string]ArtifactOutcome
	results   map[string]*message.Message
	skip      map[string]bool
	durations map[string]float64

	sem chan struct{}
}

type artifactDone struct {
	id      string
	outcome ArtifactOutcome
}

// drive runs the GetReady/dispatch/Done loop to completion. Artifacts
// already in the skip set are resolved as OutcomeSkipped without ever
// occupying a worker slot.
func (r *executorRun) drive(ctx context.Context) error {
	doneCh := make(chan artifactDone)
	inFlight := 0

	for r.sorter.IsActive() || inFlight > 0 {
		for _, id := range r.sorter.GetReady() {
			if r.isSkipped(id) {
				r.finish(ctx, id, SkippedOutcome())
				r.sorter.Done(id)
				continue
			}

			inFlight++
			started := time.Now()
			go func(id string) {
				r.sem <- struct{}{}
				defer func() { <-r.sem }()
				spanCtx, span := r.executor.telemetry.StartArtifact(ctx, r.runID, id, artifactKind(r.runbook.Artifacts[id]))
				outcome := r.executeArtifact(spanCtx, id)
				elapsed := time.Since(started).Seconds()
				span.End()
				r.executor.telemetry.RecordArtifact(ctx, id, outcome.Kind, elapsed)
				r.mu.Lock()
				r.durations[id] = elapsed
				r.mu.Unlock()
				doneCh <- artifactDone{id: id, outcome: outcome}
			}(id)
		}

		if inFlight == 0 {
			if r.sorter.IsActive() {
				return fmt.Errorf("runbook stalled: artifacts remain but none are ready (check for a broken dependency reference)")
			}
			break
		}

		result := <-doneCh
		inFlight--
		r.finish(ctx, result.id, result.outcome)
		r.sorter.Done(result.id)
	}

	return nil
}

func (r *executorRun) isSkipped(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.skip[id]
}

// finish records outcome for id: it updates ExecutionState, checkpoints it,
// stores the outcome, caches a completed Message for downstream inputs, and
// (on a non-optional failure) marks every transitive dependent for skip.
func (r *executorRun) finish(ctx context.Context, id string, outcome ArtifactOutcome) {
	r.mu.Lock()
	r.outcomes[id] = outcome
	if outcome.Kind == OutcomeCompleted {
		r.results[id] = outcome.Message
	}
	r.mu.Unlock()

	artifact := r.runbook.Artifacts[id]

	switch outcome.Kind {
	case OutcomeCompleted:
		r.state.MarkCompleted(id)
		if outcome.Message != nil {
			if raw, err := outcome.Message.MarshalJSON(); err != nil {
				r.executor.logger.Error(ctx, "failed to encode artifact message", "run_id", r.runID, "artifact_id", id, "error", err)
			} else if err := r.executor.backend.Save(ctx, r.runID, artifactKey(id), raw); err != nil {
				r.executor.logger.Error(ctx, "failed to persist artifact message", "run_id", r.runID, "artifact_id", id, "error", err)
			}
		}
	case OutcomeFailed:
		r.state.MarkFailed(id)
		r.executor.logger.Error(ctx, "artifact failed", "run_id", r.runID, "artifact_id", id, "error", outcome.Err)
		if !artifact.Optional {
			r.markDownstreamSkip(id)
		}
	case OutcomeSkipped:
		r.state.MarkSkipped([]string{id})
	case OutcomePending:
		// Leave the artifact in NotStarted: a later poll-and-rerun resumes
		// it from the LLM cache.
		r.executor.logger.Info(ctx, "artifact pending batch completion", "run_id", r.runID, "artifact_id", id, "batch_id", outcome.Pending.BatchID)
	}

	if err := r.state.Save(ctx, r.executor.backend); err != nil {
		r.executor.logger.Error(ctx, "failed to checkpoint execution state", "run_id", r.runID, "error", err)
	}
}

// markDownstreamSkip adds every artifact transitively reachable from id via
// GetDependents to the skip set, so drive resolves them as OutcomeSkipped as
// soon as they next surface from GetReady instead of ever dispatching them.
func (r *executorRun) markDownstreamSkip(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	queue := []string{id}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for dep := range r.dag.GetDependents(cur) {
			if r.skip[dep] {
				continue
			}
			r.skip[dep] = true
			queue = append(queue, dep)
		}
	}
}

// executeArtifact resolves the component for id's ArtifactDefinition and
// invokes it, translating the result (including an *llm.PendingBatchError)
// into an ArtifactOutcome. It does not touch shared state directly; callers
// serialise via the artifactDone channel.
func (r *executorRun) executeArtifact(ctx context.Context, id string) ArtifactOutcome {
	artifact := r.runbook.Artifacts[id]

	switch {
	case artifact.Source != nil:
		return r.runSource(ctx, id, artifact)
	case artifact.ChildRunbook != nil:
		return r.runChildRunbook(ctx, id, artifact)
	case artifact.Process != nil:
		return r.runProcess(ctx, id, artifact)
	default:
		return FailedOutcome(fmt.Errorf("artifact %s: neither source, process, nor child_runbook configured", id))
	}
}

func (r *executorRun) runSource(ctx context.Context, id string, artifact ArtifactDefinition) ArtifactOutcome {
	component, err := r.executor.services.Get(ctx, componentName("source", artifact.Source.Type))
	if err != nil {
		return FailedOutcome(fmt.Errorf("artifact %s: %w", id, err))
	}
	connector, ok := component.(Connector)
	if !ok {
		return FailedOutcome(fmt.Errorf("artifact %s: component %q is not a Connector", id, artifact.Source.Type))
	}
	msg, err := connector.Connect(ctx, artifact.Source.Properties)
	if err != nil {
		return FailedOutcome(fmt.Errorf("artifact %s: connect: %w", id, err))
	}
	if err := msg.Validate(); err != nil {
		return FailedOutcome(NewSchemaValidationError(id, msg.Schema.Key(), err))
	}
	return CompletedOutcome(msg)
}

func (r *executorRun) runProcess(ctx context.Context, id string, artifact ArtifactDefinition) ArtifactOutcome {
	inputs, err := r.resolveInputs(id, artifact)
	if err != nil {
		return FailedOutcome(err)
	}

	component, err := r.executor.services.Get(ctx, componentName("process", artifact.Process.Type))
	if err != nil {
		return FailedOutcome(fmt.Errorf("artifact %s: %w", id, err))
	}

	var msg *message.Message
	switch c := component.(type) {
	case Analyser:
		msg, err = c.Analyse(ctx, inputs, artifact.Process.Properties)
	case Classifier:
		msg, err = c.Classify(ctx, inputs, artifact.Process.Properties)
	case Exporter:
		err = c.Export(ctx, inputs, artifact.Process.Properties)
		if err == nil {
			return CompletedOutcome(nil)
		}
	default:
		return FailedOutcome(fmt.Errorf("artifact %s: component %q is neither Analyser, Classifier, nor Exporter", id, artifact.Process.Type))
	}

	var pending *llm.PendingBatchError
	if errors.As(err, &pending) {
		return PendingOutcome(pending)
	}
	if err != nil {
		return FailedOutcome(fmt.Errorf("artifact %s: %w", id, err))
	}
	if err := msg.Validate(); err != nil {
		return FailedOutcome(NewSchemaValidationError(id, msg.Schema.Key(), err))
	}
	return CompletedOutcome(msg)
}

// resolveInputs gathers the upstream Messages for artifact's declared
// Inputs, in declaration order. A missing input (because its producer was
// optional and failed, or was skipped) is silently omitted rather than
// treated as an error: the component sees a shorter input list.
func (r *executorRun) resolveInputs(id string, artifact ArtifactDefinition) ([]*message.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	inputs := make([]*message.Message, 0, len(artifact.Inputs))
	for _, depID := range artifact.Inputs {
		msg, ok := r.results[depID]
		if !ok {
			continue
		}
		inputs = append(inputs, msg)
	}
	return inputs, nil
}

// runChildRunbook loads and drives the runbook referenced by artifact's
// ChildRunbook directive as a nested DAGExecutor run, seeding its declared
// Inputs from this run's already-resolved artifacts per InputMapping and
// exposing its named Output as this artifact's Message.
//
// Per the resolved child-output-missing question: if the mapped output
// artifact did not complete (it failed, or a non-optional upstream failure
// skipped it), this artifact fails rather than treating the missing output
// as an empty result — the failure propagates to this artifact's own
// dependents exactly as any other artifact failure would.
func (r *executorRun) runChildRunbook(ctx context.Context, id string, artifact ArtifactDefinition) ArtifactOutcome {
	cr := artifact.ChildRunbook

	maxDepth := r.runbook.Config.MaxChildDepth
	child, err := r.executor.loader.LoadChild(r.executor.baseDir, cr.Path, r.depth, maxDepth)
	if err != nil {
		return FailedOutcome(fmt.Errorf("artifact %s: load child runbook: %w", id, err))
	}

	seeded := make(map[string]*message.Message, len(cr.InputMapping))
	r.mu.Lock()
	for childInput, parentArtifact := range cr.InputMapping {
		if msg, ok := r.results[parentArtifact]; ok {
			seeded[childInput] = msg
		}
	}
	r.mu.Unlock()

	childRunID := fmt.Sprintf("%s/child/%s", r.runID, id)
	childRun, err := r.executor.runInternal(ctx, childRunID, *child, seeded, r.depth+1)
	if err != nil {
		return FailedOutcome(fmt.Errorf("artifact %s: child runbook %q: %w", id, child.Name, err))
	}

	if cr.Output == "" {
		return FailedOutcome(fmt.Errorf("artifact %s: output_mapping child_runbook results are not exposed as a single parent artifact; use 'output' for a single exposed result", id))
	}

	outDecl, ok := child.Outputs[cr.Output]
	if !ok {
		return FailedOutcome(fmt.Errorf("artifact %s: child runbook %q declares no output %q", id, child.Name, cr.Output))
	}

	childOutcome, ok := childRun.Outcomes[outDecl.Artifact]
	if !ok || childOutcome.Kind != OutcomeCompleted {
		return FailedOutcome(fmt.Errorf("artifact %s: child runbook %q output %q (artifact %q) did not complete", id, child.Name, cr.Output, outDecl.Artifact))
	}

	return CompletedOutcome(childOutcome.Message)
}

// loadArtifactMessage reloads a previously persisted artifact Message for
// resume.
func loadArtifactMessage(ctx context.Context, backend store.Store, schemas *schema.Registry, runID, id string) (*message.Message, error) {
	raw, err := backend.Get(ctx, runID, artifactKey(id))
	if err != nil {
		return nil, err
	}
	return message.UnmarshalInto(raw, schemas.Get)
}

// artifactKind classifies an artifact for telemetry attributes.
func artifactKind(a ArtifactDefinition) string {
	switch {
	case a.Source != nil:
		return "source"
	case a.ChildRunbook != nil:
		return "child_runbook"
	case a.Process != nil:
		return "process"
	default:
		return "unknown"
	}
}

// componentName builds the ComponentRegistry lookup key for a component
// kind ("source" or "process") and its configured type, keeping source and
// process types in separate namespaces even when they share a name.
func componentName(kind, componentType string) string {
	return kind + ":" + componentType
}

