package orchestration

import (
	"fmt"

	"github.com/waivern/wct/schema"
)

// ArtifactSchemas is the resolved schema set for one artifact: the upstream
// schemas its inputs carry (empty for a source artifact) and the schema its
// own component produces (nil for an Exporter, which has no output).
type ArtifactSchemas struct {
	Input  []*schema.Schema
	Output *schema.Schema
}

// ExecutionPlan is a validated Runbook paired with its ExecutionDAG and a
// resolved artifact_id -> ArtifactSchemas map, built once up front so a
// DAGExecutor never discovers a missing component, a dangling input, or an
// incompatible schema pairing mid-run.
type ExecutionPlan struct {
	Runbook Runbook
	DAG     *ExecutionDAG
	Schemas map[string]ArtifactSchemas
}

// Planner turns a runbook file into an ExecutionPlan. It consults a
// ComponentRegistry's Factory metadata to resolve schemas without
// constructing any component.
type Planner struct {
	loader   *Loader
	registry *ComponentRegistry
}

// NewPlanner constructs a Planner. loader parses runbook YAML; registry
// supplies the Factory metadata (input/output schemas, service
// dependencies) Plan consults to resolve artifact schemas and reject
// unregistered component types.
func NewPlanner(loader *Loader, registry *ComponentRegistry) *Planner {
	return &Planner{loader: loader, registry: registry}
}

// Plan loads the runbook at runbookPath, validates its dependency graph,
// and resolves every artifact's effective input and output schemas.
//
// It fails with a *PlanningError when: the file is absent or malformed; an
// artifact's source/process names a component type not in the registry; an
// artifact's declared input references a nonexistent artifact id (detected
// by ExecutionDAG.Validate); an input's resolved output schema is not a
// member of the dependent component's declared input-schema set. It fails
// with a *CycleDetectedError when the dependency graph contains a cycle.
func (p *Planner) Plan(runbookPath string) (*ExecutionPlan, error) {
	rb, err := p.loader.LoadFile(runbookPath)
	if err != nil {
		return nil, NewPlanningError(runbookPath, "", "could not load runbook", err)
	}

	dag := NewExecutionDAG(rb.Artifacts, rb.Inputs)
	if err := dag.Validate(); err != nil {
		return nil, reattachRunbookPath(err, runbookPath)
	}

	schemas := make(map[string]ArtifactSchemas, len(dag.ArtifactIDs()))
	sorter := dag.GetSorter()
	// Declared runbook Inputs are resolved by the caller seeding a
	// child_runbook dispatch, not produced by any artifact in this DAG;
	// mark them done immediately so artifacts depending on them become
	// ready, mirroring DAGExecutor.runInternal's own seeding.
	for name := range rb.Inputs {
		sorter.Done(name)
	}
	for sorter.IsActive() {
		ready := sorter.GetReady()
		for _, id := range ready {
			resolved, err := p.resolveArtifact(runbookPath, id, rb.Artifacts[id], schemas, rb.Inputs)
			if err != nil {
				return nil, err
			}
			schemas[id] = resolved
			sorter.Done(id)
		}
	}

	return &ExecutionPlan{Runbook: *rb, DAG: dag, Schemas: schemas}, nil
}

// resolveArtifact resolves one artifact's ArtifactSchemas, consulting the
// already-resolved schemas of any artifact it depends on (guaranteed
// present because the sorter yields ids in dependency order).
func (p *Planner) resolveArtifact(runbookPath, id string, artifact ArtifactDefinition, resolved map[string]ArtifactSchemas, externalInputs map[string]RunbookInputDeclaration) (ArtifactSchemas, error) {
	switch {
	case artifact.ChildRunbook != nil:
		// A child_runbook's effective output schema is only known once its
		// own template is planned; that recursion is deferred to the
		// DAGExecutor, which already loads and drives the child runbook.
		// The Planner only guarantees the InputMapping source artifacts
		// exist, already enforced by ExecutionDAG.Validate.
		return ArtifactSchemas{}, nil

	case artifact.Source != nil:
		factory, ok := p.registry.Lookup(componentName("source", artifact.Source.Type))
		if !ok {
			return ArtifactSchemas{}, NewPlanningError(runbookPath, id, fmt.Sprintf("component type %q is not registered", componentName("source", artifact.Source.Type)), nil)
		}
		if !factory.canCreate(artifact.Source.Properties) {
			return ArtifactSchemas{}, NewPlanningError(runbookPath, id, fmt.Sprintf("properties are not valid for component %q", factory.ComponentName), nil)
		}
		return ArtifactSchemas{Output: p.effectiveOutputSchema(artifact, factory)}, nil

	case artifact.Process != nil:
		factory, ok := p.registry.Lookup(componentName("process", artifact.Process.Type))
		if !ok {
			return ArtifactSchemas{}, NewPlanningError(runbookPath, id, fmt.Sprintf("component type %q is not registered", componentName("process", artifact.Process.Type)), nil)
		}
		if !factory.canCreate(artifact.Process.Properties) {
			return ArtifactSchemas{}, NewPlanningError(runbookPath, id, fmt.Sprintf("properties are not valid for component %q", factory.ComponentName), nil)
		}

		inputSchemas := make([]*schema.Schema, 0, len(artifact.Inputs))
		for _, depID := range artifact.Inputs {
			output := upstreamOutputSchema(depID, resolved, externalInputs)
			if output == nil {
				// The upstream is a child_runbook (output unknown to the
				// Planner), an Exporter (no output), or a declared runbook
				// input with no input_schema override; nothing to check
				// against this component's accepted input schemas.
				continue
			}
			if !acceptsSchema(factory.InputSchemas, output) {
				return ArtifactSchemas{}, NewPlanningError(runbookPath, id, fmt.Sprintf("input %q produces schema %s, not accepted by component %q", depID, output.Key(), factory.ComponentName), nil)
			}
			inputSchemas = append(inputSchemas, output)
		}

		return ArtifactSchemas{Input: inputSchemas, Output: p.effectiveOutputSchema(artifact, factory)}, nil

	default:
		return ArtifactSchemas{}, NewPlanningError(runbookPath, id, "neither source, process, nor child_runbook configured", nil)
	}
}

// upstreamOutputSchema resolves depID's effective output schema, whether it
// is an artifact already resolved earlier in the sort order or a declared
// runbook input with an input_schema override.
func upstreamOutputSchema(depID string, resolved map[string]ArtifactSchemas, externalInputs map[string]RunbookInputDeclaration) *schema.Schema {
	if artifactSchemas, ok := resolved[depID]; ok {
		return artifactSchemas.Output
	}
	if decl, ok := externalInputs[depID]; ok && decl.InputSchema != "" {
		name, version := splitSchemaRef(decl.InputSchema)
		return schema.Get(name, version)
	}
	return nil
}

// effectiveOutputSchema returns artifact's OutputSchema override if one is
// declared (resolved against the schema registry), else factory's declared
// default output schema.
func (p *Planner) effectiveOutputSchema(artifact ArtifactDefinition, factory *Factory) *schema.Schema {
	if artifact.OutputSchema == "" {
		return factory.outputSchema()
	}
	name, version := splitSchemaRef(artifact.OutputSchema)
	return schema.Get(name, version)
}

// acceptsSchema reports whether candidate's (name, version) identity
// matches one of accepted's schemas.
func acceptsSchema(accepted []*schema.Schema, candidate *schema.Schema) bool {
	if len(accepted) == 0 {
		// No declared input schema set: the component accepts anything
		// (e.g. an Exporter that merely forwards whatever it is given).
		return true
	}
	for _, s := range accepted {
		if s.Key() == candidate.Key() {
			return true
		}
	}
	return false
}

// splitSchemaRef splits a "name/version" artifact.OutputSchema override
// into its two parts.
func splitSchemaRef(ref string) (name, version string) {
	for i := len(ref) - 1; i >= 0; i-- {
		if ref[i] == '/' {
			return ref[:i], ref[i+1:]
		}
	}
	return ref, ""
}

// reattachRunbookPath returns err with RunbookPath set to path, for a
// *PlanningError or *CycleDetectedError surfaced by ExecutionDAG.Validate
// without knowledge of which file it came from.
func reattachRunbookPath(err error, path string) error {
	if pe, ok := AsPlanningError(err); ok {
		pe.RunbookPath = path
		return pe
	}
	return err
}
