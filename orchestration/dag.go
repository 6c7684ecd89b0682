package orchestration

import (
	"fmt"
	"sort"
)

// ExecutionDAG builds the dependency graph implied by a set of
// ArtifactDefinitions: an artifact depends on every artifact named in its
// Inputs (or, for a child_runbook artifact, its InputMapping source
// artifacts).
type ExecutionDAG struct {
	artifactIDs  []string
	dependencies map[string]map[string]struct{}
	dependents   map[string]map[string]struct{}
	known        map[string]struct{}
	dangling     []danglingRef
}

// danglingRef records one Inputs/InputMapping reference to an id that is
// neither an artifact in this DAG nor a declared runbook input.
type danglingRef struct {
	artifactID string
	missingID  string
}

// NewExecutionDAG builds an ExecutionDAG from a runbook's artifacts.
// externalInputs names the runbook's own declared Inputs (its top-level
// RunbookInputDeclaration keys): an artifact may depend on one of these
// without any artifact in artifacts producing it, since a child_runbook
// dispatch seeds them directly. NewExecutionDAG does not validate for
// cycles or dangling references; call Validate for that.
func NewExecutionDAG(artifacts map[string]ArtifactDefinition, externalInputs map[string]RunbookInputDeclaration) *ExecutionDAG {
	dag := &ExecutionDAG{
		dependencies: make(map[string]map[string]struct{}, len(artifacts)),
		dependents:   make(map[string]map[string]struct{}, len(artifacts)),
		known:        make(map[string]struct{}, len(artifacts)+len(externalInputs)),
	}

	for id := range artifacts {
		dag.artifactIDs = append(dag.artifactIDs, id)
		dag.dependencies[id] = make(map[string]struct{})
		dag.known[id] = struct{}{}
	}
	sort.Strings(dag.artifactIDs)
	for name := range externalInputs {
		dag.known[name] = struct{}{}
	}

	for id, artifact := range artifacts {
		for _, dep := range artifact.Inputs {
			if _, ok := dag.known[dep]; !ok {
				dag.dangling = append(dag.dangling, danglingRef{artifactID: id, missingID: dep})
				continue
			}
			dag.dependencies[id][dep] = struct{}{}
			if dag.dependents[dep] == nil {
				dag.dependents[dep] = make(map[string]struct{})
			}
			dag.dependents[dep][id] = struct{}{}
		}
		if cr := artifact.ChildRunbook; cr != nil {
			for _, parentArtifact := range cr.InputMapping {
				if _, ok := dag.known[parentArtifact]; !ok {
					dag.dangling = append(dag.dangling, danglingRef{artifactID: id, missingID: parentArtifact})
					continue
				}
				dag.dependencies[id][parentArtifact] = struct{}{}
				if dag.dependents[parentArtifact] == nil {
					dag.dependents[parentArtifact] = make(map[string]struct{})
				}
				dag.dependents[parentArtifact][id] = struct{}{}
			}
		}
	}
	sort.Slice(dag.dangling, func(i, j int) bool {
		if dag.dangling[i].artifactID != dag.dangling[j].artifactID {
			return dag.dangling[i].artifactID < dag.dangling[j].artifactID
		}
		return dag.dangling[i].missingID < dag.dangling[j].missingID
	})

	return dag
}

// GetDependencies returns the set of artifact IDs that id directly depends
// on.
func (d *ExecutionDAG) GetDependencies(id string) map[string]struct{} {
	return copySet(d.dependencies[id])
}

// GetDependents returns the set of artifact IDs that directly depend on id.
func (d *ExecutionDAG) GetDependents(id string) map[string]struct{} {
	return copySet(d.dependents[id])
}

// ArtifactIDs returns every artifact ID in the DAG, sorted for deterministic
// iteration.
func (d *ExecutionDAG) ArtifactIDs() []string {
	out := make([]string, len(d.artifactIDs))
	copy(out, d.artifactIDs)
	return out
}

// Validate checks the dependency graph for dangling references (an Inputs
// or child_runbook InputMapping entry naming an id that is neither an
// artifact nor a declared runbook input) and for cycles (direct, indirect,
// or self-reference), returning a *PlanningError or *CycleDetectedError
// respectively for the first problem found.
func (d *ExecutionDAG) Validate() error {
	if len(d.dangling) > 0 {
		ref := d.dangling[0]
		return NewPlanningError("", ref.artifactID, fmt.Sprintf("input %q is not a known artifact or declared runbook input", ref.missingID), nil)
	}

	const (
		white = 0 // unvisited
		gray  = 1 // in progress
		black = 2 // done
	)
	color := make(map[string]int, len(d.artifactIDs))
	var path []string

	var visit func(id string) error
	visit = func(id string) error {
		switch color[id] {
		case black:
			return nil
		case gray:
			cycleStart := 0
			for i, p := range path {
				if p == id {
					cycleStart = i
					break
				}
			}
			cycle := append(append([]string{}, path[cycleStart:]...), id)
			return &CycleDetectedError{Cycle: cycle}
		}

		color[id] = gray
		path = append(path, id)
		deps := make([]string, 0, len(d.dependencies[id]))
		for dep := range d.dependencies[id] {
			deps = append(deps, dep)
		}
		sort.Strings(deps)
		for _, dep := range deps {
			if err := visit(dep); err != nil {
				return err
			}
		}
		path = path[:len(path)-1]
		color[id] = black
		return nil
	}

	for _, id := range d.artifactIDs {
		if err := visit(id); err != nil {
			return err
		}
	}
	return nil
}

// GetSorter returns a Sorter ready to drive topological execution without a
// separate prepare step.
func (d *ExecutionDAG) GetSorter() *Sorter {
	return newSorter(d)
}

func copySet(s map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(s))
	for k := range s {
		out[k] = struct{}{}
	}
	return out
}
