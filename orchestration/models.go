// Package orchestration implements the artifact-centric runbook execution
// engine: parsing a Runbook into an ExecutionDAG, topologically scheduling
// artifacts onto a bounded worker pool, and tracking per-artifact outcomes
// (completed/failed/skipped/pending) across resumable runs.
package orchestration

import (
	"fmt"
)

// SourceConfig configures a source artifact (a connector invocation).
type SourceConfig struct {
	Type       string         `yaml:"type" json:"type"`
	Properties map[string]any `yaml:"properties,omitempty" json:"properties,omitempty"`
}

// ProcessConfig configures a processing artifact (an analyser, classifier,
// or other transform).
type ProcessConfig struct {
	Type       string         `yaml:"type" json:"type"`
	Properties map[string]any `yaml:"properties,omitempty" json:"properties,omitempty"`
}

// ExecuteConfig configures a child-runbook execution artifact.
type ExecuteConfig struct {
	Mode      string   `yaml:"mode" json:"mode"`
	Timeout   *int     `yaml:"timeout,omitempty" json:"timeout,omitempty"`
	CostLimit *float64 `yaml:"cost_limit,omitempty" json:"cost_limit,omitempty"`
}

// RunbookConfig is optional execution configuration for a runbook.
type RunbookConfig struct {
	Timeout        int      `yaml:"timeout" json:"timeout"`
	MaxConcurrency int      `yaml:"max_concurrency" json:"max_concurrency"`
	MaxChildDepth  int      `yaml:"max_child_depth" json:"max_child_depth"`
	CostLimit      *float64 `yaml:"cost_limit,omitempty" json:"cost_limit,omitempty"`
	TemplatePaths  []string `yaml:"template_paths,omitempty" json:"template_paths,omitempty"`
}

// DefaultRunbookConfig returns the zero-value defaults applied when a
// runbook omits its config block.
func DefaultRunbookConfig() RunbookConfig {
	return RunbookConfig{Timeout: 300, MaxConcurrency: 10, MaxChildDepth: 3}
}

// RunbookInputDeclaration declares one expected input of a child runbook.
type RunbookInputDeclaration struct {
	InputSchema string `yaml:"input_schema" json:"input_schema"`
	Optional    bool   `yaml:"optional" json:"optional"`
	Default     any    `yaml:"default,omitempty" json:"default,omitempty"`
	Sensitive   bool   `yaml:"sensitive" json:"sensitive"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// Validate enforces that a default value requires optional=true.
func (d RunbookInputDeclaration) Validate() error {
	if d.Default != nil && !d.Optional {
		return fmt.Errorf("'default' requires 'optional: true'")
	}
	return nil
}

// RunbookOutputDeclaration declares one output a child runbook exposes.
type RunbookOutputDeclaration struct {
	Artifact    string `yaml:"artifact" json:"artifact"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// ChildRunbookConfig configures a child_runbook directive on an artifact.
type ChildRunbookConfig struct {
	Path          string            `yaml:"path" json:"path"`
	InputMapping  map[string]string `yaml:"input_mapping" json:"input_mapping"`
	Output        string            `yaml:"output,omitempty" json:"output,omitempty"`
	OutputMapping map[string]string `yaml:"output_mapping,omitempty" json:"output_mapping,omitempty"`
}

// Validate enforces that exactly one of Output/OutputMapping is set.
func (c ChildRunbookConfig) Validate() error {
	hasOutput := c.Output != ""
	hasMapping := len(c.OutputMapping) > 0
	if !hasOutput && !hasMapping {
		return fmt.Errorf("either 'output' or 'output_mapping' required")
	}
	if hasOutput && hasMapping {
		return fmt.Errorf("cannot specify both 'output' and 'output_mapping'")
	}
	return nil
}

// ArtifactDefinition defines a single artifact within a runbook.
type ArtifactDefinition struct {
	Name        string `yaml:"name,omitempty" json:"name,omitempty"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	Contact     string `yaml:"contact,omitempty" json:"contact,omitempty"`

	Source  *SourceConfig  `yaml:"source,omitempty" json:"source,omitempty"`
	Inputs  StringOrList   `yaml:"inputs,omitempty" json:"inputs,omitempty"`
	Process *ProcessConfig `yaml:"process,omitempty" json:"process,omitempty"`
	Merge   string         `yaml:"merge,omitempty" json:"merge,omitempty"`

	OutputSchema string `yaml:"output_schema,omitempty" json:"output_schema,omitempty"`

	Output   bool `yaml:"output" json:"output"`
	Optional bool `yaml:"optional" json:"optional"`

	Execute *ExecuteConfig `yaml:"execute,omitempty" json:"execute,omitempty"`

	ChildRunbook *ChildRunbookConfig `yaml:"child_runbook,omitempty" json:"child_runbook,omitempty"`
}

// Validate enforces ArtifactDefinition's structural invariants: exactly one
// of Source/Inputs must be set, and child_runbook cannot be combined with
// process and requires inputs.
func (a ArtifactDefinition) Validate() error {
	hasSource := a.Source != nil
	hasInputs := len(a.Inputs) > 0

	if hasSource && hasInputs {
		return fmt.Errorf("artifact cannot have both 'source' and 'inputs' - they are mutually exclusive")
	}
	if !hasSource && !hasInputs {
		return fmt.Errorf("artifact must have either 'source' or 'inputs' defined")
	}

	if a.ChildRunbook != nil {
		if a.Process != nil {
			return fmt.Errorf("cannot combine 'child_runbook' with 'process'")
		}
		if !hasInputs {
			return fmt.Errorf("'child_runbook' requires 'inputs'")
		}
		if err := a.ChildRunbook.Validate(); err != nil {
			return err
		}
	}

	if a.Execute != nil && a.Execute.Mode != "child" {
		return fmt.Errorf("execute.mode must be 'child'")
	}

	return nil
}

// Runbook is the top-level declarative execution specification: a DAG of
// ArtifactDefinitions plus optional input/output declarations that make it
// usable as a child runbook.
type Runbook struct {
	Name        string        `yaml:"name" json:"name"`
	Description string        `yaml:"description" json:"description"`
	Contact     string        `yaml:"contact,omitempty" json:"contact,omitempty"`
	Config      RunbookConfig `yaml:"config,omitempty" json:"config,omitempty"`

	Inputs  map[string]RunbookInputDeclaration  `yaml:"inputs,omitempty" json:"inputs,omitempty"`
	Outputs map[string]RunbookOutputDeclaration `yaml:"outputs,omitempty" json:"outputs,omitempty"`

	Artifacts map[string]ArtifactDefinition `yaml:"artifacts" json:"artifacts"`
}

// Validate enforces Runbook-level invariants beyond per-artifact validation:
// runbooks with inputs cannot declare source artifacts, and outputs must
// reference existing artifacts.
func (r Runbook) Validate() error {
	for id, artifact := range r.Artifacts {
		if err := artifact.Validate(); err != nil {
			return fmt.Errorf("artifact %q: %w", id, err)
		}
	}

	if len(r.Inputs) > 0 {
		for id, artifact := range r.Artifacts {
			if artifact.Source != nil {
				return fmt.Errorf("runbook with inputs cannot have source artifacts; found source in %q", id)
			}
		}
	}

	for name, decl := range r.Outputs {
		if _, ok := r.Artifacts[decl.Artifact]; !ok {
			return fmt.Errorf("output %q references non-existent artifact %q", name, decl.Artifact)
		}
	}

	for name, decl := range r.Inputs {
		if err := decl.Validate(); err != nil {
			return fmt.Errorf("input %q: %w", name, err)
		}
	}

	return nil
}

// ArtifactResult is the outcome of executing a single artifact.
type ArtifactResult struct {
	ArtifactID      string  `json:"artifact_id"`
	Success         bool    `json:"success"`
	MessageSchema   string  `json:"message_schema,omitempty"`
	Error           string  `json:"error,omitempty"`
	DurationSeconds float64 `json:"duration_seconds"`

	// Origin distinguishes artifacts produced by the parent runbook
	// ("parent") from those produced by a nested child runbook
	// ("child:<runbook-name>").
	Origin string `json:"origin,omitempty"`
	Alias  string `json:"alias,omitempty"`
}

// ExecutionResult is the outcome of executing a complete runbook run.
type ExecutionResult struct {
	RunID                string                    `json:"run_id"`
	StartTimestamp       string                    `json:"start_timestamp"`
	Artifacts            map[string]ArtifactResult `json:"artifacts"`
	Skipped              map[string]struct{}       `json:"skipped,omitempty"`
	TotalDurationSeconds float64                   `json:"total_duration_seconds"`
}
