package orchestration

import (
	"errors"
	"fmt"
	"time"
)

// CycleDetectedError is returned by ExecutionDAG.Validate when the artifact
// dependency graph contains a cycle (direct, indirect, or self-reference).
type CycleDetectedError struct {
	Cycle []string
}

func (e *CycleDetectedError) Error() string {
	return fmt.Sprintf("cycle detected in artifact dependencies: %v", e.Cycle)
}

// Unwrap always returns nil: a CycleDetectedError is never itself a wrapper
// around another error, it terminates the chain. The method exists so
// errors.Is/errors.As walk it the same way they walk every other typed
// error in this package.
func (e *CycleDetectedError) Unwrap() error { return nil }

// AsCycleDetectedError extracts a *CycleDetectedError from err's chain, if
// present.
func AsCycleDetectedError(err error) (*CycleDetectedError, bool) {
	var ce *CycleDetectedError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// PlanningError reports a failure to turn a Runbook into an ExecutionPlan:
// an unreadable or malformed runbook file, an artifact naming an
// unregistered component type, an artifact whose declared input references
// a nonexistent artifact id, a fan-in whose upstream schemas don't agree,
// or (on resume) a runbook whose hash no longer matches the persisted run.
type PlanningError struct {
	RunbookPath string
	ArtifactID  string
	Reason      string
	cause       error
}

// NewPlanningError constructs a PlanningError. runbookPath and artifactID
// may be empty when the failure isn't scoped to a file or a single
// artifact (e.g. a runbook hash mismatch on resume).
func NewPlanningError(runbookPath, artifactID, reason string, cause error) *PlanningError {
	return &PlanningError{RunbookPath: runbookPath, ArtifactID: artifactID, Reason: reason, cause: cause}
}

func (e *PlanningError) Error() string {
	switch {
	case e.ArtifactID != "" && e.RunbookPath != "":
		return fmt.Sprintf("planning %s: artifact %q: %s", e.RunbookPath, e.ArtifactID, e.Reason)
	case e.ArtifactID != "":
		return fmt.Sprintf("planning: artifact %q: %s", e.ArtifactID, e.Reason)
	case e.RunbookPath != "":
		return fmt.Sprintf("planning %s: %s", e.RunbookPath, e.Reason)
	default:
		return fmt.Sprintf("planning: %s", e.Reason)
	}
}

func (e *PlanningError) Unwrap() error { return e.cause }

// AsPlanningError extracts a *PlanningError from err's chain, if present.
func AsPlanningError(err error) (*PlanningError, bool) {
	var pe *PlanningError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// ComponentConfigError reports that a source/process artifact's properties
// block failed the resolved component's own configuration validation (a
// required property missing, a property of the wrong shape or type).
type ComponentConfigError struct {
	ArtifactID string
	Component  string
	Reason     string
	cause      error
}

// NewComponentConfigError constructs a ComponentConfigError.
func NewComponentConfigError(artifactID, component, reason string, cause error) *ComponentConfigError {
	return &ComponentConfigError{ArtifactID: artifactID, Component: component, Reason: reason, cause: cause}
}

func (e *ComponentConfigError) Error() string {
	return fmt.Sprintf("artifact %q: component %q: %s", e.ArtifactID, e.Component, e.Reason)
}

func (e *ComponentConfigError) Unwrap() error { return e.cause }

// AsComponentConfigError extracts a *ComponentConfigError from err's chain,
// if present.
func AsComponentConfigError(err error) (*ComponentConfigError, bool) {
	var ce *ComponentConfigError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// ArtifactNotFoundError reports that a completed artifact's Message could
// not be loaded back from the store on resume, either because it was never
// persisted or its key was removed out from under a running plan.
type ArtifactNotFoundError struct {
	RunID      string
	ArtifactID string
	cause      error
}

// NewArtifactNotFoundError constructs an ArtifactNotFoundError.
func NewArtifactNotFoundError(runID, artifactID string, cause error) *ArtifactNotFoundError {
	return &ArtifactNotFoundError{RunID: runID, ArtifactID: artifactID, cause: cause}
}

func (e *ArtifactNotFoundError) Error() string {
	return fmt.Sprintf("run %q: artifact %q not found", e.RunID, e.ArtifactID)
}

func (e *ArtifactNotFoundError) Unwrap() error { return e.cause }

// AsArtifactNotFoundError extracts a *ArtifactNotFoundError from err's
// chain, if present.
func AsArtifactNotFoundError(err error) (*ArtifactNotFoundError, bool) {
	var ae *ArtifactNotFoundError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// TimeoutError reports that an artifact's component did not complete
// within the runbook's (or artifact's) configured timeout.
type TimeoutError struct {
	ArtifactID string
	Timeout    time.Duration
	cause      error
}

// NewTimeoutError constructs a TimeoutError.
func NewTimeoutError(artifactID string, timeout time.Duration, cause error) *TimeoutError {
	return &TimeoutError{ArtifactID: artifactID, Timeout: timeout, cause: cause}
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("artifact %q: exceeded timeout of %s", e.ArtifactID, e.Timeout)
}

func (e *TimeoutError) Unwrap() error { return e.cause }

// AsTimeoutError extracts a *TimeoutError from err's chain, if present.
func AsTimeoutError(err error) (*TimeoutError, bool) {
	var te *TimeoutError
	if errors.As(err, &te) {
		return te, true
	}
	return nil, false
}

// SchemaValidationError reports that a Message produced by a source or
// process artifact failed validation against its resolved output schema.
type SchemaValidationError struct {
	ArtifactID string
	SchemaKey  string
	cause      error
}

// NewSchemaValidationError constructs a SchemaValidationError.
func NewSchemaValidationError(artifactID, schemaKey string, cause error) *SchemaValidationError {
	return &SchemaValidationError{ArtifactID: artifactID, SchemaKey: schemaKey, cause: cause}
}

func (e *SchemaValidationError) Error() string {
	return fmt.Sprintf("artifact %q: output does not validate against schema %s: %v", e.ArtifactID, e.SchemaKey, e.cause)
}

func (e *SchemaValidationError) Unwrap() error { return e.cause }

// AsSchemaValidationError extracts a *SchemaValidationError from err's
// chain, if present.
func AsSchemaValidationError(err error) (*SchemaValidationError, bool) {
	var se *SchemaValidationError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
