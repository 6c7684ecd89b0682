package orchestration

import (
	"github.com/waivern/wct/llm"
	"github.com/waivern/wct/message"
)

// OutcomeKind distinguishes the four ways an artifact's execution can
// settle.
type OutcomeKind int

const (
	// OutcomeCompleted means the artifact produced a Message.
	OutcomeCompleted OutcomeKind = iota
	// OutcomePending means the artifact's work was submitted to an
	// asynchronous LLM batch and has not resolved yet; DAGExecutor.Run
	// returns without error in this case, leaving the artifact in
	// ExecutionState.NotStarted so a later rerun (after polling) can
	// resume it.
	OutcomePending
	// OutcomeFailed means the artifact's component returned an error.
	OutcomeFailed
	// OutcomeSkipped means an upstream dependency failed, so this artifact
	// was never attempted.
	OutcomeSkipped
)

// String renders the outcome kind for logging and telemetry attributes.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeCompleted:
		return "completed"
	case OutcomePending:
		return "pending"
	case OutcomeFailed:
		return "failed"
	case OutcomeSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// ArtifactOutcome is the tagged-union result of executing one artifact.
// Only the field matching Kind is meaningful; DAGExecutor switches on Kind
// rather than inspecting fields directly.
type ArtifactOutcome struct {
	Kind    OutcomeKind
	Message *message.Message
	Pending *llm.PendingBatchError
	Err     error
}

// CompletedOutcome builds an OutcomeCompleted ArtifactOutcome.
func CompletedOutcome(msg *message.Message) ArtifactOutcome {
	return ArtifactOutcome{Kind: OutcomeCompleted, Message: msg}
}

// PendingOutcome builds an OutcomePending ArtifactOutcome from the LLM
// service's PendingBatchError.
func PendingOutcome(err *llm.PendingBatchError) ArtifactOutcome {
	return ArtifactOutcome{Kind: OutcomePending, Pending: err}
}

// FailedOutcome builds an OutcomeFailed ArtifactOutcome.
func FailedOutcome(err error) ArtifactOutcome {
	return ArtifactOutcome{Kind: OutcomeFailed, Err: err}
}

// SkippedOutcome builds an OutcomeSkipped ArtifactOutcome.
func SkippedOutcome() ArtifactOutcome {
	return ArtifactOutcome{Kind: OutcomeSkipped}
}
