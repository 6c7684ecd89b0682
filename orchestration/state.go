package orchestration

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/waivern/wct/store"
)

// executionStateKey is the reserved key an ExecutionState is persisted
// under for resume support.
const executionStateKey = "_system/execution_state.json"

// ExecutionState tracks execution progress for a run. Every artifact
// starts in NotStarted and transitions exactly once into Completed, Failed,
// or Skipped; re-marking an artifact already out of NotStarted is a no-op,
// keeping MarkCompleted/MarkFailed/MarkSkipped idempotent.
type ExecutionState struct {
	RunID          string              `json:"run_id"`
	RunbookHash    string              `json:"runbook_hash,omitempty"`
	Completed      map[string]struct{} `json:"completed"`
	NotStarted     map[string]struct{} `json:"not_started"`
	Failed         map[string]struct{} `json:"failed"`
	Skipped        map[string]struct{} `json:"skipped"`
	LastCheckpoint time.Time           `json:"last_checkpoint"`
}

// HashRunbook computes a content hash of rb's artifact definitions, stable
// across re-marshalling (map key order does not affect JSON object byte
// order for Go's encoding/json, which always emits map keys sorted). A
// resumed run compares this against the hash recorded in the persisted
// ExecutionState to reject resuming against a runbook that has since
// changed shape.
func HashRunbook(rb Runbook) (string, error) {
	canonical, err := json.Marshal(rb.Artifacts)
	if err != nil {
		return "", fmt.Errorf("hash runbook: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

// Fresh creates initial state with every artifact ID in NotStarted and no
// recorded runbook hash. Use WithRunbookHash to stamp one before the first
// Save, as runInternal does for every newly started run.
func Fresh(runID string, artifactIDs []string) *ExecutionState {
	notStarted := make(map[string]struct{}, len(artifactIDs))
	for _, id := range artifactIDs {
		notStarted[id] = struct{}{}
	}
	return &ExecutionState{
		RunID:          runID,
		Completed:      make(map[string]struct{}),
		NotStarted:     notStarted,
		Failed:         make(map[string]struct{}),
		Skipped:        make(map[string]struct{}),
		LastCheckpoint: time.Now().UTC(),
	}
}

// WithRunbookHash sets s's recorded runbook hash and returns s, for chaining
// onto Fresh.
func (s *ExecutionState) WithRunbookHash(hash string) *ExecutionState {
	s.RunbookHash = hash
	return s
}

// MarkCompleted moves id from NotStarted to Completed. No-op if id is not
// in NotStarted.
func (s *ExecutionState) MarkCompleted(id string) {
	if _, ok := s.NotStarted[id]; !ok {
		return
	}
	delete(s.NotStarted, id)
	s.Completed[id] = struct{}{}
	s.LastCheckpoint = time.Now().UTC()
}

// MarkFailed moves id from NotStarted to Failed. No-op if id is not in
// NotStarted.
func (s *ExecutionState) MarkFailed(id string) {
	if _, ok := s.NotStarted[id]; !ok {
		return
	}
	delete(s.NotStarted, id)
	s.Failed[id] = struct{}{}
	s.LastCheckpoint = time.Now().UTC()
}

// MarkSkipped moves every id in ids currently in NotStarted to Skipped,
// used when an upstream failure makes dependents unreachable.
func (s *ExecutionState) MarkSkipped(ids []string) {
	moved := false
	for _, id := range ids {
		if _, ok := s.NotStarted[id]; !ok {
			continue
		}
		delete(s.NotStarted, id)
		s.Skipped[id] = struct{}{}
		moved = true
	}
	if moved {
		s.LastCheckpoint = time.Now().UTC()
	}
}

// LoadExecutionState loads a persisted ExecutionState for runID.
func LoadExecutionState(ctx context.Context, backend store.Store, runID string) (*ExecutionState, error) {
	raw, err := backend.Get(ctx, runID, executionStateKey)
	if err != nil {
		return nil, err
	}
	var s ExecutionState
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode execution state for run %s: %w", runID, err)
	}
	return &s, nil
}

// Save persists s, updating LastCheckpoint first.
func (s *ExecutionState) Save(ctx context.Context, backend store.Store) error {
	s.LastCheckpoint = time.Now().UTC()
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode execution state for run %s: %w", s.RunID, err)
	}
	return backend.Save(ctx, s.RunID, executionStateKey, raw)
}
