package orchestration

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/waivern/wct/store"
)

// RunStatus summarises an ExecutionState for listing purposes.
type RunStatus string

const (
	StatusPending   RunStatus = "pending"
	StatusCompleted RunStatus = "completed"
	StatusFailed    RunStatus = "failed"
)

// RunMetadata is one entry in a `wct runs` listing.
type RunMetadata struct {
	RunID          string
	Status         RunStatus
	LastCheckpoint time.Time
}

// deriveStatus classifies an ExecutionState: any artifact marked Failed
// means the run failed; otherwise, outstanding NotStarted artifacts mean
// the run is still pending (e.g. awaiting a batch result), and a fully
// resolved state with nothing failed is completed.
func deriveStatus(s *ExecutionState) RunStatus {
	if len(s.Failed) > 0 {
		return StatusFailed
	}
	if len(s.NotStarted) > 0 {
		return StatusPending
	}
	return StatusCompleted
}

// ListRuns enumerates every run backend knows about via store.RunEnumerator,
// deriving each run's status from its persisted ExecutionState and sorting
// most-recently-checkpointed first. statusFilter, if non-empty, restricts
// the result to runs with that exact status.
func ListRuns(ctx context.Context, backend store.Store, statusFilter string) ([]RunMetadata, error) {
	lister, ok := backend.(store.RunEnumerator)
	if !ok {
		return nil, fmt.Errorf("listing runs is not supported by this store backend")
	}

	ids, err := lister.ListRunIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list run ids: %w", err)
	}

	runs := make([]RunMetadata, 0, len(ids))
	for _, id := range ids {
		state, err := LoadExecutionState(ctx, backend, id)
		if err != nil {
			continue
		}
		status := deriveStatus(state)
		if statusFilter != "" && string(status) != statusFilter {
			continue
		}
		runs = append(runs, RunMetadata{RunID: id, Status: status, LastCheckpoint: state.LastCheckpoint})
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].LastCheckpoint.After(runs[j].LastCheckpoint) })
	return runs, nil
}
