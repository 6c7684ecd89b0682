package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/waivern/wct/store"
)

// batchJobKeyPrefix is the reserved store namespace BatchJobs are persisted
// under, one key per job ID, so PollRun can enumerate every job submitted
// for a run without a separate index structure.
const batchJobKeyPrefix = "_system/batch_jobs/"

func batchJobStoreKey(jobID string) string {
	return batchJobKeyPrefix + jobID
}

// SaveBatchJob persists (or updates) a BatchJob record for runID.
func SaveBatchJob(ctx context.Context, backend store.Store, runID string, job BatchJob) error {
	raw, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode batch job %s: %w", job.ID, err)
	}
	return backend.Save(ctx, runID, batchJobStoreKey(job.ID), raw)
}

// ListBatchJobs returns every BatchJob recorded for runID.
func ListBatchJobs(ctx context.Context, backend store.Store, runID string) ([]BatchJob, error) {
	keys, err := backend.ListKeys(ctx, runID, batchJobKeyPrefix)
	if err != nil {
		return nil, err
	}
	jobs := make([]BatchJob, 0, len(keys))
	for _, k := range keys {
		raw, err := backend.Get(ctx, runID, k)
		if err != nil {
			return nil, err
		}
		var job BatchJob
		if err := json.Unmarshal(raw, &job); err != nil {
			return nil, fmt.Errorf("decode batch job at %s: %w", k, err)
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}
