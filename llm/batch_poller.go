package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/waivern/wct/llm/providers"
	"github.com/waivern/wct/store"
)

// PollResult summarises one BatchResultPoller.PollRun invocation.
type PollResult struct {
	Completed int
	Failed    int
	Pending   int
	Errors    []string
}

// BatchResultPoller checks a batch-capable provider for completed results
// and advances the matching cache entries from pending to completed/failed.
// It is the bridge between Service's batch submission path (which returns a
// PendingBatchError) and the resume path, which expects every cache entry a
// run depends on to have settled.
type BatchResultPoller struct {
	backend      store.Store
	provider     providers.Provider
	providerName string
	modelName    string
}

// NewBatchResultPoller constructs a poller bound to one provider/model pair.
// Jobs whose recorded provider or model differ are reported as non-fatal
// errors rather than polled, since this poller cannot interpret their
// results.
func NewBatchResultPoller(backend store.Store, provider providers.Provider, providerName, modelName string) *BatchResultPoller {
	return &BatchResultPoller{backend: backend, provider: provider, providerName: providerName, modelName: modelName}
}

// PollRun polls every active (submitted/running) BatchJob recorded for
// runID, advancing cache entries and job status as results arrive.
func (p *BatchResultPoller) PollRun(ctx context.Context, runID string) (PollResult, error) {
	jobs, err := ListBatchJobs(ctx, p.backend, runID)
	if err != nil {
		return PollResult{}, fmt.Errorf("list batch jobs: %w", err)
	}

	var result PollResult
	cache := NewCache(p.backend, runID)

	for _, job := range jobs {
		if job.Status != JobSubmitted && job.Status != JobRunning {
			continue
		}

		if job.Provider != p.providerName || job.Model != p.modelName {
			result.Errors = append(result.Errors, fmt.Sprintf(
				"batch %s: provider/model mismatch - job has %s/%s, poller has %s/%s",
				job.ID, job.Provider, job.Model, p.providerName, p.modelName))
			continue
		}

		done, items, err := p.provider.PollBatch(ctx, job.ID)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("batch %s: poll failed: %s", job.ID, err))
			continue
		}
		if !done {
			if job.Status != JobRunning {
				job.Status = JobRunning
				if err := SaveBatchJob(ctx, p.backend, runID, job); err != nil {
					return result, fmt.Errorf("save batch job %s: %w", job.ID, err)
				}
			}
			result.Pending++
			continue
		}

		if err := p.handleCompleted(ctx, cache, runID, &job, items); err != nil {
			return result, err
		}
		result.Completed++
	}

	return result, nil
}

func (p *BatchResultPoller) handleCompleted(ctx context.Context, cache *Cache, runID string, job *BatchJob, items []providers.BatchItemResult) error {
	byCustomID := make(map[string]providers.BatchItemResult, len(items))
	for _, item := range items {
		byCustomID[item.CustomID] = item
	}

	for _, cacheKey := range job.CustomIDs {
		item, ok := byCustomID[cacheKey]
		if !ok {
			continue
		}
		entry, err := cache.Get(ctx, cacheKey)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return fmt.Errorf("read cache entry %s: %w", cacheKey, err)
		}

		if item.Err == nil {
			entry.Status = CacheCompleted
			entry.Response = json.RawMessage(item.ResponseJSON)
			entry.Error = ""
		} else {
			entry.Status = CacheFailed
			entry.Response = nil
			entry.Error = item.Err.Error()
		}
		entry.ResolvedAt = time.Now().UTC()

		if err := cache.Set(ctx, entry); err != nil {
			return fmt.Errorf("write cache entry %s: %w", cacheKey, err)
		}
	}

	job.Status = JobCompleted
	return SaveBatchJob(ctx, p.backend, runID, *job)
}
