package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/waivern/wct/llm/providers"
	"github.com/waivern/wct/store"
)

// PendingBatchError signals that Complete submitted one or more items to an
// asynchronous provider batch instead of resolving them synchronously. The
// caller (the orchestration DAGExecutor) converts this into an
// ArtifactOutcome of kind Pending rather than treating it as a failure; a
// later BatchResultPoller.PollRun followed by a rerun of Complete resolves
// the pending entries from cache.
type PendingBatchError struct {
	BatchID string
	Pending int
}

func (e *PendingBatchError) Error() string {
	return fmt.Sprintf("%d item(s) submitted to batch %s, awaiting results", e.Pending, e.BatchID)
}

// Service orchestrates batching, caching, and provider calls so that
// callers (orchestration analysers/processors) only need to supply
// PromptGroups and a response schema name; Service handles planning,
// dedup-by-cache, synchronous vs. batch dispatch, and cache population.
type Service struct {
	backend     store.Store
	provider    providers.Provider
	planner     *BatchPlanner
	batchMode   BatchMode
	useBatchAPI bool
}

// NewService constructs a Service. maxPayloadTokens and batchSize configure
// the underlying BatchPlanner (see NewBatchPlanner); batchMode selects
// CountBased or ExtendedContext planning; useBatchAPI opts into the
// provider's asynchronous batch API when available (ignored if the
// provider does not support it).
func NewService(backend store.Store, provider providers.Provider, maxPayloadTokens, batchSize int, batchMode BatchMode, useBatchAPI bool) *Service {
	return &Service{
		backend:     backend,
		provider:    provider,
		planner:     NewBatchPlanner(maxPayloadTokens, batchSize),
		batchMode:   batchMode,
		useBatchAPI: useBatchAPI && provider.SupportsBatch(),
	}
}

// WithRateLimit wraps s's provider with an AdaptiveRateLimiter so
// synchronous Complete calls self-throttle to initialTPM tokens/minute,
// backing off on provider rate-limit errors and recovering on success.
// SupportsBatch/SubmitBatch/PollBatch are unaffected.
func (s *Service) WithRateLimit(initialTPM, maxTPM float64) *Service {
	limiter := providers.NewAdaptiveRateLimiter(initialTPM, maxTPM)
	s.provider = limiter.Wrap(s.provider)
	return s
}

// Complete processes groups for runID, returning one raw JSON response per
// batch resolved synchronously (in cache-hit or sync-call order) plus the
// groups that had to be skipped during planning. When one or more batches
// had to be submitted asynchronously, Complete returns a
// *PendingBatchError alongside whatever synchronous responses it already
// resolved; the caller should treat that as "not yet done", not a failure.
func (s *Service) Complete(ctx context.Context, runID string, groups []PromptGroup, responseSchemaName string) (responses [][]byte, skipped []SkippedGroup, err error) {
	plan := s.planner.Plan(groups, s.batchMode)
	cache := NewCache(s.backend, runID)

	var pendingItems []providers.BatchItem
	var pendingCacheKeys []string
	var batchModel string

	for _, batch := range plan.Batches {
		prompt := mergePrompts(batch)
		cacheKey := CacheKey(prompt, modelFor(batch), responseSchemaName)

		entry, getErr := cache.Get(ctx, cacheKey)
		if getErr == nil {
			switch entry.Status {
			case CacheCompleted:
				responses = append(responses, entry.Response)
				continue
			case CachePending:
				continue
			case CacheFailed:
				return nil, nil, fmt.Errorf("cache entry %s previously failed: %s", cacheKey, entry.Error)
			}
		}

		if s.useBatchAPI {
			batchModel = modelFor(batch)
			pendingItems = append(pendingItems, providers.BatchItem{CustomID: cacheKey, Prompt: prompt})
			pendingCacheKeys = append(pendingCacheKeys, cacheKey)
			continue
		}

		req := providers.CompletionRequest{
			Model:  modelFor(batch),
			Prompt: prompt,
		}
		resp, err := s.provider.Complete(ctx, req)
		if err != nil {
			// One local retry when the provider was unreachable.
			if _, transient := AsLLMConnectionError(classifyConnectionErr("complete", err)); transient {
				resp, err = s.provider.Complete(ctx, req)
			}
		}
		if err != nil {
			return responses, plan.Skipped, fmt.Errorf("complete batch: %w", classifyConnectionErr("complete", err))
		}
		if err := cache.Set(ctx, &CacheEntry{
			Key:        cacheKey,
			Status:     CacheCompleted,
			Response:   resp.ResponseJSON,
			CreatedAt:  time.Now().UTC(),
			ResolvedAt: time.Now().UTC(),
		}); err != nil {
			return responses, plan.Skipped, fmt.Errorf("record completed cache entry: %w", err)
		}
		responses = append(responses, resp.ResponseJSON)
	}

	if len(pendingItems) == 0 {
		return responses, plan.Skipped, nil
	}

	batchID, err := s.provider.SubmitBatch(ctx, providers.BatchSubmitRequest{Model: batchModel, Items: pendingItems})
	if err != nil {
		return responses, plan.Skipped, fmt.Errorf("submit batch: %w", classifyConnectionErr("submit_batch", err))
	}

	for _, cacheKey := range pendingCacheKeys {
		if err := cache.Set(ctx, &CacheEntry{
			Key:       cacheKey,
			Status:    CachePending,
			BatchID:   batchID,
			CustomID:  cacheKey,
			CreatedAt: time.Now().UTC(),
		}); err != nil {
			return responses, plan.Skipped, fmt.Errorf("record pending cache entry %s: %w", cacheKey, err)
		}
	}

	job := BatchJob{
		ID:          batchID,
		Provider:    s.provider.Name(),
		Model:       batchModel,
		Status:      JobSubmitted,
		CustomIDs:   pendingCacheKeys,
		SubmittedAt: time.Now().UTC(),
	}
	if err := SaveBatchJob(ctx, s.backend, runID, job); err != nil {
		return responses, plan.Skipped, fmt.Errorf("save batch job %s: %w", batchID, err)
	}

	return responses, plan.Skipped, &PendingBatchError{BatchID: batchID, Pending: len(pendingCacheKeys)}
}

// mergePrompts joins every group's prompt in a batch into the single
// completion/batch-item prompt sent to the provider.
func mergePrompts(batch PlannedBatch) string {
	prompts := make([]string, 0, len(batch.Groups))
	for _, g := range batch.Groups {
		prompts = append(prompts, g.Prompt)
	}
	return strings.Join(prompts, "\n\n")
}

func modelFor(batch PlannedBatch) string {
	if len(batch.Groups) == 0 {
		return ""
	}
	return batch.Groups[0].Model
}
