package llm_test

import (
	"context"
	"fmt"

	"github.com/waivern/wct/llm/providers"
)

// fakeProvider is an in-memory providers.Provider stand-in for tests: no
// network calls, deterministic responses keyed by prompt.
type fakeProvider struct {
	name        string
	supportsAPI bool

	completeCalls int
	submitCalls   int

	// nextBatchID is returned from SubmitBatch; submitted tracks items by
	// batch ID so PollBatch can resolve them.
	nextBatchID int
	submitted   map[string][]providers.BatchItemResult
	// pollReady controls whether PollBatch reports batches as finished.
	pollReady map[string]bool
}

func newFakeProvider(name string, supportsBatch bool) *fakeProvider {
	return &fakeProvider{
		name:        name,
		supportsAPI: supportsBatch,
		submitted:   make(map[string][]providers.BatchItemResult),
		pollReady:   make(map[string]bool),
	}
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Complete(ctx context.Context, req providers.CompletionRequest) (*providers.CompletionResponse, error) {
	f.completeCalls++
	return &providers.CompletionResponse{ResponseJSON: []byte(fmt.Sprintf(`{"echo":%q}`, req.Prompt))}, nil
}

func (f *fakeProvider) SupportsBatch() bool { return f.supportsAPI }

func (f *fakeProvider) SubmitBatch(ctx context.Context, req providers.BatchSubmitRequest) (string, error) {
	f.submitCalls++
	f.nextBatchID++
	batchID := fmt.Sprintf("batch-%d", f.nextBatchID)

	results := make([]providers.BatchItemResult, 0, len(req.Items))
	for _, item := range req.Items {
		results = append(results, providers.BatchItemResult{
			CustomID:     item.CustomID,
			ResponseJSON: []byte(fmt.Sprintf(`{"echo":%q}`, item.Prompt)),
		})
	}
	f.submitted[batchID] = results
	return batchID, nil
}

func (f *fakeProvider) PollBatch(ctx context.Context, batchID string) (bool, []providers.BatchItemResult, error) {
	if !f.pollReady[batchID] {
		return false, nil, nil
	}
	return true, f.submitted[batchID], nil
}

// markReady flips a submitted batch to "done" for the next PollBatch call.
func (f *fakeProvider) markReady(batchID string) {
	f.pollReady[batchID] = true
}
