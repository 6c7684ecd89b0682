package providers

import (
	"context"
	"errors"
)

// CompletionRequest is a single synchronous completion call.
type CompletionRequest struct {
	Model              string
	Prompt             string
	ResponseSchemaJSON []byte
}

// CompletionResponse is the raw JSON response returned by a provider,
// expected to validate against the requested response schema.
type CompletionResponse struct {
	ResponseJSON []byte
	RequestID    string
}

// BatchSubmitRequest groups several CompletionRequests for asynchronous
// submission to a provider batch API. CustomIDs are caller-assigned and
// echoed back in the poll results, letting BatchResultPoller match
// responses to the cache keys that requested them.
type BatchSubmitRequest struct {
	Model    string
	Items    []BatchItem
}

// BatchItem is one request within a BatchSubmitRequest.
type BatchItem struct {
	CustomID           string
	Prompt             string
	ResponseSchemaJSON []byte
}

// BatchItemResult is one resolved (or failed) item from a polled batch.
type BatchItemResult struct {
	CustomID     string
	ResponseJSON []byte
	Err          error
}

// Provider abstracts one LLM vendor's sync and (optionally) batch APIs.
// Implementations that do not support batch mode return
// ErrBatchUnsupported from SubmitBatch/PollBatch.
type Provider interface {
	// Name identifies the provider for logging and ProviderError
	// attribution (e.g. "anthropic", "openai", "google").
	Name() string

	// Complete performs a synchronous completion call.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// SupportsBatch reports whether SubmitBatch/PollBatch are implemented.
	SupportsBatch() bool

	// SubmitBatch submits a batch of requests asynchronously, returning a
	// provider-assigned batch ID.
	SubmitBatch(ctx context.Context, req BatchSubmitRequest) (batchID string, err error)

	// PollBatch checks the status of a previously submitted batch. done is
	// false while the batch is still running; once done is true, results
	// contains one BatchItemResult per submitted item (in any order).
	PollBatch(ctx context.Context, batchID string) (done bool, results []BatchItemResult, err error)
}

// ErrBatchUnsupported is the cause wrapped into a ProviderError by
// providers with no batch API (e.g. the Google provider in this module).
var ErrBatchUnsupported = errors.New("provider does not support batch mode")
