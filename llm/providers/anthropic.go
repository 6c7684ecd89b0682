package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicMessages captures the subset of the Anthropic SDK used by the
// adapter, so callers can inject a fake in tests instead of a live client.
type AnthropicMessages interface {
	New(ctx context.Context, body sdk.MessageNewParams, opts ...option.RequestOption) (*sdk.Message, error)
}

// AnthropicBatches captures the Message Batches API surface used for
// asynchronous batch submission/polling.
type AnthropicBatches interface {
	New(ctx context.Context, body sdk.MessageBatchNewParams, opts ...option.RequestOption) (*sdk.MessageBatch, error)
	Get(ctx context.Context, batchID string, opts ...option.RequestOption) (*sdk.MessageBatch, error)
	ResultsStreaming(ctx context.Context, batchID string, opts ...option.RequestOption) *sdk.MessageBatchIndividualResponse
}

// AnthropicProvider implements providers.Provider on top of Claude's
// Messages API (sync) and Message Batches API (async).
type AnthropicProvider struct {
	messages AnthropicMessages
	batches  AnthropicBatches
	maxTok   int
}

// NewAnthropicProvider constructs an AnthropicProvider. batches may be nil,
// in which case SupportsBatch reports false.
func NewAnthropicProvider(messages AnthropicMessages, batches AnthropicBatches, maxTokens int) (*AnthropicProvider, error) {
	if messages == nil {
		return nil, errors.New("anthropic messages client is required")
	}
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	return &AnthropicProvider{messages: messages, batches: batches, maxTok: maxTokens}, nil
}

func (p *AnthropicProvider) Name() string { return "anthropic" }

func (p *AnthropicProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	params := sdk.MessageNewParams{
		Model:     sdk.Model(req.Model),
		MaxTokens: int64(p.maxTok),
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(req.Prompt)),
		},
	}
	msg, err := p.messages.New(ctx, params)
	if err != nil {
		return nil, wrapAnthropicErr("complete", err)
	}
	text, err := extractAnthropicText(msg)
	if err != nil {
		return nil, NewProviderError("anthropic", "complete", KindUnknown, err.Error(), false, err)
	}
	return &CompletionResponse{ResponseJSON: []byte(text), RequestID: msg.ID}, nil
}

func (p *AnthropicProvider) SupportsBatch() bool { return p.batches != nil }

func (p *AnthropicProvider) SubmitBatch(ctx context.Context, req BatchSubmitRequest) (string, error) {
	if p.batches == nil {
		return "", NewProviderError("anthropic", "submit_batch", KindInvalidRequest, ErrBatchUnsupported.Error(), false, ErrBatchUnsupported)
	}
	entries := make([]sdk.MessageBatchNewParamsRequest, 0, len(req.Items))
	for _, item := range req.Items {
		entries = append(entries, sdk.MessageBatchNewParamsRequest{
			CustomID: item.CustomID,
			Params: sdk.MessageBatchNewParamsRequestParams{
				Model:     sdk.Model(req.Model),
				MaxTokens: int64(p.maxTok),
				Messages: []sdk.MessageParam{
					sdk.NewUserMessage(sdk.NewTextBlock(item.Prompt)),
				},
			},
		})
	}
	batch, err := p.batches.New(ctx, sdk.MessageBatchNewParams{Requests: entries})
	if err != nil {
		return "", wrapAnthropicErr("submit_batch", err)
	}
	return batch.ID, nil
}

func (p *AnthropicProvider) PollBatch(ctx context.Context, batchID string) (bool, []BatchItemResult, error) {
	if p.batches == nil {
		return false, nil, NewProviderError("anthropic", "poll_batch", KindInvalidRequest, ErrBatchUnsupported.Error(), false, ErrBatchUnsupported)
	}
	batch, err := p.batches.Get(ctx, batchID)
	if err != nil {
		return false, nil, wrapAnthropicErr("poll_batch", err)
	}
	if batch.ProcessingStatus != sdk.MessageBatchProcessingStatusEnded {
		return false, nil, nil
	}

	stream := p.batches.ResultsStreaming(ctx, batchID)
	var results []BatchItemResult
	for stream.Next() {
		entry := stream.Current()
		if entry.Result.Type == sdk.MessageBatchIndividualResponseResultTypeSucceeded {
			text, err := extractAnthropicText(&entry.Result.Message)
			if err != nil {
				results = append(results, BatchItemResult{CustomID: entry.CustomID, Err: err})
				continue
			}
			results = append(results, BatchItemResult{CustomID: entry.CustomID, ResponseJSON: []byte(text)})
		} else {
			results = append(results, BatchItemResult{
				CustomID: entry.CustomID,
				Err:      fmt.Errorf("batch item %s failed: %s", entry.CustomID, entry.Result.Type),
			})
		}
	}
	if err := stream.Err(); err != nil {
		return false, nil, wrapAnthropicErr("poll_batch_results", err)
	}
	return true, results, nil
}

func extractAnthropicText(msg *sdk.Message) (string, error) {
	for _, block := range msg.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("no text content block in anthropic response")
}

func wrapAnthropicErr(op string, err error) error {
	var raw json.RawMessage
	_ = raw
	return NewProviderError("anthropic", op, classifyAnthropicErr(err), err.Error(), isAnthropicRetryable(err), err)
}

func classifyAnthropicErr(err error) ErrorKind {
	var apiErr *sdk.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case 401, 403:
			return KindAuth
		case 429:
			return KindRateLimited
		case 400, 422:
			return KindInvalidRequest
		case 500, 502, 503, 504:
			return KindUnavailable
		}
	}
	return KindUnknown
}

func isAnthropicRetryable(err error) bool {
	kind := classifyAnthropicErr(err)
	return kind == KindRateLimited || kind == KindUnavailable
}
