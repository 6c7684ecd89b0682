package providers

import (
	"context"
	"errors"
	"fmt"

	sdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIChat captures the subset of the openai-go client used for
// synchronous completions.
type OpenAIChat interface {
	New(ctx context.Context, params sdk.ChatCompletionNewParams, opts ...option.RequestOption) (*sdk.ChatCompletion, error)
}

// OpenAIBatches captures the Batch API surface used for asynchronous
// submission/polling.
type OpenAIBatches interface {
	New(ctx context.Context, body sdk.BatchNewParams, opts ...option.RequestOption) (*sdk.Batch, error)
	Get(ctx context.Context, batchID string, opts ...option.RequestOption) (*sdk.Batch, error)
}

// OpenAIProvider implements providers.Provider on top of OpenAI's Chat
// Completions API (sync only). It holds a Batch API client but does not
// submit or poll batches through it.
type OpenAIProvider struct {
	chat    OpenAIChat
	batches OpenAIBatches
}

// NewOpenAIProvider constructs an OpenAIProvider. batches may be nil;
// SupportsBatch reports false either way.
func NewOpenAIProvider(chat OpenAIChat, batches OpenAIBatches) (*OpenAIProvider, error) {
	if chat == nil {
		return nil, errors.New("openai chat client is required")
	}
	return &OpenAIProvider{chat: chat, batches: batches}, nil
}

func (p *OpenAIProvider) Name() string { return "openai" }

func (p *OpenAIProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	params := sdk.ChatCompletionNewParams{
		Model: req.Model,
		Messages: []sdk.ChatCompletionMessageParamUnion{
			sdk.UserMessage(req.Prompt),
		},
	}
	resp, err := p.chat.New(ctx, params)
	if err != nil {
		return nil, wrapOpenAIErr("complete", err)
	}
	if len(resp.Choices) == 0 {
		return nil, NewProviderError("openai", "complete", KindUnknown, "no choices in response", false, nil)
	}
	return &CompletionResponse{
		ResponseJSON: []byte(resp.Choices[0].Message.Content),
		RequestID:    resp.ID,
	}, nil
}

func (p *OpenAIProvider) SupportsBatch() bool { return false }

// SubmitBatch always returns ErrBatchUnsupported: the OpenAI Batch API takes
// a pre-uploaded JSONL file of requests, and this provider has no
// file-upload step. PollBatch likewise returns ErrBatchUnsupported.
func (p *OpenAIProvider) SubmitBatch(ctx context.Context, req BatchSubmitRequest) (string, error) {
	return "", NewProviderError("openai", "submit_batch", KindInvalidRequest, ErrBatchUnsupported.Error(), false, ErrBatchUnsupported)
}

func (p *OpenAIProvider) PollBatch(ctx context.Context, batchID string) (bool, []BatchItemResult, error) {
	return false, nil, NewProviderError("openai", "poll_batch", KindInvalidRequest, ErrBatchUnsupported.Error(), false, ErrBatchUnsupported)
}

func wrapOpenAIErr(op string, err error) error {
	var apiErr *sdk.Error
	kind := KindUnknown
	retryable := false
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case 401, 403:
			kind = KindAuth
		case 429:
			kind = KindRateLimited
			retryable = true
		case 400, 422:
			kind = KindInvalidRequest
		case 500, 502, 503, 504:
			kind = KindUnavailable
			retryable = true
		}
	}
	return NewProviderError("openai", op, kind, fmt.Sprint(err), retryable, err)
}
