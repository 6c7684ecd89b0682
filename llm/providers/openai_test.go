package providers_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/waivern/wct/llm/providers"
)

type fakeOpenAIChat struct {
	resp *sdk.ChatCompletion
	err  error
}

func (f *fakeOpenAIChat) New(ctx context.Context, params sdk.ChatCompletionNewParams, opts ...option.RequestOption) (*sdk.ChatCompletion, error) {
	return f.resp, f.err
}

func TestOpenAIProviderSupportsBatchFalseWithoutBatchesClient(t *testing.T) {
	chat := &fakeOpenAIChat{resp: &sdk.ChatCompletion{
		ID:      "resp-1",
		Choices: []sdk.ChatCompletionChoice{{Message: sdk.ChatCompletionMessage{Content: "hello"}}},
	}}
	p, err := providers.NewOpenAIProvider(chat, nil)
	require.NoError(t, err)

	assert.False(t, p.SupportsBatch())

	_, err = p.SubmitBatch(context.Background(), providers.BatchSubmitRequest{})
	require.Error(t, err)
	assert.ErrorIs(t, err, providers.ErrBatchUnsupported)

	_, _, err = p.PollBatch(context.Background(), "batch-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, providers.ErrBatchUnsupported)
}

func TestOpenAIProviderCompleteExtractsText(t *testing.T) {
	chat := &fakeOpenAIChat{resp: &sdk.ChatCompletion{
		ID:      "resp-1",
		Choices: []sdk.ChatCompletionChoice{{Message: sdk.ChatCompletionMessage{Content: "hello world"}}},
	}}
	p, err := providers.NewOpenAIProvider(chat, nil)
	require.NoError(t, err)

	resp, err := p.Complete(context.Background(), providers.CompletionRequest{Model: "gpt-5", Prompt: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(resp.ResponseJSON))
}

func TestOpenAIProviderCompleteWrapsError(t *testing.T) {
	chat := &fakeOpenAIChat{err: errors.New("boom")}
	p, err := providers.NewOpenAIProvider(chat, nil)
	require.NoError(t, err)

	_, err = p.Complete(context.Background(), providers.CompletionRequest{Model: "gpt-5", Prompt: "hi"})
	require.Error(t, err)

	pe, ok := providers.AsProviderError(err)
	require.True(t, ok)
	assert.Equal(t, "openai", pe.Provider())
}
