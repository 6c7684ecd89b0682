package providers_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waivern/wct/llm/providers"
)

type fakeProvider struct {
	name          string
	err           error
	calls         int
	supportsBatch bool
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Complete(ctx context.Context, req providers.CompletionRequest) (*providers.CompletionResponse, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &providers.CompletionResponse{ResponseJSON: []byte(`{}`)}, nil
}

func (f *fakeProvider) SupportsBatch() bool { return f.supportsBatch }

func (f *fakeProvider) SubmitBatch(ctx context.Context, req providers.BatchSubmitRequest) (string, error) {
	return "batch-1", nil
}

func (f *fakeProvider) PollBatch(ctx context.Context, batchID string) (bool, []providers.BatchItemResult, error) {
	return true, nil, nil
}

func TestAdaptiveRateLimiterWrapPassesCallsThrough(t *testing.T) {
	fake := &fakeProvider{name: "fake"}
	limiter := providers.NewAdaptiveRateLimiter(60000, 60000)
	wrapped := limiter.Wrap(fake)

	resp, err := wrapped.Complete(context.Background(), providers.CompletionRequest{Prompt: "hello"})
	require.NoError(t, err)
	assert.Equal(t, []byte(`{}`), resp.ResponseJSON)
	assert.Equal(t, 1, fake.calls)
	assert.Equal(t, "fake", wrapped.Name())
}

func TestAdaptiveRateLimiterBacksOffOnRateLimitError(t *testing.T) {
	fake := &fakeProvider{
		name: "fake",
		err:  providers.NewProviderError("fake", "complete", providers.KindRateLimited, "slow down", true, nil),
	}
	limiter := providers.NewAdaptiveRateLimiter(1000, 1000)
	wrapped := limiter.Wrap(fake)

	before := limiter.CurrentTPM()
	_, err := wrapped.Complete(context.Background(), providers.CompletionRequest{Prompt: "hi"})
	require.Error(t, err)

	assert.Less(t, limiter.CurrentTPM(), before)
}

func TestAdaptiveRateLimiterProbesUpOnSuccess(t *testing.T) {
	fake := &fakeProvider{name: "fake"}
	limiter := providers.NewAdaptiveRateLimiter(1000, 2000)

	// Force the budget down first so a success has room to probe upward.
	backoffProvider := providers.NewProviderError("fake", "complete", providers.KindRateLimited, "slow down", true, nil)
	failing := &fakeProvider{name: "fake", err: backoffProvider}
	wrappedFailing := limiter.Wrap(failing)
	_, _ = wrappedFailing.Complete(context.Background(), providers.CompletionRequest{Prompt: "hi"})
	reduced := limiter.CurrentTPM()

	wrapped := limiter.Wrap(fake)
	_, err := wrapped.Complete(context.Background(), providers.CompletionRequest{Prompt: "hi"})
	require.NoError(t, err)

	assert.Greater(t, limiter.CurrentTPM(), reduced)
}

func TestAdaptiveRateLimiterWrapNilReturnsNil(t *testing.T) {
	limiter := providers.NewAdaptiveRateLimiter(100, 100)
	assert.Nil(t, limiter.Wrap(nil))
}
