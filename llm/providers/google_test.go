package providers_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	genai "github.com/google/genai"

	"github.com/waivern/wct/llm/providers"
)

type fakeGoogleModels struct {
	resp *genai.GenerateContentResponse
	err  error
}

func (f *fakeGoogleModels) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	return f.resp, f.err
}

func TestGoogleProviderIsSyncOnly(t *testing.T) {
	p, err := providers.NewGoogleProvider(&fakeGoogleModels{})
	require.NoError(t, err)

	assert.False(t, p.SupportsBatch())

	_, err = p.SubmitBatch(context.Background(), providers.BatchSubmitRequest{})
	require.Error(t, err)
	assert.ErrorIs(t, err, providers.ErrBatchUnsupported)

	_, _, err = p.PollBatch(context.Background(), "batch-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, providers.ErrBatchUnsupported)
}

func TestNewGoogleProviderRequiresModelsClient(t *testing.T) {
	_, err := providers.NewGoogleProvider(nil)
	assert.Error(t, err)
}
