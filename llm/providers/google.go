package providers

import (
	"context"
	"errors"

	genai "github.com/google/genai"
)

// GoogleModels captures the subset of the genai client used for synchronous
// generation calls.
type GoogleModels interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GoogleProvider implements providers.Provider on top of the Gemini API.
// Gemini's batch prediction API targets Vertex AI batch jobs over GCS
// buckets, a different transport model from Anthropic/OpenAI's inline batch
// submission; wiring it is out of scope (spec.md's Non-goals exclude
// introducing new transport protocols), so this provider is sync-only.
type GoogleProvider struct {
	models GoogleModels
}

// NewGoogleProvider constructs a GoogleProvider.
func NewGoogleProvider(models GoogleModels) (*GoogleProvider, error) {
	if models == nil {
		return nil, errors.New("genai models client is required")
	}
	return &GoogleProvider{models: models}, nil
}

func (p *GoogleProvider) Name() string { return "google" }

func (p *GoogleProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	contents := []*genai.Content{genai.NewContentFromText(req.Prompt, genai.RoleUser)}
	resp, err := p.models.GenerateContent(ctx, req.Model, contents, nil)
	if err != nil {
		return nil, NewProviderError("google", "complete", classifyGoogleErr(err), err.Error(), isGoogleRetryable(err), err)
	}
	text := resp.Text()
	if text == "" {
		return nil, NewProviderError("google", "complete", KindUnknown, "empty response", false, nil)
	}
	return &CompletionResponse{ResponseJSON: []byte(text)}, nil
}

func (p *GoogleProvider) SupportsBatch() bool { return false }

func (p *GoogleProvider) SubmitBatch(ctx context.Context, req BatchSubmitRequest) (string, error) {
	return "", NewProviderError("google", "submit_batch", KindInvalidRequest, ErrBatchUnsupported.Error(), false, ErrBatchUnsupported)
}

func (p *GoogleProvider) PollBatch(ctx context.Context, batchID string) (bool, []BatchItemResult, error) {
	return false, nil, NewProviderError("google", "poll_batch", KindInvalidRequest, ErrBatchUnsupported.Error(), false, ErrBatchUnsupported)
}

func classifyGoogleErr(err error) ErrorKind {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
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

func isGoogleRetryable(err error) bool {
	kind := classifyGoogleErr(err)
	return kind == KindRateLimited || kind == KindUnavailable
}
