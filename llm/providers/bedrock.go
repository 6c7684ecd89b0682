package providers

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	smithy "github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"
)

// BedrockRuntime mirrors the subset of *bedrockruntime.Client the adapter
// needs, so callers can pass either the real client or a mock in tests.
type BedrockRuntime interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

// BedrockProvider implements providers.Provider on top of the AWS Bedrock
// Converse API. Bedrock's batch inference is a separate asynchronous job API
// keyed on S3 input/output manifests rather than the inline submit/poll shape
// SubmitBatch/PollBatch expect, so this provider is sync-only, matching the
// Google provider's treatment of its own mismatched batch transport.
type BedrockProvider struct {
	runtime BedrockRuntime
}

// NewBedrockProvider constructs a BedrockProvider.
func NewBedrockProvider(runtime BedrockRuntime) (*BedrockProvider, error) {
	if runtime == nil {
		return nil, errors.New("bedrock runtime client is required")
	}
	return &BedrockProvider{runtime: runtime}, nil
}

func (p *BedrockProvider) Name() string { return "bedrock" }

func (p *BedrockProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	input := &bedrockruntime.ConverseInput{
		ModelId: aws.String(req.Model),
		Messages: []brtypes.Message{
			{
				Role:    brtypes.ConversationRoleUser,
				Content: []brtypes.ContentBlock{&brtypes.ContentBlockMemberText{Value: req.Prompt}},
			},
		},
	}
	if len(req.ResponseSchemaJSON) > 0 {
		input.System = []brtypes.SystemContentBlock{
			&brtypes.SystemContentBlockMemberText{Value: responseSchemaInstruction(req.ResponseSchemaJSON)},
		}
	}

	output, err := p.runtime.Converse(ctx, input)
	if err != nil {
		kind := classifyBedrockErr(err)
		return nil, NewProviderError("bedrock", "complete", kind, err.Error(), kind == KindRateLimited || kind == KindUnavailable, err)
	}

	msg, ok := output.Output.(*brtypes.ConverseOutputMemberMessage)
	if !ok {
		return nil, NewProviderError("bedrock", "complete", KindUnknown, "response did not contain a message", false, nil)
	}
	for _, block := range msg.Value.Content {
		if text, ok := block.(*brtypes.ContentBlockMemberText); ok && text.Value != "" {
			return &CompletionResponse{ResponseJSON: []byte(text.Value)}, nil
		}
	}
	return nil, NewProviderError("bedrock", "complete", KindUnknown, "empty response", false, nil)
}

func (p *BedrockProvider) SupportsBatch() bool { return false }

func (p *BedrockProvider) SubmitBatch(ctx context.Context, req BatchSubmitRequest) (string, error) {
	return "", NewProviderError("bedrock", "submit_batch", KindInvalidRequest, ErrBatchUnsupported.Error(), false, ErrBatchUnsupported)
}

func (p *BedrockProvider) PollBatch(ctx context.Context, batchID string) (bool, []BatchItemResult, error) {
	return false, nil, NewProviderError("bedrock", "poll_batch", KindInvalidRequest, ErrBatchUnsupported.Error(), false, ErrBatchUnsupported)
}

// responseSchemaInstruction asks the model to answer with JSON matching
// schemaJSON. Bedrock's Converse API has no native structured-output mode
// across all model families, so the contract is enforced the same way the
// rest of this module enforces it against providers without one: a system
// prompt plus downstream schema validation of the returned JSON.
func responseSchemaInstruction(schemaJSON []byte) string {
	return fmt.Sprintf("Respond with a single JSON value matching this JSON Schema, with no surrounding prose:\n%s", schemaJSON)
}

// classifyBedrockErr maps a Bedrock Converse error into an ErrorKind,
// treating both HTTP 429 responses and provider throttling codes as
// rate-limited, mirroring the Converse adapter's own rate-limit detection.
func classifyBedrockErr(err error) ErrorKind {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "ThrottlingException", "TooManyRequestsException":
			return KindRateLimited
		case "AccessDeniedException", "UnrecognizedClientException":
			return KindAuth
		case "ValidationException":
			return KindInvalidRequest
		case "ServiceUnavailableException", "InternalServerException", "ModelTimeoutException":
			return KindUnavailable
		}
	}
	var respErr *smithyhttp.ResponseError
	if errors.As(err, &respErr) {
		switch respErr.HTTPStatusCode() {
		case 429:
			return KindRateLimited
		case 401, 403:
			return KindAuth
		case 400, 422:
			return KindInvalidRequest
		case 500, 502, 503, 504:
			return KindUnavailable
		}
	}
	return KindUnknown
}
