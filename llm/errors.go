package llm

import (
	"errors"
	"fmt"

	"github.com/waivern/wct/llm/providers"
)

// LLMConnectionError reports that a provider call failed for a reason that
// has nothing to do with the request's content: the provider was
// unreachable, refused the connection, or returned a 5xx/unavailable
// response. It wraps the underlying *providers.ProviderError so callers
// that only care about connectivity don't need to know each provider's own
// ErrorKind classification.
type LLMConnectionError struct {
	Provider  string
	Operation string
	cause     error
}

// NewLLMConnectionError constructs an LLMConnectionError.
func NewLLMConnectionError(provider, operation string, cause error) *LLMConnectionError {
	return &LLMConnectionError{Provider: provider, Operation: operation, cause: cause}
}

func (e *LLMConnectionError) Error() string {
	return fmt.Sprintf("%s: %s: connection failed: %v", e.Provider, e.Operation, e.cause)
}

func (e *LLMConnectionError) Unwrap() error { return e.cause }

// AsLLMConnectionError extracts an *LLMConnectionError from err's chain, if
// present.
func AsLLMConnectionError(err error) (*LLMConnectionError, bool) {
	var ce *LLMConnectionError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// classifyConnectionErr wraps err in an *LLMConnectionError when it
// represents an unreachable/unavailable provider, so the DAGExecutor can
// distinguish "the provider is down, retry the run later" from "the
// request itself was rejected". Errors of any other ErrorKind (auth,
// invalid_request, rate_limited) pass through unchanged: those need a
// human or a rate limiter to address, not a reconnection.
func classifyConnectionErr(operation string, err error) error {
	if err == nil {
		return nil
	}
	pe, ok := providers.AsProviderError(err)
	if !ok || pe.Kind() != providers.KindUnavailable {
		return err
	}
	return NewLLMConnectionError(pe.Provider(), operation, err)
}
