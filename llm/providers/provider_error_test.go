package providers_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waivern/wct/llm/providers"
)

func TestNewProviderErrorPanicsOnEmptyProvider(t *testing.T) {
	assert.Panics(t, func() {
		providers.NewProviderError("", "complete", providers.KindUnknown, "boom", false, nil)
	})
}

func TestNewProviderErrorPanicsOnEmptyKind(t *testing.T) {
	assert.Panics(t, func() {
		providers.NewProviderError("anthropic", "complete", "", "boom", false, nil)
	})
}

func TestProviderErrorUnwrapAndAs(t *testing.T) {
	cause := errors.New("rate limited")
	err := providers.NewProviderError("anthropic", "complete", providers.KindRateLimited, "too many requests", true, cause)

	require.ErrorIs(t, err, cause)

	pe, ok := providers.AsProviderError(err)
	require.True(t, ok)
	assert.Equal(t, providers.KindRateLimited, pe.Kind())
	assert.True(t, pe.Retryable())
	assert.Equal(t, "anthropic", pe.Provider())
}

func TestWithRequestIDAndCodeAreImmutableCopies(t *testing.T) {
	base := providers.NewProviderError("openai", "complete", providers.KindUnknown, "boom", false, nil)
	withID := base.WithRequestID("req-123")

	assert.Empty(t, base.RequestID())
	assert.Equal(t, "req-123", withID.RequestID())

	withCode := base.WithCode("E42")
	assert.NotContains(t, base.Error(), "E42")
	assert.Contains(t, withCode.Error(), "E42")
}
