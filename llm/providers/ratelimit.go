package providers

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// AdaptiveRateLimiter applies an AIMD-style adaptive token bucket in front of
// a Provider. It estimates the token cost of each completion request, blocks
// the caller until capacity is available, and adjusts its effective
// tokens-per-minute budget in response to KindRateLimited signals from the
// wrapped provider: halving on a rate-limit error, creeping back up on every
// success.
type AdaptiveRateLimiter struct {
	mu sync.Mutex

	limiter *rate.Limiter

	currentTPM float64
	minTPM     float64
	maxTPM     float64

	recoveryRate float64
}

// NewAdaptiveRateLimiter constructs an AdaptiveRateLimiter with the given
// tokens-per-minute budget. maxTPM is clamped to initialTPM when zero or
// smaller.
func NewAdaptiveRateLimiter(initialTPM, maxTPM float64) *AdaptiveRateLimiter {
	if initialTPM <= 0 {
		initialTPM = 60000
	}
	if maxTPM <= 0 || maxTPM < initialTPM {
		maxTPM = initialTPM
	}
	minTPM := initialTPM * 0.1
	if minTPM < 1 {
		minTPM = 1
	}
	recoveryRate := initialTPM * 0.05
	if recoveryRate < 1 {
		recoveryRate = 1
	}
	return &AdaptiveRateLimiter{
		limiter:      rate.NewLimiter(rate.Limit(initialTPM/60.0), int(initialTPM)),
		currentTPM:   initialTPM,
		minTPM:       minTPM,
		maxTPM:       maxTPM,
		recoveryRate: recoveryRate,
	}
}

// Wrap returns a Provider that enforces this limiter around next's Complete
// calls. SubmitBatch/PollBatch pass through unmodified: the Message Batches
// APIs have their own provider-side queuing and are not subject to the
// synchronous tokens-per-minute budget.
func (l *AdaptiveRateLimiter) Wrap(next Provider) Provider {
	if next == nil {
		return nil
	}
	return &rateLimitedProvider{next: next, limiter: l}
}

type rateLimitedProvider struct {
	next    Provider
	limiter *AdaptiveRateLimiter
}

var _ Provider = (*rateLimitedProvider)(nil)

func (p *rateLimitedProvider) Name() string         { return p.next.Name() }
func (p *rateLimitedProvider) SupportsBatch() bool   { return p.next.SupportsBatch() }
func (p *rateLimitedProvider) SubmitBatch(ctx context.Context, req BatchSubmitRequest) (string, error) {
	return p.next.SubmitBatch(ctx, req)
}
func (p *rateLimitedProvider) PollBatch(ctx context.Context, batchID string) (bool, []BatchItemResult, error) {
	return p.next.PollBatch(ctx, batchID)
}

func (p *rateLimitedProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	if err := p.limiter.wait(ctx, req); err != nil {
		return nil, err
	}
	resp, err := p.next.Complete(ctx, req)
	p.limiter.observe(err)
	return resp, err
}

func (l *AdaptiveRateLimiter) wait(ctx context.Context, req CompletionRequest) error {
	n := estimateTokens(req)
	if b := l.limiter.Burst(); n > b {
		n = b
	}
	return l.limiter.WaitN(ctx, n)
}

func (l *AdaptiveRateLimiter) observe(err error) {
	if err == nil {
		l.probe()
		return
	}
	if pe, ok := AsProviderError(err); ok && pe.Kind() == KindRateLimited {
		l.backoff()
	}
}

func (l *AdaptiveRateLimiter) backoff() {
	l.mu.Lock()
	defer l.mu.Unlock()
	newTPM := l.currentTPM * 0.5
	if newTPM < l.minTPM {
		newTPM = l.minTPM
	}
	l.setLocked(newTPM)
}

func (l *AdaptiveRateLimiter) probe() {
	l.mu.Lock()
	defer l.mu.Unlock()
	newTPM := l.currentTPM + l.recoveryRate
	if newTPM > l.maxTPM {
		newTPM = l.maxTPM
	}
	l.setLocked(newTPM)
}

func (l *AdaptiveRateLimiter) setLocked(tpm float64) {
	if tpm == l.currentTPM {
		return
	}
	l.currentTPM = tpm
	l.limiter.SetLimit(rate.Limit(tpm / 60.0))
	l.limiter.SetBurst(int(tpm))
}

// CurrentTPM returns the limiter's current effective tokens-per-minute
// budget, for status reporting.
func (l *AdaptiveRateLimiter) CurrentTPM() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.currentTPM
}

// estimateTokens computes a cheap heuristic for the token cost of a
// completion request: roughly one token per three characters of prompt,
// plus a fixed buffer for provider framing and the response schema.
func estimateTokens(req CompletionRequest) int {
	charCount := len(req.Prompt) + len(req.ResponseSchemaJSON)
	if charCount <= 0 {
		return 500
	}
	tokens := charCount / 3
	if tokens < 1 {
		tokens = 1
	}
	return tokens + 500
}
