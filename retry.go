package metaprompt

import (
	"context"
	"time"
)

const (
	// Raw provider-call retry budget, separate from the round-level retry
	// envelope in the engine.
	providerRetryAttempts = 3
	providerRetryDelay    = time.Second
)

// RetryProvider decorates a Provider with a short fixed-delay retry for
// transient failures. Authentication and invalid-request errors are returned
// immediately; the engine's round-level envelope handles anything that slips
// past this budget.
type RetryProvider struct {
	inner    Provider
	attempts int
	delay    time.Duration
}

// NewRetryProvider wraps inner with the default retry budget.
func NewRetryProvider(inner Provider) *RetryProvider {
	return &RetryProvider{
		inner:    inner,
		attempts: providerRetryAttempts,
		delay:    providerRetryDelay,
	}
}

// GenerateResponse forwards to the wrapped provider, retrying retryable
// failures up to the attempt budget.
func (p *RetryProvider) GenerateResponse(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error) {
	var lastErr error
	for attempt := 0; attempt < p.attempts; attempt++ {
		if attempt > 0 {
			if err := sleep(ctx, p.delay); err != nil {
				return nil, err
			}
		}

		resp, err := p.inner.GenerateResponse(ctx, req)
		if err == nil {
			return resp, nil
		}
		if !IsRetryable(err) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

// Name returns the wrapped provider's identifier.
func (p *RetryProvider) Name() ProviderID {
	return p.inner.Name()
}

// SupportsModel reports whether the wrapped provider supports the model.
func (p *RetryProvider) SupportsModel(model string) bool {
	return p.inner.SupportsModel(model)
}
