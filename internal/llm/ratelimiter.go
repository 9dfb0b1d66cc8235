package llm

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// ThrottledProvider spaces out completions with a token bucket shared by all
// callers, so concurrent chunk workers stay under the account's request rate.
type ThrottledProvider struct {
	Provider
	limiter *rate.Limiter
}

// Throttle lets at most rpm completions start per minute through provider.
// The bucket starts full, so up to rpm requests may go out at once.
func Throttle(provider Provider, rpm int) *ThrottledProvider {
	return &ThrottledProvider{
		Provider: provider,
		limiter:  rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), rpm),
	}
}

// Complete waits for a token, then delegates. A context that ends while
// waiting returns its error without calling the provider.
func (t *ThrottledProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%s: waiting for rate limit: %w", t.Name(), err)
	}
	return t.Provider.Complete(ctx, req)
}
