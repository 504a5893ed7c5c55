package scraper

import "context"

// RateLimiter enforces a per-provider request budget. Allow reports whether
// one more request to the provider fits the current window and, if so,
// consumes budget. Implementations must fail open: when the backing counter
// store is unreachable the answer is true, never a stalled pipeline.
type RateLimiter interface {
	Allow(ctx context.Context, provider string) bool
}

// AllowAll is a RateLimiter that never denies. Used when no counter store
// is configured and in tests.
type AllowAll struct{}

func (AllowAll) Allow(context.Context, string) bool { return true }
