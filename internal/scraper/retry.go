package scraper

import (
	"context"
	"log"
	"math/rand"
	"time"
)

const maxBackoffDelay = 60 * time.Second

// RetryExecutor runs a fallible operation with bounded exponential backoff.
// The delay before retry attempt k (k >= 1) is BaseDelay * 2^(k-1), capped
// at one minute, with a small random jitter when Jitter is set. Terminal
// failures (see IsTerminal) are returned immediately without retrying.
type RetryExecutor struct {
	MaxRetries int
	BaseDelay  time.Duration
	Jitter     bool

	// sleep is swapped out in tests to avoid real backoff delays.
	sleep func(ctx context.Context, d time.Duration) error
}

func NewRetryExecutor(maxRetries int, baseDelay time.Duration) RetryExecutor {
	return RetryExecutor{
		MaxRetries: maxRetries,
		BaseDelay:  baseDelay,
		Jitter:     true,
		sleep:      sleepCtx,
	}
}

// Run invokes op up to MaxRetries+1 times. The returned error is always a
// *ScrapeError carrying the last failure; provider is used only for error
// context and logging.
func (r RetryExecutor) Run(ctx context.Context, provider string, op func(ctx context.Context) error) error {
	sleep := r.sleep
	if sleep == nil {
		sleep = sleepCtx
	}

	var lastErr error
	attempts := 0
	for attempt := 0; attempt <= r.MaxRetries; attempt++ {
		attempts++
		lastErr = op(ctx)
		if lastErr == nil {
			if attempt > 0 {
				log.Printf("scraper: %s succeeded on attempt %d", provider, attempt+1)
			}
			return nil
		}
		if IsTerminal(lastErr) {
			break
		}
		if attempt < r.MaxRetries {
			delay := r.delayFor(attempt)
			log.Printf("scraper: %s attempt %d failed (%v), retrying in %s",
				provider, attempt+1, lastErr, delay)
			if err := sleep(ctx, delay); err != nil {
				lastErr = err
				break
			}
		}
	}
	return &ScrapeError{Provider: provider, Attempts: attempts, Err: lastErr}
}

// delayFor returns the backoff delay after failed attempt number `attempt`
// (zero-based): BaseDelay, 2*BaseDelay, 4*BaseDelay, ...
func (r RetryExecutor) delayFor(attempt int) time.Duration {
	delay := r.BaseDelay << uint(attempt)
	if delay > maxBackoffDelay || delay <= 0 {
		delay = maxBackoffDelay
	}
	if r.Jitter {
		delay += time.Duration(rand.Int63n(int64(500 * time.Millisecond)))
	}
	return delay
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
