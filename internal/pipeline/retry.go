package pipeline

import (
	"math/rand"
	"time"
)

// RetryPolicy defines per-stage retry behavior with exponential backoff.
// The budgets are independent: exhausting one stage's budget never consumes
// the other's.
type RetryPolicy struct {
	MaxAttempts       int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64
}

// FetchRetryPolicy is the retry budget for the fetch stage
func FetchRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		MaxAttempts:       5,
		InitialBackoff:    60 * time.Second,
		MaxBackoff:        30 * time.Minute,
		BackoffMultiplier: 2.0,
	}
}

// ExtractRetryPolicy is the retry budget for the extraction stage
func ExtractRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		MaxAttempts:       3,
		InitialBackoff:    120 * time.Second,
		MaxBackoff:        30 * time.Minute,
		BackoffMultiplier: 2.0,
	}
}

// ShouldRetry reports whether another attempt fits the budget. attemptsUsed
// counts attempts already consumed, including the one that just failed.
func (p *RetryPolicy) ShouldRetry(attemptsUsed int) bool {
	return attemptsUsed < p.MaxAttempts
}

// CalculateBackoff calculates the delay before the given retry attempt with
// exponential backoff and ±25% jitter. attempt is zero-based.
func (p *RetryPolicy) CalculateBackoff(attempt int) time.Duration {
	backoff := float64(p.InitialBackoff)
	for i := 0; i < attempt; i++ {
		backoff *= p.BackoffMultiplier
	}
	if backoff > float64(p.MaxBackoff) {
		backoff = float64(p.MaxBackoff)
	}

	jitter := backoff * 0.25 * (rand.Float64()*2 - 1)
	backoff += jitter

	if backoff < 0 {
		backoff = float64(p.InitialBackoff)
	}

	return time.Duration(backoff)
}
