package api

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"
)

// RetryPolicy controls how idempotent reads (query, balance, receipt, gas
// estimate) are repeated after transient failures. Deployments and
// transactions are never retried.
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	// Jitter scales each delay by a random factor in [1-Jitter, 1+Jitter].
	Jitter float64
}

// DefaultRetryPolicy performs a single attempt.
var DefaultRetryPolicy = RetryPolicy{
	MaxRetries: 0,
	BaseDelay:  250 * time.Millisecond,
	MaxDelay:   2 * time.Second,
	Jitter:     0.25,
}

func (p RetryPolicy) normalized() RetryPolicy {
	if p.MaxRetries < 0 {
		p.MaxRetries = 0
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = DefaultRetryPolicy.BaseDelay
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = DefaultRetryPolicy.MaxDelay
	}
	if p.MaxDelay < p.BaseDelay {
		p.MaxDelay = p.BaseDelay
	}
	if p.Jitter < 0 {
		p.Jitter = 0
	}
	if p.Jitter > 1 {
		p.Jitter = 1
	}
	return p
}

// backoff implements exponential backoff with optional jitter.
type backoff struct {
	base   time.Duration
	max    time.Duration
	jitter float64

	mu   sync.Mutex
	rand *rand.Rand
}

func newBackoff(p RetryPolicy) *backoff {
	return &backoff{
		base:   p.BaseDelay,
		max:    p.MaxDelay,
		jitter: p.Jitter,
		rand:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// forAttempt returns the delay before retry number attempt (0-indexed).
func (b *backoff) forAttempt(attempt int) time.Duration {
	delay := b.base
	if attempt > 0 {
		scaled := float64(b.base) * math.Pow(2, float64(attempt))
		if scaled >= float64(b.max) {
			delay = b.max
		} else {
			delay = time.Duration(scaled)
		}
	}
	return b.addJitter(delay)
}

func (b *backoff) addJitter(delay time.Duration) time.Duration {
	if b.jitter == 0 || delay <= 0 {
		return delay
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	factor := 1 + (b.rand.Float64()*2-1)*b.jitter
	return time.Duration(float64(delay) * factor)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
