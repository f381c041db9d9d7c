// ABOUTME: Exponential backoff between download attempts
// ABOUTME: Context-aware sleep so a cancelled install stops waiting immediately

package fetch

import (
	"context"
	"math"
	"time"
)

const (
	baseBackoff = 250 * time.Millisecond
	maxBackoff  = 8 * time.Second
)

// ExponentialBackoff returns base*2^retry capped at maxBackoff.
func ExponentialBackoff(retry int) time.Duration {
	d := float64(baseBackoff) * math.Pow(2, float64(retry))
	if d > float64(maxBackoff) {
		return maxBackoff
	}
	return time.Duration(d)
}

// NoBackoff retries immediately.
func NoBackoff(int) time.Duration { return 0 }

// sleepWithContext waits for the given duration or until the context is cancelled.
func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
