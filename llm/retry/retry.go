// Package retry holds the single parameterized retry policy shared by
// every operation variant: bounded attempts, exponential backoff with
// jitter, and a retryable-error predicate.
package retry

import (
	"context"
	"math"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/llmkit-go/llmkit/llm"
)

// Policy configures retry behavior.
type Policy struct {
	MaxRetries   int           `json:"max_retries" yaml:"max_retries"`     // retries after the first attempt, default 3
	InitialDelay time.Duration `json:"initial_delay" yaml:"initial_delay"` // default 1s
	MaxDelay     time.Duration `json:"max_delay" yaml:"max_delay"`         // default 30s
	Multiplier   float64       `json:"multiplier" yaml:"multiplier"`       // default 2.0
	Jitter       bool          `json:"jitter" yaml:"jitter"`               // ±25% randomization
}

// DefaultPolicy returns the defaults used by the transport: 3 retries,
// 1s base delay doubling up to 30s, with jitter.
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries:   3,
		InitialDelay: time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
		Jitter:       true,
	}
}

// normalized returns a copy with zero or nonsensical fields replaced by
// defaults.
func (p Policy) normalized() Policy {
	if p.MaxRetries < 0 {
		p.MaxRetries = 0
	}
	if p.InitialDelay <= 0 {
		p.InitialDelay = time.Second
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = 30 * time.Second
	}
	if p.Multiplier < 1.0 {
		p.Multiplier = 2.0
	}
	return p
}

// Delay computes the backoff before retry attempt n (n >= 1):
// initial * multiplier^(n-1), capped at MaxDelay, with optional ±25%
// jitter to avoid synchronized client stampedes. The result never drops
// below InitialDelay.
func (p Policy) Delay(attempt int) time.Duration {
	p = p.normalized()

	delay := float64(p.InitialDelay) * math.Pow(p.Multiplier, float64(attempt-1))
	if delay > float64(p.MaxDelay) {
		delay = float64(p.MaxDelay)
	}
	if p.Jitter {
		jitter := delay * 0.25
		delay += (rand.Float64()*2 - 1) * jitter
	}
	if delay < float64(p.InitialDelay) {
		delay = float64(p.InitialDelay)
	}
	return time.Duration(delay)
}

// Do runs fn up to MaxRetries+1 times, sleeping per Delay between
// attempts and honoring ctx cancellation. Only errors for which
// llm.IsRetryable reports true are retried; anything else is returned
// immediately. attempt is 1-based in the callback.
func Do[T any](ctx context.Context, p Policy, logger *zap.Logger, fn func(attempt int) (T, error)) (T, error) {
	p = p.normalized()
	if logger == nil {
		logger = zap.NewNop()
	}

	var zero T
	var lastErr error
	for attempt := 1; attempt <= p.MaxRetries+1; attempt++ {
		if attempt > 1 {
			delay := p.Delay(attempt - 1)
			logger.Debug("retrying",
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", p.MaxRetries+1),
				zap.Duration("delay", delay),
				zap.Error(lastErr))
			select {
			case <-ctx.Done():
				return zero, llm.Transportf(ctx.Err(), "retry canceled: %v", ctx.Err())
			case <-time.After(delay):
			}
		}

		result, err := fn(attempt)
		if err == nil {
			if attempt > 1 {
				logger.Info("retry succeeded", zap.Int("attempt", attempt))
			}
			return result, nil
		}
		lastErr = err

		if !llm.IsRetryable(err) {
			return zero, err
		}
	}

	logger.Warn("retries exhausted",
		zap.Int("attempts", p.MaxRetries+1),
		zap.Error(lastErr))
	return zero, lastErr
}
