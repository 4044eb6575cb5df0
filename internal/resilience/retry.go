// Package resilience provides the retry executor and error classification
// used around every outbound provider call.
package resilience

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
)

// RetryConfig controls retry behavior with full-jitter exponential backoff.
type RetryConfig struct {
	// MaxAttempts bounds the total number of calls, the first try included.
	// 1 disables retries entirely. Default: 3.
	MaxAttempts int

	// BaseDelay is the backoff unit. The sleep before retry k is drawn
	// uniformly from [0, BaseDelay * 2^(k-1)). Default: 500ms.
	BaseDelay time.Duration

	// MaxDelay caps the backoff ceiling. Default: 30s.
	MaxDelay time.Duration

	// ShouldRetry decides whether an error is worth another attempt.
	// Nil means IsTransient.
	ShouldRetry func(err error) bool

	// OnRetry is called before each backoff sleep.
	OnRetry func(attempt int, delay time.Duration, err error)
}

// DefaultRetryConfig returns the retry settings used for provider calls.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    30 * time.Second,
	}
}

// Do runs fn under cfg's retry policy. Only transient errors are retried;
// client errors surface immediately since repeating the call cannot help.
// A canceled context stops retries both between attempts and mid-sleep.
func Do(ctx context.Context, cfg RetryConfig, fn func(ctx context.Context) error) error {
	_, err := DoVal(ctx, cfg, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// DoVal is Do for functions that return a value alongside the error.
func DoVal[T any](ctx context.Context, cfg RetryConfig, fn func(ctx context.Context) (T, error)) (T, error) {
	cfg = applyDefaults(cfg)

	shouldRetry := cfg.ShouldRetry
	if shouldRetry == nil {
		shouldRetry = IsTransient
	}

	var zero T
	attempt := 0
	for {
		val, err := fn(ctx)
		if err == nil {
			return val, nil
		}

		attempt++
		retriable := ctx.Err() == nil && shouldRetry(err)
		if !retriable || attempt >= cfg.MaxAttempts {
			return zero, err
		}

		delay := fullJitterBackoff(attempt-1, cfg)
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, delay, err)
		}
		if !sleep(ctx, delay) {
			return zero, err
		}
	}
}

// sleep blocks for d or until ctx is done, reporting whether the full
// duration elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func applyDefaults(cfg RetryConfig) RetryConfig {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = 500 * time.Millisecond
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = 30 * time.Second
	}
	return cfg
}

// fullJitterBackoff draws the sleep before the retry that follows attempt
// (0-based) uniformly from [0, min(BaseDelay*2^attempt, MaxDelay)). Full
// jitter keeps concurrent callers from retrying in lockstep.
func fullJitterBackoff(attempt int, cfg RetryConfig) time.Duration {
	ceiling := float64(cfg.BaseDelay) * math.Pow(2, float64(attempt))
	if ceiling > float64(cfg.MaxDelay) {
		ceiling = float64(cfg.MaxDelay)
	}
	return time.Duration(rand.Float64() * ceiling)
}

// RetryLogger returns an OnRetry callback that logs each retry attempt.
func RetryLogger(service, operation string) func(int, time.Duration, error) {
	return func(attempt int, delay time.Duration, err error) {
		zap.L().Warn("retrying operation",
			zap.String("service", service),
			zap.String("operation", operation),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", delay),
			zap.Error(err),
		)
	}
}
