// internal/interpreter/retry.go
package interpreter

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// RetryConfig bounds how long and how often a completion is attempted.
type RetryConfig struct {
	MaxAttempts  int
	Timeout      time.Duration // per attempt; zero means no per-attempt limit
	Delay        time.Duration
	JitterFactor float64 // 0.0-1.0
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  2,
		Timeout:      90 * time.Second,
		Delay:        500 * time.Millisecond,
		JitterFactor: 0.2,
	}
}

// Retrying wraps a Completer with a per-attempt timeout and retries on transient
// failures. A stream is never retried once a delta has reached the caller.
type Retrying struct {
	next   Completer
	cfg    RetryConfig
	logger *logrus.Logger
}

func NewRetrying(next Completer, cfg RetryConfig, logger *logrus.Logger) *Retrying {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	return &Retrying{next: next, cfg: cfg, logger: logger}
}

func (r *Retrying) Complete(ctx context.Context, p Prompt) (string, error) {
	return r.do(ctx, func(ctx context.Context) (string, bool, error) {
		text, err := r.next.Complete(ctx, p)
		if err == nil && strings.TrimSpace(text) == "" {
			err = errEmptyCompletion
		}
		return text, false, err
	})
}

func (r *Retrying) CompleteStream(ctx context.Context, p Prompt, onDelta DeltaFunc) (string, error) {
	sc, ok := r.next.(StreamCompleter)
	if !ok {
		text, err := r.Complete(ctx, p)
		if err != nil {
			return "", err
		}
		return text, onDelta(text)
	}

	return r.do(ctx, func(ctx context.Context) (string, bool, error) {
		emitted := false
		text, err := sc.CompleteStream(ctx, p, func(s string) error {
			emitted = true
			return onDelta(s)
		})
		if err == nil && !emitted && strings.TrimSpace(text) == "" {
			err = errEmptyCompletion
		}
		return text, emitted, err
	})
}

func (r *Retrying) do(ctx context.Context, fn func(context.Context) (string, bool, error)) (string, error) {
	for attempt := 1; ; attempt++ {
		actx, cancel := ctx, context.CancelFunc(func() {})
		if r.cfg.Timeout > 0 {
			actx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
		}
		text, emitted, err := fn(actx)
		cancel()
		if err == nil {
			return text, nil
		}

		if ctx.Err() != nil || emitted || attempt >= r.cfg.MaxAttempts || !isRetryable(err) {
			return "", err
		}

		delay := applyJitter(r.cfg.Delay, r.cfg.JitterFactor)
		r.logger.WithFields(logrus.Fields{
			"attempt": attempt,
			"delay":   delay,
			"error":   err,
		}).Warn("completion failed, retrying")

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}

func applyJitter(delay time.Duration, factor float64) time.Duration {
	if factor <= 0 || delay <= 0 {
		return delay
	}
	jitter := float64(delay) * factor * (rand.Float64()*2 - 1)
	return time.Duration(float64(delay) + jitter)
}

var retryablePatterns = []string{
	"connection refused",
	"connection reset",
	"broken pipe",
	"no such host",
	"timeout",
	"timed out",
	"temporary failure",
	"rate limit",
	"too many requests",
	"overloaded",
	"service unavailable",
}

// isRetryable reports whether err is worth another attempt. The caller has already
// checked that the parent context is still live, so a deadline here is the
// per-attempt timeout.
func isRetryable(err error) bool {
	var r interface{ IsRetryable() bool }
	if errors.As(err, &r) {
		return r.IsRetryable()
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, errEmptyCompletion) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, pattern := range retryablePatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}
