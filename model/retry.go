package model

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

// RetryPolicy defines automatic retry configuration for transient generation
// failures.
//
// When an attempt fails, the policy determines whether the failure is
// retryable and how long to wait before the next attempt. Exponential backoff
// with jitter avoids synchronized retry storms against a shared model server.
// Every attempt uses the identical prompt; the prompt is never mutated on
// retry.
type RetryPolicy struct {
	// MaxAttempts is the maximum number of generation attempts, including
	// the initial attempt. Must be >= 1; 1 means no retries.
	MaxAttempts int

	// BaseDelay is the base delay for exponential backoff between attempts.
	// The actual delay is min(BaseDelay * 2^retry, MaxDelay) + jitter.
	BaseDelay time.Duration

	// MaxDelay caps the exponential growth. Must be >= BaseDelay when both
	// are set; 0 means no cap.
	MaxDelay time.Duration

	// AttemptTimeout bounds each individual attempt. Exceeding it counts as
	// a transient failure for retry purposes. 0 disables the per-attempt
	// bound (the request deadline still applies).
	AttemptTimeout time.Duration
}

// Validate checks the policy configuration.
func (p RetryPolicy) Validate() error {
	if p.MaxAttempts < 1 {
		return fmt.Errorf("retry policy: MaxAttempts must be >= 1, got %d", p.MaxAttempts)
	}
	if p.MaxDelay > 0 && p.BaseDelay > 0 && p.MaxDelay < p.BaseDelay {
		return fmt.Errorf("retry policy: MaxDelay %v is less than BaseDelay %v", p.MaxDelay, p.BaseDelay)
	}
	return nil
}

// RetryGenerator wraps a Generator with the retry policy of the generation
// client: transient failures are retried with exponential backoff and jitter,
// non-transient failures surface immediately, and exhausting all attempts
// yields a terminal typed error (CodeTimeout when the last failure was a
// deadline, CodeUnavailable otherwise).
type RetryGenerator struct {
	next   Generator
	policy RetryPolicy
}

// NewRetryGenerator wraps next with the given policy, applying defaults for
// zero-valued fields: 3 attempts, 500ms base delay, 8s delay cap.
func NewRetryGenerator(next Generator, policy RetryPolicy) (*RetryGenerator, error) {
	if next == nil {
		return nil, fmt.Errorf("retry generator: next generator cannot be nil")
	}
	if policy.MaxAttempts == 0 {
		policy.MaxAttempts = 3
	}
	if policy.BaseDelay == 0 {
		policy.BaseDelay = 500 * time.Millisecond
	}
	if policy.MaxDelay == 0 {
		policy.MaxDelay = 8 * time.Second
	}
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	return &RetryGenerator{next: next, policy: policy}, nil
}

// Generate implements Generator.
func (g *RetryGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	var lastErr error

	for attempt := 0; attempt < g.policy.MaxAttempts; attempt++ {
		if attempt > 0 {
			delay := computeBackoff(attempt-1, g.policy.BaseDelay, g.policy.MaxDelay)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return "", &GenError{
					Code:    CodeTimeout,
					Message: "generation abandoned during backoff",
					Cause:   ctx.Err(),
				}
			}
		}

		out, err := g.generateOnce(ctx, prompt)
		if err == nil {
			return out, nil
		}
		lastErr = err

		if !IsRetryable(err) {
			return "", err
		}
	}

	code := CodeUnavailable
	msg := "generation service unavailable"
	if IsTimeout(lastErr) {
		code = CodeTimeout
		msg = "generation timed out"
	}
	return "", &GenError{
		Code:    code,
		Message: fmt.Sprintf("%s after %d attempts", msg, g.policy.MaxAttempts),
		Cause:   lastErr,
	}
}

// generateOnce runs a single bounded attempt. A per-attempt deadline that
// fires while the parent context is still live is classified as transient.
func (g *RetryGenerator) generateOnce(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &GenError{Code: CodeTimeout, Message: "request deadline exceeded", Cause: err}
	}

	attemptCtx := ctx
	cancel := func() {}
	if g.policy.AttemptTimeout > 0 {
		attemptCtx, cancel = context.WithTimeout(ctx, g.policy.AttemptTimeout)
	}
	defer cancel()

	out, err := g.next.Generate(attemptCtx, prompt)
	if err == nil {
		return out, nil
	}

	if attemptCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
		return "", &GenError{
			Code:      CodeTimeout,
			Message:   fmt.Sprintf("attempt exceeded timeout of %v", g.policy.AttemptTimeout),
			Retryable: true,
			Cause:     err,
		}
	}

	return "", err
}

// computeBackoff calculates the delay before the next attempt using
// exponential backoff with jitter:
//
//	delay = min(base * 2^retry, maxDelay) + jitter(0, base)
//
// The jitter randomizes retry timing across concurrent requests.
func computeBackoff(retry int, base, maxDelay time.Duration) time.Duration {
	delay := base * (1 << retry)
	if maxDelay > 0 && delay > maxDelay {
		delay = maxDelay
	}

	var jitter time.Duration
	if base > 0 {
		// Jitter timing is not security sensitive.
		jitter = time.Duration(rand.Int63n(int64(base))) // #nosec G404
	}

	return delay + jitter
}
