// Package model provides the generation-client contract and the decorators
// that wrap a provider adapter with retry and concurrency policies.
package model

import (
	"context"
	"errors"
)

// Generator is the narrow contract to the external text-generation service.
//
// Implementations are adapters for specific backends (Ollama, OpenAI-compatible
// endpoints, Anthropic, Google) plus the decorators in this package. All
// implementations must be stateless per request and safe for concurrent use:
// the only state they hold is process-wide configuration (service address,
// model name, temperature) fixed at construction.
//
// Implementations should:
//   - Respect context cancellation and deadlines
//   - Map transport/provider failures to *GenError with an accurate
//     Retryable classification
//   - Never mutate the prompt
type Generator interface {
	// Generate produces raw text for the given prompt, or a typed failure.
	Generate(ctx context.Context, prompt string) (string, error)
}

// Machine-readable error codes for generation failures.
const (
	// CodeTimeout indicates a per-call or request deadline was exceeded.
	CodeTimeout = "timeout"

	// CodeUnavailable indicates the generation service could not be reached
	// (connection refused, DNS failure, reset).
	CodeUnavailable = "unavailable"

	// CodeRateLimited indicates the service rejected the call for throughput
	// reasons (HTTP 429 or provider rate-limit responses).
	CodeRateLimited = "rate_limited"

	// CodeServerError indicates a 5xx-class failure inside the service.
	CodeServerError = "server_error"

	// CodeBadRequest indicates the service rejected the request itself
	// (unknown model, malformed payload). Never retried.
	CodeBadRequest = "bad_request"

	// CodeAPIError is the catch-all for unclassified provider failures.
	CodeAPIError = "api_error"
)

// GenError represents a failure from the generation service, distinguishing
// retryable transient failures from permanent ones.
type GenError struct {
	// Code is the machine-readable error code for programmatic handling.
	Code string

	// Message is the human-readable error message for logging.
	Message string

	// Retryable indicates whether the call can be retried with backoff.
	// True for transient failures (timeouts, connection failures, rate
	// limits, 5xx); false for permanent failures.
	Retryable bool

	// Cause is the underlying transport or SDK error, if any.
	Cause error
}

// Error implements the error interface.
func (e *GenError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *GenError) Unwrap() error {
	return e.Cause
}

// IsRetryable reports whether the error is a transient failure.
func (e *GenError) IsRetryable() bool {
	return e.Retryable
}

// IsRetryable reports whether err should trigger another generation attempt.
// A typed GenError carries its own classification; bare context errors are
// never retryable because the request deadline owns them.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var ge *GenError
	if errors.As(err, &ge) {
		return ge.Retryable
	}
	return false
}

// IsTimeout reports whether err represents a deadline-style failure,
// either a typed CodeTimeout GenError or a raw context deadline error.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ge *GenError
	return errors.As(err, &ge) && ge.Code == CodeTimeout
}
