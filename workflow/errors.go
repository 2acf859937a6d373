package workflow

import "fmt"

// Code classifies terminal pipeline failures for programmatic handling.
type Code string

const (
	// CodeValidation indicates the request input was rejected before any
	// stage ran (empty code, oversized body).
	CodeValidation Code = "VALIDATION"

	// CodeInferenceUnavailable indicates the generation backend could not
	// be reached or kept failing after the client's retries were exhausted.
	CodeInferenceUnavailable Code = "INFERENCE_UNAVAILABLE"

	// CodeInferenceTimeout indicates a deadline expired: either the
	// request-level budget or the client's attempts all timing out.
	CodeInferenceTimeout Code = "INFERENCE_TIMEOUT"

	// CodeMalformedOutput indicates a stage's output could not be shaped
	// into its contract even after re-generation.
	CodeMalformedOutput Code = "MALFORMED_OUTPUT"

	// CodeInternal indicates a bug: an invariant the pipeline maintains
	// was found violated.
	CodeInternal Code = "INTERNAL"
)

// Error is the single terminal error type of a pipeline run. Stage names the
// stage in flight when the failure occurred; empty for pre-stage failures.
type Error struct {
	Code    Code
	Stage   string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Stage != "" {
		return fmt.Sprintf("%s (stage %s): %s", e.Code, e.Stage, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As chains.
func (e *Error) Unwrap() error {
	return e.Cause
}
