// Package emit provides event emission and observability for review pipeline runs.
package emit

// Emitter receives and processes observability events from pipeline execution.
//
// Implementations should be:
//   - Non-blocking: avoid slowing down the review pipeline
//   - Thread-safe: may be called concurrently from multiple requests
//   - Resilient: handle backend failures without crashing the run
//
// Emit must not panic; errors should be handled internally.
type Emitter interface {
	// Emit sends an observability event to the configured backend.
	Emit(event Event)
}
