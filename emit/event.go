package emit

// Event represents an observability event emitted while a review run executes.
//
// Events cover the lifecycle of one request:
//   - Stage execution start/end
//   - Retries of malformed stage output
//   - Input truncation notices
//   - Terminal failures
//
// Events are emitted to an Emitter which can log them, turn them into
// OpenTelemetry spans, or discard them.
type Event struct {
	// RunID identifies the review run that emitted this event.
	RunID string

	// Step is the 1-indexed position of the stage within the run.
	// Zero for run-level events (run_start, run_failed).
	Step int

	// Stage identifies which pipeline stage emitted this event.
	// Empty string for run-level events.
	Stage string

	// Msg is a short machine-friendly event name, e.g. "stage_start".
	Msg string

	// Meta contains additional structured data specific to this event.
	// Common keys:
	//   - "phase": current pipeline phase
	//   - "duration_ms": stage duration in milliseconds
	//   - "error": terminal error description
	//   - "attempt": retry attempt number
	Meta map[string]interface{}
}
