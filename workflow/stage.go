package workflow

// Stage describes one pipeline stage: static metadata plus two pure
// functions. Prompt builds the generation prompt from the accumulated state;
// Shape validates and normalizes the raw model output into a delta State
// carrying only the stage's own field.
//
// A Stage holds no mutable fields, so the same descriptors serve every
// concurrent run.
type Stage struct {
	// Name identifies the stage in events, metrics, and error reports.
	Name string

	// Phase is the state-machine phase entered while the stage runs.
	Phase Phase

	// Prompt builds the stage's generation prompt. Must be pure: same
	// state in, same prompt out, so a re-generation after malformed
	// output uses the identical prompt.
	Prompt func(s State) string

	// Shape validates and normalizes raw model output into a delta State.
	// A non-nil error marks the output malformed; the orchestrator may
	// re-generate before giving up.
	Shape func(raw string) (State, error)
}
