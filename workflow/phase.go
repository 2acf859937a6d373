package workflow

// Phase identifies where a run sits in the pipeline's state machine.
// Transitions are strictly forward (Init through Done); any phase may
// transition to Failed, which is terminal.
type Phase int

const (
	PhaseInit Phase = iota
	PhaseAnalyzing
	PhaseFindingIssues
	PhaseGeneratingReport
	PhaseDone
	PhaseFailed
)

// String returns the snake_case phase name used in events and logs.
func (p Phase) String() string {
	switch p {
	case PhaseInit:
		return "init"
	case PhaseAnalyzing:
		return "analyzing"
	case PhaseFindingIssues:
		return "finding_issues"
	case PhaseGeneratingReport:
		return "generating_report"
	case PhaseDone:
		return "done"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}
