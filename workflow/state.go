// Package workflow implements the multi-stage code review pipeline: shared
// state, stage contracts, sequential orchestration, and the error taxonomy.
package workflow

// State is the shared review state threaded through the pipeline. Each stage
// reads earlier fields and contributes exactly one of its own; fields are
// never overwritten once populated.
type State struct {
	// Code is the input under review, immutable after validation.
	Code string `json:"code"`

	// Analysis is the analyzer's prose summary.
	Analysis string `json:"analysis,omitempty"`

	// Issues holds the normalized issue list, 1 to 5 entries once present.
	Issues []string `json:"issues,omitempty"`

	// Report is the final synthesized review, the terminal field.
	Report string `json:"report,omitempty"`

	// Truncated records that the input was cut to the size limit before
	// prompt construction. Informational, never fatal.
	Truncated bool `json:"truncated,omitempty"`
}

// Reduce merges a stage's delta into the accumulated state, append-only:
// a field moves from delta to the result only when prev has not populated it.
// Earlier stages' contributions can never be overwritten by later ones.
func Reduce(prev, delta State) State {
	out := prev

	if out.Code == "" {
		out.Code = delta.Code
	}
	if out.Analysis == "" {
		out.Analysis = delta.Analysis
	}
	if len(out.Issues) == 0 {
		out.Issues = delta.Issues
	}
	if out.Report == "" {
		out.Report = delta.Report
	}
	if delta.Truncated {
		out.Truncated = true
	}

	return out
}

// Complete reports whether every stage has contributed its field.
func (s State) Complete() bool {
	return s.Analysis != "" && len(s.Issues) > 0 && s.Report != ""
}
