package workflow

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dshills/reviewflow/normalize"
)

// Stage names, stable identifiers used in events, metrics, and errors.
const (
	StageAnalyzer        = "analyzer"
	StageIssueFinder     = "issue_finder"
	StageReportGenerator = "report_generator"
)

// MinIssues is the lower bound of the issue finder's target range. Fewer
// entries are accepted but flagged via an event; zero is malformed.
const MinIssues = 3

var (
	errEmptyOutput = errors.New("output empty after normalization")
	errNoIssues    = errors.New("no issue entries after normalization")
)

// Stages returns the pipeline's stage descriptors in execution order:
// analyzer, issue finder, report generator. Each call returns a fresh slice;
// the descriptors themselves are stateless and shared.
func Stages() []Stage {
	return []Stage{
		{
			Name:   StageAnalyzer,
			Phase:  PhaseAnalyzing,
			Prompt: analyzerPrompt,
			Shape:  shapeAnalysis,
		},
		{
			Name:   StageIssueFinder,
			Phase:  PhaseFindingIssues,
			Prompt: issueFinderPrompt,
			Shape:  shapeIssues,
		},
		{
			Name:   StageReportGenerator,
			Phase:  PhaseGeneratingReport,
			Prompt: reportPrompt,
			Shape:  shapeReport,
		},
	}
}

func analyzerPrompt(s State) string {
	return fmt.Sprintf(`Analyse the code briefly:

%s

Focus on: purpose, structure and concerns.
`, s.Code)
}

func issueFinderPrompt(s State) string {
	return fmt.Sprintf(`List 3-5 concrete code issues in the code below.
Output ONLY bullet points starting with "-".
No explanations.

Code:
%s
`, s.Code)
}

func reportPrompt(s State) string {
	return fmt.Sprintf(`Create a code review report:

Analysis: %s

Issues:
%s

Format Summary, Issues, and Recommendation.
`, s.Analysis, strings.Join(s.Issues, "\n"))
}

func shapeAnalysis(raw string) (State, error) {
	text := normalize.Text(raw)
	if text == "" {
		return State{}, errEmptyOutput
	}
	return State{Analysis: text}, nil
}

func shapeIssues(raw string) (State, error) {
	issues := normalize.Issues(raw, normalize.MaxIssues)
	if len(issues) == 0 {
		return State{}, errNoIssues
	}
	return State{Issues: issues}, nil
}

func shapeReport(raw string) (State, error) {
	text := normalize.Text(raw)
	if text == "" {
		return State{}, errEmptyOutput
	}
	return State{Report: text}, nil
}
