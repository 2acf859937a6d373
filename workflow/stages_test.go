package workflow

import (
	"strings"
	"testing"
)

func TestStages_OrderAndPhases(t *testing.T) {
	stages := Stages()
	if len(stages) != 3 {
		t.Fatalf("expected 3 stages, got %d", len(stages))
	}

	want := []struct {
		name  string
		phase Phase
	}{
		{StageAnalyzer, PhaseAnalyzing},
		{StageIssueFinder, PhaseFindingIssues},
		{StageReportGenerator, PhaseGeneratingReport},
	}

	for i, w := range want {
		if stages[i].Name != w.name {
			t.Errorf("stage %d: expected name %q, got %q", i, w.name, stages[i].Name)
		}
		if stages[i].Phase != w.phase {
			t.Errorf("stage %d: expected phase %v, got %v", i, w.phase, stages[i].Phase)
		}
	}
}

func TestPrompts_ArePureAndUseState(t *testing.T) {
	state := State{
		Code:     "func main() {}",
		Analysis: "a small entry point",
		Issues:   []string{"Issue 1: no error handling"},
	}

	for _, stage := range Stages() {
		first := stage.Prompt(state)
		second := stage.Prompt(state)
		if first != second {
			t.Errorf("stage %s: prompt not deterministic", stage.Name)
		}
	}

	if !strings.Contains(analyzerPrompt(state), state.Code) {
		t.Error("analyzer prompt missing code")
	}
	if !strings.Contains(issueFinderPrompt(state), state.Code) {
		t.Error("issue finder prompt missing code")
	}
	report := reportPrompt(state)
	if !strings.Contains(report, state.Analysis) {
		t.Error("report prompt missing analysis")
	}
	if !strings.Contains(report, "Issue 1: no error handling") {
		t.Error("report prompt missing issues")
	}
}

func TestShapeAnalysis(t *testing.T) {
	delta, err := shapeAnalysis("```\nThe code parses input.\n```")
	if err != nil {
		t.Fatalf("shapeAnalysis: %v", err)
	}
	if delta.Analysis != "The code parses input." {
		t.Errorf("unexpected analysis: %q", delta.Analysis)
	}

	if _, err := shapeAnalysis("   \n\t"); err == nil {
		t.Error("expected error for blank output")
	}
}

func TestShapeIssues(t *testing.T) {
	delta, err := shapeIssues("- unchecked error\n- magic number\n- no tests")
	if err != nil {
		t.Fatalf("shapeIssues: %v", err)
	}
	want := []string{
		"Issue 1: unchecked error",
		"Issue 2: magic number",
		"Issue 3: no tests",
	}
	if len(delta.Issues) != len(want) {
		t.Fatalf("expected %d issues, got %v", len(want), delta.Issues)
	}
	for i := range want {
		if delta.Issues[i] != want[i] {
			t.Errorf("issue %d: expected %q, got %q", i, want[i], delta.Issues[i])
		}
	}

	if _, err := shapeIssues(""); err == nil {
		t.Error("expected error for empty issue output")
	}
}

func TestShapeReport(t *testing.T) {
	delta, err := shapeReport("Summary: fine.\nRecommendation: ship it.")
	if err != nil {
		t.Fatalf("shapeReport: %v", err)
	}
	if delta.Report == "" {
		t.Error("expected non-empty report")
	}

	if _, err := shapeReport("```\n```"); err == nil {
		t.Error("expected error for fence-only output")
	}
}
