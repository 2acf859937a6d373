package workflow

import (
	"reflect"
	"testing"
)

func TestReduce_AppendOnly(t *testing.T) {
	prev := State{Code: "code", Analysis: "first analysis"}

	merged := Reduce(prev, State{Analysis: "second analysis", Issues: []string{"Issue 1: x"}})

	if merged.Analysis != "first analysis" {
		t.Errorf("populated field was overwritten: %q", merged.Analysis)
	}
	if !reflect.DeepEqual(merged.Issues, []string{"Issue 1: x"}) {
		t.Errorf("absent field was not copied: %v", merged.Issues)
	}
	if merged.Code != "code" {
		t.Errorf("code changed: %q", merged.Code)
	}
}

func TestReduce_FillsFieldsInOrder(t *testing.T) {
	state := State{Code: "code"}

	state = Reduce(state, State{Analysis: "a"})
	state = Reduce(state, State{Issues: []string{"Issue 1: b"}})
	state = Reduce(state, State{Report: "c"})

	if state.Analysis != "a" || state.Report != "c" {
		t.Errorf("unexpected merged state: %+v", state)
	}
	if len(state.Issues) != 1 {
		t.Errorf("expected one issue, got %v", state.Issues)
	}
	if !state.Complete() {
		t.Error("expected complete state after all three deltas")
	}
}

func TestReduce_TruncatedIsSticky(t *testing.T) {
	state := Reduce(State{Truncated: true}, State{Analysis: "a"})
	if !state.Truncated {
		t.Error("truncated flag was lost in merge")
	}
}

func TestState_Complete(t *testing.T) {
	tests := []struct {
		name  string
		state State
		want  bool
	}{
		{"empty", State{}, false},
		{"analysis only", State{Analysis: "a"}, false},
		{"missing report", State{Analysis: "a", Issues: []string{"i"}}, false},
		{"all fields", State{Analysis: "a", Issues: []string{"i"}, Report: "r"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.Complete(); got != tt.want {
				t.Errorf("Complete() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPhase_String(t *testing.T) {
	order := []Phase{PhaseInit, PhaseAnalyzing, PhaseFindingIssues, PhaseGeneratingReport, PhaseDone, PhaseFailed}
	want := []string{"init", "analyzing", "finding_issues", "generating_report", "done", "failed"}

	for i, p := range order {
		if p.String() != want[i] {
			t.Errorf("phase %d: expected %q, got %q", i, want[i], p.String())
		}
	}
	if Phase(99).String() != "unknown" {
		t.Errorf("unexpected string for invalid phase: %q", Phase(99).String())
	}
}
