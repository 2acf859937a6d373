package emit

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestLogEmitter_TextOutput(t *testing.T) {
	t.Run("emits event with all fields", func(t *testing.T) {
		var buf bytes.Buffer
		emitter := NewLogEmitter(&buf, false)

		emitter.Emit(Event{
			RunID: "run-001",
			Step:  1,
			Stage: "analyzer",
			Msg:   "stage_start",
			Meta: map[string]interface{}{
				"phase": "ANALYZING",
			},
		})

		output := buf.String()
		if output == "" {
			t.Fatal("expected output, got empty string")
		}
		for _, want := range []string{"run-001", "analyzer", "stage_start", "ANALYZING"} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q, got: %s", want, output)
			}
		}
	})

	t.Run("emits one line per event", func(t *testing.T) {
		var buf bytes.Buffer
		emitter := NewLogEmitter(&buf, false)

		emitter.Emit(Event{RunID: "run-001", Step: 1, Stage: "analyzer", Msg: "stage_start"})
		emitter.Emit(Event{RunID: "run-001", Step: 1, Stage: "analyzer", Msg: "stage_end"})

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		if len(lines) != 2 {
			t.Errorf("expected 2 lines of output, got %d", len(lines))
		}
	})
}

func TestLogEmitter_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	emitter := NewLogEmitter(&buf, true)

	emitter.Emit(Event{
		RunID: "run-002",
		Step:  2,
		Stage: "issue_finder",
		Msg:   "stage_end",
		Meta: map[string]interface{}{
			"duration_ms": 42,
		},
	})

	var decoded struct {
		RunID string                 `json:"runID"`
		Step  int                    `json:"step"`
		Stage string                 `json:"stage"`
		Msg   string                 `json:"msg"`
		Meta  map[string]interface{} `json:"meta"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("expected valid JSON output, got error: %v\noutput: %s", err, buf.String())
	}
	if decoded.RunID != "run-002" || decoded.Stage != "issue_finder" || decoded.Msg != "stage_end" {
		t.Errorf("unexpected decoded event: %+v", decoded)
	}
	if decoded.Meta["duration_ms"] != float64(42) {
		t.Errorf("expected duration_ms 42, got %v", decoded.Meta["duration_ms"])
	}
}

func TestNullEmitter_Discards(t *testing.T) {
	emitter := NewNullEmitter()
	// Must not panic, must accept any event.
	emitter.Emit(Event{})
	emitter.Emit(Event{RunID: "run-003", Msg: "run_failed", Meta: map[string]interface{}{"error": "boom"}})
}
