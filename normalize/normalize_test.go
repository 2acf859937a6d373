package normalize

import (
	"reflect"
	"strings"
	"testing"
)

func TestText(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"trims surrounding whitespace", "  hello world \n", "hello world"},
		{"strips plain fences", "```\nsome analysis\n```", "some analysis"},
		{"strips fences with language tag", "```go\nfunc main() {}\n```", "func main() {}"},
		{"passes body through unchanged", "Line one.\n\nLine two.", "Line one.\n\nLine two."},
		{"empty input", "   \n\t", ""},
		{"lone fence", "```", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Text(tt.raw); got != tt.want {
				t.Errorf("Text(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestText_Idempotent(t *testing.T) {
	raw := "```markdown\n## Report\n\nAll good.\n```"
	once := Text(raw)
	if twice := Text(once); twice != once {
		t.Errorf("Text not idempotent: first %q, second %q", once, twice)
	}
}

func TestIssues_ShapingRules(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{
			name: "mixed markers with duplicate and overflow",
			raw:  "1. Foo\n2. foo\n- Bar\n* Baz\n5) Qux\n6. Extra",
			want: []string{"Issue 1: Foo", "Issue 2: Bar", "Issue 3: Baz", "Issue 4: Qux", "Issue 5: Extra"},
		},
		{
			name: "bullet points from the generation prompt format",
			raw:  "- missing error handling\n- unbounded recursion\n- magic numbers",
			want: []string{"Issue 1: missing error handling", "Issue 2: unbounded recursion", "Issue 3: magic numbers"},
		},
		{
			name: "duplicates differ only in case and spacing",
			raw:  "- No  input validation\n- no input validation\n- NO INPUT  VALIDATION",
			want: []string{"Issue 1: No  input validation"},
		},
		{
			name: "blank lines and decoration-only lines dropped",
			raw:  "\n- \n* first issue\n\n   \n2. second issue\n",
			want: []string{"Issue 1: first issue", "Issue 2: second issue"},
		},
		{
			name: "caps at first five in generation order",
			raw:  "a\nb\nc\nd\ne\nf\ng",
			want: []string{"Issue 1: a", "Issue 2: b", "Issue 3: c", "Issue 4: d", "Issue 5: e"},
		},
		{
			name: "fenced issue list",
			raw:  "```\n- one thing\n- another thing\n```",
			want: []string{"Issue 1: one thing", "Issue 2: another thing"},
		},
		{
			name: "empty input yields no issues",
			raw:  "  \n \n",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Issues(tt.raw, MaxIssues)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Issues(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestIssues_Deterministic(t *testing.T) {
	raw := "1. Foo\n- Bar\n* Baz"
	first := Issues(raw, MaxIssues)
	second := Issues(raw, MaxIssues)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Issues not deterministic: first %v, second %v", first, second)
	}
}

func TestIssues_IdempotentOnNormalizedInput(t *testing.T) {
	raw := "1. Foo\n2. foo\n- Bar\n* Baz\n5) Qux\n6. Extra"
	once := Issues(raw, MaxIssues)
	again := Issues(strings.Join(once, "\n"), MaxIssues)
	if !reflect.DeepEqual(once, again) {
		t.Errorf("Issues not idempotent: first %v, second %v", once, again)
	}
}

func TestIssues_DefaultCap(t *testing.T) {
	raw := "a\nb\nc\nd\ne\nf"
	got := Issues(raw, 0)
	if len(got) != MaxIssues {
		t.Errorf("expected default cap of %d, got %d entries", MaxIssues, len(got))
	}
}
