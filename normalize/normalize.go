// Package normalize converts raw language-model output into schema-stable
// representations.
//
// Generated text is an untrusted boundary: the model decorates answers with
// markdown fences, bullet styles, and enumeration that vary run to run. The
// functions here are pure and deterministic so that the shaping rules can be
// tested independently of any live generation backend: identical raw input
// always yields identical normalized output, and both rules are idempotent
// on already-normalized text.
package normalize

import (
	"fmt"
	"regexp"
	"strings"
)

// MaxIssues is the cap applied to a normalized issue list.
const MaxIssues = 5

var (
	// enumeration markers such as "1.", "2)", "3:" at the start of a line
	enumPattern = regexp.MustCompile(`^\d+\s*[.):]\s*`)

	// a previously-normalized "Issue N:" prefix, stripped for idempotence
	issuePattern = regexp.MustCompile(`^(?i:issue)\s+\d+\s*:\s*`)
)

// Text shapes a narrative model response: surrounding whitespace is trimmed
// and leading/trailing markdown fencing artifacts are stripped. The body is
// otherwise passed through unchanged, with no truncation or re-wording.
func Text(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		// Drop the opening fence line, including any language tag.
		if i := strings.IndexByte(s, '\n'); i >= 0 {
			s = s[i+1:]
		} else {
			s = strings.TrimPrefix(s, "```")
		}
		s = strings.TrimSpace(s)
	}
	if strings.HasSuffix(s, "```") {
		s = strings.TrimSpace(strings.TrimSuffix(s, "```"))
	}

	return s
}

// Issues shapes raw issue text into a bounded, ordered list of distinct
// issue strings.
//
// The raw text is split into candidate lines; bullet markers, enumeration,
// and prior "Issue N:" prefixes are stripped; empty and duplicate candidates
// (case-insensitive, whitespace-normalized) are dropped while preserving
// first-seen order; the list is capped at max entries in generation order;
// and survivors are renumbered as "Issue N: <text>" with N starting at 1.
//
// A max of 0 or less applies the default MaxIssues cap.
func Issues(raw string, max int) []string {
	if max <= 0 {
		max = MaxIssues
	}

	seen := make(map[string]struct{})
	var out []string

	for _, line := range strings.Split(Text(raw), "\n") {
		cand := stripDecoration(line)
		if cand == "" {
			continue
		}

		key := dedupKey(cand)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		out = append(out, cand)
		if len(out) == max {
			break
		}
	}

	for i, issue := range out {
		out[i] = fmt.Sprintf("Issue %d: %s", i+1, issue)
	}

	return out
}

// stripDecoration removes bullet markers, numbered-list markers, and prior
// issue numbering from the start of a candidate line, repeating until the
// line is stable so stacked decoration ("- 1. foo") is fully removed.
func stripDecoration(line string) string {
	s := strings.TrimSpace(line)
	for {
		prev := s
		s = strings.TrimLeft(s, "-*•+ \t")
		s = issuePattern.ReplaceAllString(s, "")
		s = enumPattern.ReplaceAllString(s, "")
		s = strings.TrimSpace(s)
		if s == prev {
			return s
		}
	}
}

// dedupKey folds case and collapses internal whitespace so that candidates
// differing only in casing or spacing compare equal.
func dedupKey(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
