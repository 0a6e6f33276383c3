package executor

import (
	"fmt"
	"regexp"
)

// ambiguityConfidence is the fixed confidence attached to every
// pattern-matched ambiguity. Pattern matching over tool output is an
// inference, never a certainty, so entries carry the "inference" tag.
const ambiguityConfidence = 0.7

// ambiguityTag is the epistemic tag for pattern-matched detections.
const ambiguityTag = "inference"

// ambiguityRatio is the fraction of total steps past which accumulated
// ambiguities halt the run.
const ambiguityRatio = 0.3

// ambiguityPatterns are the output signals that mark a step's outcome as
// uncertain or risky.
var ambiguityPatterns = []struct {
	name    string
	pattern *regexp.Regexp
}{
	{"warning", regexp.MustCompile(`(?i)\bwarn(ing)?\b`)},
	{"deprecated", regexp.MustCompile(`(?i)\bdeprecat(ed|ion)\b`)},
	{"multiple versions", regexp.MustCompile(`(?i)multiple versions`)},
	{"conflict", regexp.MustCompile(`(?i)\bconflict`)},
	{"peer dependency", regexp.MustCompile(`(?i)peer dep(endency)?`)},
	{"optional dependency", regexp.MustCompile(`(?i)optional dep(endency)?`)},
}

// scanAmbiguities matches step output against the ambiguity patterns and
// returns one entry per matched pattern.
func scanAmbiguities(stepNumber int, output string) []AmbiguityEntry {
	var entries []AmbiguityEntry
	for _, p := range ambiguityPatterns {
		if p.pattern.MatchString(output) {
			entries = append(entries, AmbiguityEntry{
				StepNumber:  stepNumber,
				Description: fmt.Sprintf("step %d output matched ambiguity signal %q", stepNumber, p.name),
				Confidence:  ambiguityConfidence,
				Tag:         ambiguityTag,
			})
		}
	}
	return entries
}

// ambiguityBoundExceeded reports whether the accumulated ambiguity count
// has crossed the allowed fraction of total steps.
func ambiguityBoundExceeded(count, totalSteps int) bool {
	if totalSteps == 0 {
		return false
	}
	return float64(count) > ambiguityRatio*float64(totalSteps)
}
