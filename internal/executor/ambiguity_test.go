package executor

import "testing"

func TestScanAmbiguities(t *testing.T) {
	tests := []struct {
		name   string
		output string
		want   int
	}{
		{"clean output", "added 12 packages in 3s", 0},
		{"warning", "npm WARN old lockfile", 1},
		{"deprecated", "left-pad@1.3.0 is deprecated", 1},
		{"peer dependency", "could not resolve peer dependency react@18", 1},
		{"optional dependency", "skipping optional dependency fsevents", 1},
		{"version conflict", "found multiple versions of lodash, conflict in tree", 2},
		{"warn and deprecated", "WARNING: deprecation notice ahead", 2},
		{"empty output", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries := scanAmbiguities(3, tt.output)
			if len(entries) != tt.want {
				t.Fatalf("got %d entries, want %d: %+v", len(entries), tt.want, entries)
			}
			for _, e := range entries {
				if e.StepNumber != 3 {
					t.Errorf("entry attributed to step %d, want 3", e.StepNumber)
				}
				if e.Confidence != ambiguityConfidence || e.Tag != ambiguityTag {
					t.Errorf("entry %+v missing fixed confidence and tag", e)
				}
			}
		})
	}
}

func TestAmbiguityBoundExceeded(t *testing.T) {
	tests := []struct {
		count, total int
		want         bool
	}{
		{0, 10, false},
		{3, 10, false}, // exactly 30% does not trip the bound
		{4, 10, true},
		{1, 2, true},
		{1, 4, false},
		{2, 4, true},
		{5, 0, false}, // no steps, no bound
	}

	for _, tt := range tests {
		if got := ambiguityBoundExceeded(tt.count, tt.total); got != tt.want {
			t.Errorf("ambiguityBoundExceeded(%d, %d) = %v, want %v", tt.count, tt.total, got, tt.want)
		}
	}
}
