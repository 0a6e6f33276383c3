package recommend

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ambradan/techscout/internal/errors"
)

func validRecommendation() *Recommendation {
	return &Recommendation{
		ID:             "rec-2024-0042",
		Action:         ActionReplace,
		Priority:       "high",
		Confidence:     0.85,
		Subject:        "left-pad",
		Steps:          []string{"uninstall left-pad", "update imports in src/", "run tests"},
		EffortEstimate: "2 days",
		Verdict:        VerdictRecommend,
	}
}

func TestValidate(t *testing.T) {
	if err := validRecommendation().Validate(); err != nil {
		t.Fatalf("valid recommendation rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Recommendation)
	}{
		{"missing id", func(r *Recommendation) { r.ID = "" }},
		{"missing subject", func(r *Recommendation) { r.Subject = "" }},
		{"missing action", func(r *Recommendation) { r.Action = "" }},
		{"confidence below range", func(r *Recommendation) { r.Confidence = -0.1 }},
		{"confidence above range", func(r *Recommendation) { r.Confidence = 1.1 }},
		{"no steps", func(r *Recommendation) { r.Steps = nil }},
		{"missing verdict", func(r *Recommendation) { r.Verdict = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := validRecommendation()
			tt.mutate(rec)
			if err := rec.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

// Priority and effort estimate are informational; their absence must not
// block a recommendation.
func TestValidateOptionalFields(t *testing.T) {
	rec := validRecommendation()
	rec.Priority = ""
	rec.EffortEstimate = ""
	if err := rec.Validate(); err != nil {
		t.Errorf("recommendation without priority/effort rejected: %v", err)
	}
}

// A DEFER verdict is structurally valid; deferral is enforced by
// preflight, not by validation.
func TestValidateAllowsDefer(t *testing.T) {
	rec := validRecommendation()
	rec.Verdict = VerdictDefer
	if err := rec.Validate(); err != nil {
		t.Errorf("DEFER recommendation rejected: %v", err)
	}
}

func TestValidateNoStepsWrapsSentinel(t *testing.T) {
	rec := validRecommendation()
	rec.Steps = nil
	err := rec.Validate()
	if !errors.Is(err, errors.ErrNoSteps) {
		t.Errorf("error does not wrap ErrNoSteps: %v", err)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rec.json")

	content := `{
		"id": "rec-1",
		"action": "upgrade_version",
		"priority": "medium",
		"confidence": 0.7,
		"subject": "express",
		"steps": ["bump express to 5.x", "run tests"],
		"effortEstimate": "1 week",
		"verdict": "RECOMMEND"
	}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	rec, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if rec.ID != "rec-1" || rec.Action != ActionUpgrade || rec.Verdict != VerdictRecommend {
		t.Errorf("unexpected recommendation: %+v", rec)
	}
	if len(rec.Steps) != 2 {
		t.Errorf("got %d steps, want 2", len(rec.Steps))
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for malformed JSON")
	}
}

func TestParseEffortDays(t *testing.T) {
	tests := []struct {
		estimate string
		want     float64
	}{
		{"2 days", 2},
		{"1 day", 1},
		{"2d", 2},
		{"1 week", 5},
		{"1.5 weeks", 7.5},
		{"2w", 10},
		{"4 hours", 0.5},
		{"8h", 1},
		{"  3 days  ", 3},
		{"unknown", 0},
		{"", 0},
		{"soon", 0},
	}

	for _, tt := range tests {
		if got := ParseEffortDays(tt.estimate); got != tt.want {
			t.Errorf("ParseEffortDays(%q) = %v, want %v", tt.estimate, got, tt.want)
		}
	}
}
