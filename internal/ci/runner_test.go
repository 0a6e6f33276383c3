package ci

import (
	"context"
	"testing"
	"time"

	"github.com/ambradan/techscout/internal/errors"
)

func TestRunTestsPass(t *testing.T) {
	r := NewCommandRunner(t.TempDir(), "echo '12 passing'", "", "", nil)

	result, err := r.RunTests(context.Background())
	if err != nil {
		t.Fatalf("RunTests failed: %v", err)
	}
	if !result.Passed {
		t.Error("Passed = false for successful command")
	}
	if result.PassedCount != 12 {
		t.Errorf("PassedCount = %d, want 12", result.PassedCount)
	}
	if result.Duration <= 0 {
		t.Error("Duration not recorded")
	}
}

// A failing tool is a failed result, not an error.
func TestRunTestsFailure(t *testing.T) {
	r := NewCommandRunner(t.TempDir(), "echo '8 passed, 3 failed'; exit 1", "", "", nil)

	result, err := r.RunTests(context.Background())
	if err != nil {
		t.Fatalf("RunTests returned error for non-zero exit: %v", err)
	}
	if result.Passed {
		t.Error("Passed = true for failing command")
	}
	if result.PassedCount != 8 || result.FailedCount != 3 {
		t.Errorf("counts = (%d, %d), want (8, 3)", result.PassedCount, result.FailedCount)
	}
}

// An empty command is a skipped pass: nothing to run means nothing failed.
func TestRunEmptyCommand(t *testing.T) {
	r := NewCommandRunner(t.TempDir(), "", "", "", nil)

	result, err := r.RunTests(context.Background())
	if err != nil {
		t.Fatalf("RunTests failed: %v", err)
	}
	if !result.Passed {
		t.Error("empty command should pass")
	}

	result, err = r.RunLint(context.Background())
	if err != nil || !result.Passed {
		t.Errorf("RunLint = (%+v, %v), want skipped pass", result, err)
	}
	result, err = r.RunTypecheck(context.Background())
	if err != nil || !result.Passed {
		t.Errorf("RunTypecheck = (%+v, %v), want skipped pass", result, err)
	}
}

func TestRunTimeout(t *testing.T) {
	r := NewCommandRunner(t.TempDir(), "sleep 5", "", "", nil).
		WithTimeouts(100*time.Millisecond, 100*time.Millisecond)

	_, err := r.RunTests(context.Background())
	if err == nil {
		t.Fatal("expected timeout error")
	}
	var timeoutErr *errors.TimeoutError
	if !errors.As(err, &timeoutErr) {
		t.Errorf("error = %v, want TimeoutError", err)
	}
}

func TestRunLintAndTypecheck(t *testing.T) {
	r := NewCommandRunner(t.TempDir(), "", "echo lint ok", "echo 'found 2 failures'; exit 2", nil)

	result, err := r.RunLint(context.Background())
	if err != nil || !result.Passed {
		t.Errorf("RunLint = (%+v, %v), want pass", result, err)
	}

	result, err = r.RunTypecheck(context.Background())
	if err != nil {
		t.Fatalf("RunTypecheck failed: %v", err)
	}
	if result.Passed {
		t.Error("Passed = true for failing typecheck")
	}
	if result.FailedCount != 2 {
		t.Errorf("FailedCount = %d, want 2", result.FailedCount)
	}
}

func TestParseCounts(t *testing.T) {
	tests := []struct {
		output     string
		wantPass   int
		wantFailed int
	}{
		{"12 passing", 12, 0},
		{"Tests: 10 passed, 2 failed", 10, 2},
		{"3 failures", 0, 3},
		{"1 failing", 0, 1},
		{"all good", 0, 0},
		{"", 0, 0},
	}

	for _, tt := range tests {
		passed, failed := parseCounts(tt.output)
		if passed != tt.wantPass || failed != tt.wantFailed {
			t.Errorf("parseCounts(%q) = (%d, %d), want (%d, %d)",
				tt.output, passed, failed, tt.wantPass, tt.wantFailed)
		}
	}
}
