package config

import (
	"strings"
	"testing"
)

func fieldErrors(errs []ValidationError) map[string]ValidationError {
	m := make(map[string]ValidationError, len(errs))
	for _, e := range errs {
		m[e.Field] = e
	}
	return m
}

func TestValidateSafety(t *testing.T) {
	cfg := Default()
	cfg.Safety.MaxFilesModified = 0
	cfg.Safety.MaxLinesChanged = -5
	cfg.Safety.MaxExecutionMinutes = 0
	cfg.Safety.ComplexityThreshold = 0.5

	errs := fieldErrors(cfg.Validate())
	for _, field := range []string{
		"safety.max_files_modified",
		"safety.max_lines_changed",
		"safety.max_execution_minutes",
		"safety.complexity_threshold",
	} {
		if _, ok := errs[field]; !ok {
			t.Errorf("no error for %s", field)
		}
	}
}

func TestValidateExecutor(t *testing.T) {
	cfg := Default()
	cfg.Executor.StepTimeoutMinutes = 0

	errs := fieldErrors(cfg.Validate())
	if _, ok := errs["executor.step_timeout_minutes"]; !ok {
		t.Error("no error for zero step timeout")
	}
}

func TestValidateBackup(t *testing.T) {
	cfg := Default()
	cfg.Backup.BranchPrefix = "9bad/prefix"
	cfg.Backup.PushRemote = ""

	errs := fieldErrors(cfg.Validate())
	if _, ok := errs["backup.branch_prefix"]; !ok {
		t.Error("no error for malformed branch prefix")
	}
	if _, ok := errs["backup.push_remote"]; !ok {
		t.Error("no error for empty push remote")
	}
}

func TestValidateBackupPrefixAccepts(t *testing.T) {
	for _, prefix := range []string{"techscout", "agent-v2", "migration_bot", "A1"} {
		cfg := Default()
		cfg.Backup.BranchPrefix = prefix
		if _, ok := fieldErrors(cfg.Validate())["backup.branch_prefix"]; ok {
			t.Errorf("valid prefix %q rejected", prefix)
		}
	}
}

func TestValidateCI(t *testing.T) {
	cfg := Default()
	cfg.CI.TestCommand = "" // required while tests must pass
	cfg.CI.TestTimeoutMinutes = 0
	cfg.CI.ToolTimeoutMinutes = -1

	errs := fieldErrors(cfg.Validate())
	for _, field := range []string{
		"ci.test_command",
		"ci.test_timeout_minutes",
		"ci.tool_timeout_minutes",
	} {
		if _, ok := errs[field]; !ok {
			t.Errorf("no error for %s", field)
		}
	}
}

func TestValidateCITestCommandOptionalWithoutGate(t *testing.T) {
	cfg := Default()
	cfg.Safety.RequireTestsPass = false
	cfg.CI.TestCommand = ""

	if _, ok := fieldErrors(cfg.Validate())["ci.test_command"]; ok {
		t.Error("test command required even though the test gate is off")
	}
}

func TestValidateLogging(t *testing.T) {
	cfg := Default()
	cfg.Logging.Level = "verbose"

	errs := fieldErrors(cfg.Validate())
	e, ok := errs["logging.level"]
	if !ok {
		t.Fatal("no error for invalid log level")
	}
	if !strings.Contains(e.Message, "DEBUG") {
		t.Errorf("message %q does not list valid levels", e.Message)
	}
}

func TestValidateLoggingAcceptsAnyCase(t *testing.T) {
	for _, level := range []string{"info", "INFO", "Debug", "warn", "error", ""} {
		cfg := Default()
		cfg.Logging.Level = level
		if _, ok := fieldErrors(cfg.Validate())["logging.level"]; ok {
			t.Errorf("level %q rejected", level)
		}
	}
}

func TestValidationErrorsFormatting(t *testing.T) {
	errs := ValidationErrors{
		{Field: "a.b", Value: 0, Message: "must be positive"},
		{Field: "c.d", Value: "", Message: "must not be empty"},
	}

	s := errs.Error()
	if !strings.HasPrefix(s, "2 validation errors:") {
		t.Errorf("multi-error string = %q", s)
	}
	if !strings.Contains(s, "1. a.b") || !strings.Contains(s, "2. c.d") {
		t.Errorf("errors not numbered: %q", s)
	}

	single := ValidationErrors{errs[0]}
	if got := single.Error(); got != "a.b: must be positive (got: 0)" {
		t.Errorf("single error string = %q", got)
	}

	if got := (ValidationErrors{}).Error(); got != "" {
		t.Errorf("empty errors string = %q", got)
	}
}
