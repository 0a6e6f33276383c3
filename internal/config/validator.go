package config

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/ambradan/techscout/internal/logging"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "safety.max_files_modified")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// branchPrefixRegex validates branch prefix characters.
// Prefixes start with alphanumeric and can contain alphanumeric, hyphen, underscore.
var branchPrefixRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_-]*$`)

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, c.validateSafety()...)
	errors = append(errors, c.validateExecutor()...)
	errors = append(errors, c.validateBackup()...)
	errors = append(errors, c.validateCI()...)
	errors = append(errors, c.validateLogging()...)

	return errors
}

// validateSafety validates the safety limits
func (c *Config) validateSafety() []ValidationError {
	var errors []ValidationError

	if c.Safety.MaxFilesModified <= 0 {
		errors = append(errors, ValidationError{
			Field:   "safety.max_files_modified",
			Value:   c.Safety.MaxFilesModified,
			Message: "must be positive",
		})
	}

	if c.Safety.MaxLinesChanged <= 0 {
		errors = append(errors, ValidationError{
			Field:   "safety.max_lines_changed",
			Value:   c.Safety.MaxLinesChanged,
			Message: "must be positive",
		})
	}

	if c.Safety.MaxExecutionMinutes <= 0 {
		errors = append(errors, ValidationError{
			Field:   "safety.max_execution_minutes",
			Value:   c.Safety.MaxExecutionMinutes,
			Message: "must be positive",
		})
	}

	if c.Safety.ComplexityThreshold < 1.0 {
		errors = append(errors, ValidationError{
			Field:   "safety.complexity_threshold",
			Value:   c.Safety.ComplexityThreshold,
			Message: "must be at least 1.0",
		})
	}

	return errors
}

// validateExecutor validates the ExecutorConfig
func (c *Config) validateExecutor() []ValidationError {
	var errors []ValidationError

	if c.Executor.StepTimeoutMinutes <= 0 {
		errors = append(errors, ValidationError{
			Field:   "executor.step_timeout_minutes",
			Value:   c.Executor.StepTimeoutMinutes,
			Message: "must be positive",
		})
	}

	return errors
}

// validateBackup validates the BackupConfig
func (c *Config) validateBackup() []ValidationError {
	var errors []ValidationError

	if c.Backup.BranchPrefix != "" && !branchPrefixRegex.MatchString(c.Backup.BranchPrefix) {
		errors = append(errors, ValidationError{
			Field:   "backup.branch_prefix",
			Value:   c.Backup.BranchPrefix,
			Message: "must start with a letter and contain only letters, digits, hyphens, underscores",
		})
	}

	if c.Backup.PushRemote == "" {
		errors = append(errors, ValidationError{
			Field:   "backup.push_remote",
			Value:   c.Backup.PushRemote,
			Message: "must not be empty",
		})
	}

	return errors
}

// validateCI validates the CIConfig
func (c *Config) validateCI() []ValidationError {
	var errors []ValidationError

	if c.Safety.RequireTestsPass && c.CI.TestCommand == "" {
		errors = append(errors, ValidationError{
			Field:   "ci.test_command",
			Value:   c.CI.TestCommand,
			Message: "must be set when safety.require_tests_pass is true",
		})
	}

	if c.CI.TestTimeoutMinutes <= 0 {
		errors = append(errors, ValidationError{
			Field:   "ci.test_timeout_minutes",
			Value:   c.CI.TestTimeoutMinutes,
			Message: "must be positive",
		})
	}

	if c.CI.ToolTimeoutMinutes <= 0 {
		errors = append(errors, ValidationError{
			Field:   "ci.tool_timeout_minutes",
			Value:   c.CI.ToolTimeoutMinutes,
			Message: "must be positive",
		})
	}

	return errors
}

// validateLogging validates the LoggingConfig
func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	if c.Logging.Level != "" && !slices.Contains(logging.ValidLevels(), strings.ToUpper(c.Logging.Level)) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(logging.ValidLevels(), ", ")),
		})
	}

	return errors
}
