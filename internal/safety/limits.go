package safety

// Limits defines the hard resource and scope limits a migration job runs
// under. Limits are loaded once per job from configuration and never
// mutated during execution.
type Limits struct {
	// MaxFilesModified is the maximum number of files a migration may touch.
	MaxFilesModified int `mapstructure:"max_files_modified" json:"maxFilesModified"`
	// MaxLinesChanged is the maximum number of changed lines (insertions plus deletions).
	MaxLinesChanged int `mapstructure:"max_lines_changed" json:"maxLinesChanged"`
	// MaxExecutionMinutes is the plan-level execution time budget in minutes.
	MaxExecutionMinutes int `mapstructure:"max_execution_minutes" json:"maxExecutionMinutes"`
	// ComplexityThreshold is the maximum allowed ratio of actual to estimated scope.
	ComplexityThreshold float64 `mapstructure:"complexity_threshold" json:"complexityThreshold"`
	// RequireTestsPass halts the migration if the test suite fails.
	RequireTestsPass bool `mapstructure:"require_tests_pass" json:"requireTestsPass"`
	// RequireLintPass appends a mandatory lint step to every plan.
	RequireLintPass bool `mapstructure:"require_lint_pass" json:"requireLintPass"`
	// ForbiddenPaths are glob patterns for paths no step may touch.
	ForbiddenPaths []string `mapstructure:"forbidden_paths" json:"forbiddenPaths"`
	// ForbiddenOperations are command substrings no step may contain.
	ForbiddenOperations []string `mapstructure:"forbidden_operations" json:"forbiddenOperations"`
}

// DefaultLimits returns the default safety limits.
func DefaultLimits() Limits {
	return Limits{
		MaxFilesModified:    20,
		MaxLinesChanged:     1000,
		MaxExecutionMinutes: 30,
		ComplexityThreshold: 2.0,
		RequireTestsPass:    true,
		RequireLintPass:     true,
		ForbiddenPaths:      DefaultForbiddenPaths(),
		ForbiddenOperations: DefaultForbiddenOperations(),
	}
}

// DefaultForbiddenPaths returns the default forbidden-path patterns:
// secret material, version-control internals, and dependency or build
// output directories.
func DefaultForbiddenPaths() []string {
	return []string{
		".env",
		".env.*",
		"*.pem",
		"*.key",
		"**/secrets/**",
		"**/credentials/**",
		".git/**",
		".github/workflows/**",
		"node_modules/**",
		"vendor/**",
		"dist/**",
		"build/**",
	}
}

// DefaultForbiddenOperations returns the default forbidden command
// substrings: destructive filesystem and database operations, history
// rewriting, permission loosening, and remote code execution.
func DefaultForbiddenOperations() []string {
	return []string{
		"rm -rf",
		"rm -fr",
		"drop table",
		"drop database",
		"truncate table",
		"delete from",
		"push --force",
		"push -f",
		"chmod 777",
		"curl | sh",
		"curl | bash",
		"wget | sh",
		"wget | bash",
		"eval(",
		"exec(",
	}
}
