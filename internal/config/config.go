package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/ambradan/techscout/internal/safety"
)

// Config represents the complete techscout configuration
type Config struct {
	Safety   safety.Limits  `mapstructure:"safety"`
	Executor ExecutorConfig `mapstructure:"executor"`
	Backup   BackupConfig   `mapstructure:"backup"`
	PR       PRConfig       `mapstructure:"pr"`
	CI       CIConfig       `mapstructure:"ci"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Paths    PathsConfig    `mapstructure:"paths"`
}

// ExecutorConfig controls supervised step execution
type ExecutorConfig struct {
	// StepTimeoutMinutes is the per-step command timeout (default: 5)
	StepTimeoutMinutes int `mapstructure:"step_timeout_minutes"`
}

// BackupConfig controls backup branch creation
type BackupConfig struct {
	// BranchPrefix is the backup branch name prefix (default: "techscout")
	// Branch names look like <prefix>/migrate-<id>-<slug>-<ts>
	BranchPrefix string `mapstructure:"branch_prefix"`
	// PushRemote is the remote backup branches are pushed to (default: "origin")
	PushRemote string `mapstructure:"push_remote"`
	// PushOnCreate pushes the backup branch immediately after the anchor
	// commit; push failures are tolerated (default: true)
	PushOnCreate bool `mapstructure:"push_on_create"`
}

// PRConfig controls pull request creation behavior
type PRConfig struct {
	// Enabled controls whether a PR is opened after execution (default: true)
	Enabled bool `mapstructure:"enabled"`
	// Base is the PR base branch; empty means the origin branch the
	// migration started from
	Base string `mapstructure:"base"`
	// Labels to add to all migration PRs in addition to the standard set
	Labels []string `mapstructure:"labels"`
}

// CIConfig controls the verification commands run around a migration
type CIConfig struct {
	// TestCommand runs the project test suite (default: "npm test")
	TestCommand string `mapstructure:"test_command"`
	// LintCommand runs the project linter; empty disables the lint gate
	LintCommand string `mapstructure:"lint_command"`
	// TypecheckCommand runs the type checker; empty disables it
	TypecheckCommand string `mapstructure:"typecheck_command"`
	// TestTimeoutMinutes bounds the test suite run (default: 10)
	TestTimeoutMinutes int `mapstructure:"test_timeout_minutes"`
	// ToolTimeoutMinutes bounds lint and typecheck runs (default: 5)
	ToolTimeoutMinutes int `mapstructure:"tool_timeout_minutes"`
}

// LoggingConfig controls job logging behavior
type LoggingConfig struct {
	// Enabled controls whether job logs are written (default: true)
	Enabled bool `mapstructure:"enabled"`
	// Level is the log level: "debug", "info", "warn", "error" (default: "info")
	Level string `mapstructure:"level"`
}

// PathsConfig controls where techscout stores job artifacts
type PathsConfig struct {
	// JobsDir is the directory where job artifacts are written.
	// If empty, defaults to ".techscout/jobs" relative to the repository
	// root. Supports ~ for home directory expansion.
	JobsDir string `mapstructure:"jobs_dir"`
}

// ResolveJobsDir returns the resolved jobs directory path.
// If JobsDir is empty, it returns the default path relative to baseDir.
// If JobsDir starts with ~, it expands to the user's home directory.
// If JobsDir is a relative path, it's resolved relative to baseDir.
func (p *PathsConfig) ResolveJobsDir(baseDir string) string {
	if p.JobsDir == "" {
		return filepath.Join(baseDir, ".techscout", "jobs")
	}

	path := p.JobsDir

	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[2:])
		}
	} else if path == "~" {
		home, err := os.UserHomeDir()
		if err == nil {
			path = home
		}
	}

	if !filepath.IsAbs(path) {
		path = filepath.Join(baseDir, path)
	}

	return path
}

// StepTimeout returns the per-step timeout as a time.Duration
func (c *ExecutorConfig) StepTimeout() time.Duration {
	return time.Duration(c.StepTimeoutMinutes) * time.Minute
}

// TestTimeout returns the test suite timeout as a time.Duration
func (c *CIConfig) TestTimeout() time.Duration {
	return time.Duration(c.TestTimeoutMinutes) * time.Minute
}

// ToolTimeout returns the lint/typecheck timeout as a time.Duration
func (c *CIConfig) ToolTimeout() time.Duration {
	return time.Duration(c.ToolTimeoutMinutes) * time.Minute
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Safety: safety.DefaultLimits(),
		Executor: ExecutorConfig{
			StepTimeoutMinutes: 5,
		},
		Backup: BackupConfig{
			BranchPrefix: "techscout",
			PushRemote:   "origin",
			PushOnCreate: true,
		},
		PR: PRConfig{
			Enabled: true,
			Base:    "", // Empty means the migration's origin branch
			Labels:  []string{},
		},
		CI: CIConfig{
			TestCommand:        "npm test",
			LintCommand:        "",
			TypecheckCommand:   "",
			TestTimeoutMinutes: 10,
			ToolTimeoutMinutes: 5,
		},
		Logging: LoggingConfig{
			Enabled: true,
			Level:   "info",
		},
		Paths: PathsConfig{
			JobsDir: "", // Empty means use default: .techscout/jobs
		},
	}
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	// Safety defaults
	viper.SetDefault("safety.max_files_modified", defaults.Safety.MaxFilesModified)
	viper.SetDefault("safety.max_lines_changed", defaults.Safety.MaxLinesChanged)
	viper.SetDefault("safety.max_execution_minutes", defaults.Safety.MaxExecutionMinutes)
	viper.SetDefault("safety.complexity_threshold", defaults.Safety.ComplexityThreshold)
	viper.SetDefault("safety.require_tests_pass", defaults.Safety.RequireTestsPass)
	viper.SetDefault("safety.require_lint_pass", defaults.Safety.RequireLintPass)
	viper.SetDefault("safety.forbidden_paths", defaults.Safety.ForbiddenPaths)
	viper.SetDefault("safety.forbidden_operations", defaults.Safety.ForbiddenOperations)

	// Executor defaults
	viper.SetDefault("executor.step_timeout_minutes", defaults.Executor.StepTimeoutMinutes)

	// Backup defaults
	viper.SetDefault("backup.branch_prefix", defaults.Backup.BranchPrefix)
	viper.SetDefault("backup.push_remote", defaults.Backup.PushRemote)
	viper.SetDefault("backup.push_on_create", defaults.Backup.PushOnCreate)

	// PR defaults
	viper.SetDefault("pr.enabled", defaults.PR.Enabled)
	viper.SetDefault("pr.base", defaults.PR.Base)
	viper.SetDefault("pr.labels", defaults.PR.Labels)

	// CI defaults
	viper.SetDefault("ci.test_command", defaults.CI.TestCommand)
	viper.SetDefault("ci.lint_command", defaults.CI.LintCommand)
	viper.SetDefault("ci.typecheck_command", defaults.CI.TypecheckCommand)
	viper.SetDefault("ci.test_timeout_minutes", defaults.CI.TestTimeoutMinutes)
	viper.SetDefault("ci.tool_timeout_minutes", defaults.CI.ToolTimeoutMinutes)

	// Logging defaults
	viper.SetDefault("logging.enabled", defaults.Logging.Enabled)
	viper.SetDefault("logging.level", defaults.Logging.Level)

	// Paths defaults
	viper.SetDefault("paths.jobs_dir", defaults.Paths.JobsDir)
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// Get returns the current configuration (convenience function)
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		// Fall back to defaults if unmarshaling fails
		return Default()
	}
	return cfg
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	// Check XDG_CONFIG_HOME first
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "techscout")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".techscout"
	}
	return filepath.Join(home, ".config", "techscout")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
