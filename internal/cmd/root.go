package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ambradan/techscout/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "techscout",
	Short: "Safety-constrained dependency migration agent",
	Long: `Techscout turns an approved migration recommendation into reviewed
source changes. Every migration runs on an isolated backup branch behind
preflight checks, plan approval, and safety limits, and lands as a pull
request for human review.`,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/techscout/config.yaml)")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
}

func initConfig() {
	// Set defaults first so they're available even without a config file
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath("$HOME/.config/techscout")
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("TECHSCOUT")
	// Replace dots with underscores for nested keys in env vars
	// e.g., TECHSCOUT_SAFETY_MAX_FILES_MODIFIED for safety.max_files_modified
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}
