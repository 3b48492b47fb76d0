package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alimgiray/formpilot/pkg/config"
	"github.com/alimgiray/formpilot/pkg/logger"
)

var (
	configFile string
	logLevel   string
	logFormat  string
)

var rootCmd = &cobra.Command{
	Use:           "formpilot",
	Short:         "Form submissions with conditional email rules",
	Long:          `formpilot stores form submissions and sends templated emails for the rules they match.`,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level override (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format override (json, text)")
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig resolves configuration and configures logging from it.
// Flags win over config and environment.
func loadConfig() (*config.Config, error) {
	if err := config.Load(configFile); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg := config.AppConfig

	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if logFormat != "" {
		cfg.Log.Format = logFormat
	}
	logger.Configure(cfg.Log.Level, cfg.Log.Format)
	return cfg, nil
}
