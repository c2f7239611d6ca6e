package cli

import (
	"context"
	"fmt"
	"os"

	"resumecoach/internal/config"
	"resumecoach/internal/errors"

	"github.com/spf13/cobra"
)

// Define custom private types for context keys.
type configKeyType struct{}
type loggerKeyType struct{}

// Use variables of these types as the keys.
var configKey = configKeyType{}
var loggerKey = loggerKeyType{}

var rootFlags struct {
	configFile string
	logLevel   string
	logFile    string
}

var rootCmd = &cobra.Command{
	Use:   "resumecoach",
	Short: "Analyze a resume and coach it into a stronger one",
	Long: `resumecoach analyzes a resume, optionally against a job description, and
coaches you through fixing its weaknesses one at a time. Without a resume it
interviews you and builds one from scratch. The result is rendered as a PDF
in one of several templates.

The workflow is available as a REST API (serve), as MCP tools for assistants
(mcp) and interactively on the terminal (coach, interview).`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

// Execute runs the command line. Configuration and logging are set up per
// command, since the MCP transport must keep stdout free for the protocol.
func Execute(ctx context.Context) error {
	rootCmd.SetContext(ctx)
	return rootCmd.Execute()
}

func setup(cmd *cobra.Command, _ []string) error {
	if cmd.Annotations["skipSetup"] == "true" {
		return nil
	}

	var cfg *config.Config
	var err error
	if rootFlags.configFile != "" {
		cfg, err = config.LoadConfigFile(rootFlags.configFile)
	} else {
		cfg, err = config.LoadConfig()
	}
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if rootFlags.logLevel != "" {
		cfg.App.LogLevel = rootFlags.logLevel
	}
	if rootFlags.logFile != "" {
		cfg.App.LogFile.Path = rootFlags.logFile
	}

	logger, err := newLogger(cfg, cmd.Annotations["logToStderr"] == "true")
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if err := config.ApplyVaultSecrets(cfg, logger); err != nil {
		return err
	}

	logger.Debug("Starting resumecoach",
		"command", cmd.Name(),
		"version", Version,
		"log_level", cfg.App.LogLevel,
		"ai_provider", cfg.AI.Provider)

	ctx := context.WithValue(cmd.Context(), configKey, cfg)
	ctx = context.WithValue(ctx, loggerKey, logger)
	cmd.SetContext(ctx)
	return nil
}

func newLogger(cfg *config.Config, toStderr bool) (*errors.Logger, error) {
	opts := errors.Options{Level: cfg.App.LogLevel}
	if toStderr {
		opts.Writer = os.Stderr
	}
	if cfg.App.LogFile.Path != "" {
		opts.File = &errors.RotationConfig{
			Filename:   cfg.App.LogFile.Path,
			MaxSizeMB:  cfg.App.LogFile.MaxSizeMB,
			MaxBackups: cfg.App.LogFile.MaxBackups,
			MaxAgeDays: cfg.App.LogFile.MaxAgeDays,
			Compress:   cfg.App.LogFile.Compress,
		}
	}
	return errors.NewWithOptions(opts)
}

// getConfigFromContext is a helper function to get config from context
func getConfigFromContext(ctx context.Context) *config.Config {
	if cfg, ok := ctx.Value(configKey).(*config.Config); ok {
		return cfg
	}
	panic("config not found in context") // Should not happen if properly initialized
}

// getLoggerFromContext is a helper function to get logger from context
func getLoggerFromContext(ctx context.Context) *errors.Logger {
	if logger, ok := ctx.Value(loggerKey).(*errors.Logger); ok {
		return logger
	}
	panic("logger not found in context") // Should not happen if properly initialized
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootFlags.configFile, "config", "", "Config file (default: config.yaml in /etc/resumecoach, $HOME/.resumecoach or .)")
	rootCmd.PersistentFlags().StringVar(&rootFlags.logLevel, "log-level", "", "Log level: debug, info, warn or error (overrides config)")
	rootCmd.PersistentFlags().StringVar(&rootFlags.logFile, "log-file", "", "Also write logs to this rotating file (overrides config)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(coachCmd)
	rootCmd.AddCommand(interviewCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(templatesCmd)
	rootCmd.AddCommand(versionCmd)
}
