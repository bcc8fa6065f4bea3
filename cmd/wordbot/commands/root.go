package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/wordbot/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/wordbot/pkg/logger"
)

var (
	configPath string
	logLevel   string
	logFormat  string
)

var rootCmd = &cobra.Command{
	Use:   "wordbot",
	Short: "wordbot posts one word image to Bluesky on a schedule",
	Long: `wordbot draws a word it has never posted before, records it in the
posted-word ledger, renders it onto a decorative image and posts it to
Bluesky. Every word is posted at most once.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// Execute runs the root command. Errors are logged before returning.
func Execute() error {
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "wordbot: %v\n", err)
	}
	return err
}

// SetVersionInfo sets the version string reported by --version.
func SetVersionInfo(v, c, d string) {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "override log format (json, text)")
}

// loadConfig reads configuration and installs the default logger. With
// requireCredentials unset only the ledger settings are validated.
func loadConfig(requireCredentials bool) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if logFormat != "" {
		cfg.Logging.Format = logFormat
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	validate := cfg.ValidateLedger
	if requireCredentials {
		validate = cfg.Validate
	}
	if err := validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		return nil, err
	}
	return cfg, nil
}
