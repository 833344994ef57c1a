package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"mediafetch/pkg/config"
	"mediafetch/pkg/logger"
	"mediafetch/pkg/ui"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	logFile    string
	verbose    bool
)

// rootCmd runs a fetch when called without a subcommand.
var rootCmd = &cobra.Command{
	Use:   "mediafetch [channel]",
	Short: "Resumable bulk downloader for videos posted to a message channel",
	Long: `mediafetch walks a channel's message history in order and downloads every
video attachment that passes the size filter.

Features:
  - Resumes where the last run stopped (checkpoint file)
  - Skips the current download on demand (type the skip sequence, default "ss")
  - Keeps the download folder under a disk quota by evicting the oldest files
  - Secure token storage using the system keychain
  - Optional full-screen interface and Prometheus metrics`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runFetch,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		ui.PrintError("Error", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default .mediafetch.yaml or ~/.config/mediafetch/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "also write logs to this file (rotated)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "show informational logs on the console")

	rootCmd.SetVersionTemplate(`mediafetch {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// globalFlags returns the persistent flags the user set, keyed the way
// config.MergeCommandLineFlags expects.
func globalFlags() map[string]interface{} {
	flags := make(map[string]interface{})
	if logLevel != "" {
		flags["log-level"] = logLevel
	}
	if logFile != "" {
		flags["log-file"] = logFile
	}
	return flags
}

// loadConfig loads the configuration and sets up the global logger. The
// console only shows warnings unless --verbose is given or a console level
// is configured; a non-empty console argument overrides both.
func loadConfig(flags map[string]interface{}, console string) (*config.Config, error) {
	for k, v := range globalFlags() {
		flags[k] = v
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return nil, err
	}

	switch {
	case console != "":
		cfg.Logging.ConsoleLevel = console
	case cfg.Logging.ConsoleLevel == "" && !verbose:
		cfg.Logging.ConsoleLevel = "warn"
	}
	if err := logger.Initialize(&cfg.Logging); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, nil
}
